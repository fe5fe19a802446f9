// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api serves the EOC database operations over HTTP.
//
// Routes are grouped by source: message logs, CW order header, order
// tracking and order instances, order diagnostics, troubleshooting plans and
// plan execution history, plus health and Prometheus endpoints.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"eocdb/platform/config"
	"eocdb/platform/shared/logger"
	"eocdb/platform/store"
)

var apiLog = logger.New("eocdb.api")

// Server holds the handler dependencies.
type Server struct {
	cfg     *config.Config
	svc     *store.Service
	limiter Limiter
	started time.Time
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLimiter enables rate limiting.
func WithLimiter(l Limiter) ServerOption {
	return func(s *Server) { s.limiter = l }
}

// NewServer creates a server for svc.
func NewServer(cfg *config.Config, svc *store.Service, opts ...ServerOption) *Server {
	s := &Server{cfg: cfg, svc: svc, started: time.Now()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler wrapped in CORS.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(requestIDMiddleware, metricsMiddleware, recoverMiddleware,
		apiKeyMiddleware(s.cfg.API.APIKey), rateLimitMiddleware(s.limiter, s.cfg.API.APIKey != ""))

	s.registerRoutes(router)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.API.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
	})
	return c.Handler(router)
}

func (s *Server) registerRoutes(router *mux.Router) {
	// Health and monitoring
	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/health/comprehensive", s.handleComprehensiveHealth).Methods("GET")
	router.HandleFunc("/test-db", s.handleTestDB).Methods("GET")
	router.Handle("/prometheus", promhttp.Handler()).Methods("GET")

	// CWMESSAGELOG
	router.HandleFunc("/message-logs/search", s.handleSearchMessageLogs).Methods("POST")
	router.HandleFunc("/message-logs/by-user-data/user-data1/{value}", s.messageLogsByUserData("user_data1")).Methods("GET")
	router.HandleFunc("/message-logs/by-user-data/user-data2/{value}", s.messageLogsByUserData("user_data2")).Methods("GET")
	router.HandleFunc("/message-logs/by-user-data/user-data3/{value}", s.messageLogsByUserData("user_data3")).Methods("GET")
	router.HandleFunc("/message-logs/{msgid}", s.handleGetMessageLog).Methods("GET")

	// ORDER_ORDER_HEADER
	router.HandleFunc("/orders/search", s.handleSearchOrderHeaders).Methods("POST")
	router.HandleFunc("/orders/by-cworderid/{value}", s.orderHeadersBy("cworderid")).Methods("GET")
	router.HandleFunc("/orders/by-omorderid/{value}", s.orderHeadersBy("omorderid")).Methods("GET")
	router.HandleFunc("/orders/by-telephone/{value}", s.orderHeadersBy("telephonenumber")).Methods("GET")
	router.HandleFunc("/orders/by-quoteid/{value}", s.orderHeadersBy("quoteid")).Methods("GET")
	router.HandleFunc("/orders/{cwdocid}", s.handleGetOrderHeader).Methods("GET")

	// ORDER_TRACKING_INFO (with-errors must come before {cwdocid})
	router.HandleFunc("/order-tracking/search", s.handleSearchOrderTracking).Methods("POST")
	router.HandleFunc("/order-tracking/with-errors", s.handleTrackingWithErrors).Methods("GET")
	router.HandleFunc("/order-tracking/by-cworderid/{value}", s.orderTrackingBy("cworderid")).Methods("GET")
	router.HandleFunc("/order-tracking/by-orderid/{value}", s.orderTrackingBy("orderid")).Methods("GET")
	router.HandleFunc("/order-tracking/by-workid/{value}", s.orderTrackingBy("workid")).Methods("GET")
	router.HandleFunc("/order-tracking/by-scaseid/{value}", s.orderTrackingBy("scaseid")).Methods("GET")
	router.HandleFunc("/order-tracking/by-status/{value}", s.orderTrackingBy("orderstatus")).Methods("GET")
	router.HandleFunc("/order-tracking/{cwdocid}", s.handleGetOrderTracking).Methods("GET")

	// CWORDERINSTANCE
	router.HandleFunc("/order-instances/search", s.handleSearchOrderInstances).Methods("POST")
	router.HandleFunc("/order-instances/by-customerid/{value}", s.orderInstancesBy("customerid")).Methods("GET")
	router.HandleFunc("/order-instances/by-quoteid/{value}", s.orderInstancesBy("quoteid")).Methods("GET")
	router.HandleFunc("/order-instances/by-externalorderid/{value}", s.orderInstancesBy("externalorderid")).Methods("GET")
	router.HandleFunc("/order-instances/{cwdocid}", s.handleGetOrderInstance).Methods("GET")

	// Order diagnostics
	router.HandleFunc("/order-diagnostics/search", s.handleSearchOrders).Methods("POST")
	router.HandleFunc("/order-diagnostics/{order_id}", s.handleCompleteOrder).Methods("GET")
	router.HandleFunc("/order-diagnostics/{order_id}/timeline", s.handleOrderTimeline).Methods("GET")
	router.HandleFunc("/system/performance", s.handleSystemPerformance).Methods("GET")

	// AI_TROUBLESHOOTING_PLANS
	router.HandleFunc("/plans", s.handleCreatePlan).Methods("POST")
	router.HandleFunc("/plans/search", s.handleSearchPlans).Methods("POST")
	router.HandleFunc("/plans/by-goal-type/{goal_type}", s.handlePlansByGoalType).Methods("GET")
	router.HandleFunc("/plans/{plan_id}", s.handleGetPlan).Methods("GET")
	router.HandleFunc("/plans/{plan_id}", s.handleUpdatePlan).Methods("PUT")
	router.HandleFunc("/plans/{plan_id}", s.handleDeletePlan).Methods("DELETE")
	router.HandleFunc("/plans/{plan_id}/usage", s.handlePlanUsage).Methods("POST")

	// AI_PLAN_EXECUTION_HISTORY
	router.HandleFunc("/execution-history", s.handleRecordExecution).Methods("POST")
	router.HandleFunc("/execution-history", s.handleExecutionHistory).Methods("GET")
	router.HandleFunc("/execution-history/by-plan/{plan_id}", s.handleHistoryByPlan).Methods("GET")
}
