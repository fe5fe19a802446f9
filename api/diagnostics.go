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

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"eocdb/platform/store"
)

type completeOrderResponse struct {
	Success bool `json:"success"`
	*store.CompleteOrder
}

// handleCompleteOrder handles GET /order-diagnostics/{order_id}
func (s *Server) handleCompleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["order_id"]

	co, err := s.svc.GetCompleteOrder(r.Context(), orderID)
	if err != nil {
		fail(w, r, "Failed to retrieve order data", err)
		return
	}
	if !co.OrderExists {
		writeJSONResponse(w, envelope{
			"success":      false,
			"order_exists": false,
			"order_id":     orderID,
			"error":        fmt.Sprintf("Order %s not found", orderID),
			"timestamp":    time.Now().UTC().Format(time.RFC3339Nano),
		}, http.StatusNotFound)
		return
	}
	writeJSONResponse(w, completeOrderResponse{Success: true, CompleteOrder: co}, http.StatusOK)
}

// handleOrderTimeline handles GET /order-diagnostics/{order_id}/timeline
func (s *Server) handleOrderTimeline(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["order_id"]

	result, err := s.svc.OrderTimeline(r.Context(), orderID)
	if err != nil {
		fail(w, r, "Failed to retrieve order timeline", err)
		return
	}
	body := listResponse("timeline", result.Rows, len(result.Rows))
	body["order_id"] = orderID
	writeJSONResponse(w, body, http.StatusOK)
}

// handleSearchOrders handles POST /order-diagnostics/search
func (s *Server) handleSearchOrders(w http.ResponseWriter, r *http.Request) {
	const failure = "Order search failed"

	var c store.OrderSearch
	if err := decodeBody(w, r, &c); err != nil {
		fail(w, r, failure, err)
		return
	}
	if err := firstError(
		checkLimit(c.Limit, store.MaxLimit),
		checkDates("start_date", c.StartDate),
	); err != nil {
		fail(w, r, failure, err)
		return
	}
	c.Limit = defaultLimit(c.Limit, store.DefaultLimit)

	result, err := s.svc.SearchOrders(r.Context(), c)
	if err != nil {
		fail(w, r, failure, err)
		return
	}
	writeJSONResponse(w, searchResponse("orders", result, c), http.StatusOK)
}

// handleSystemPerformance handles GET /system/performance
func (s *Server) handleSystemPerformance(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.SystemPerformance(r.Context())
	if err != nil {
		fail(w, r, "Failed to retrieve system performance", err)
		return
	}
	writeJSONResponse(w, listResponse("metrics", result.Rows, len(result.Rows)), http.StatusOK)
}
