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
	"net/http"
	"time"

	"eocdb/platform/shared/logger"
	"eocdb/platform/store"
)

// Health check states.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

func (s *Server) uptime() float64 {
	return time.Since(s.started).Seconds()
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	connected := s.svc.TestConnection(r.Context()) == nil

	writeJSONResponse(w, envelope{
		"success":            true,
		"service":            s.cfg.API.Title,
		"version":            s.cfg.API.Version,
		"database_connected": connected,
		"uptime_seconds":     s.uptime(),
	}, http.StatusOK)
}

// handleComprehensiveHealth handles GET /health/comprehensive. The overall
// status is healthy when every check is, unhealthy when any check is, and
// degraded otherwise.
func (s *Server) handleComprehensiveHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]envelope{
		"configuration":       s.checkConfiguration(),
		"database_connection": s.checkConnection(r),
		"database_tables":     s.checkTables(r),
	}

	writeJSONResponse(w, envelope{
		"overall_status": overallStatus(checks),
		"timestamp":      time.Now().UTC().Format(time.RFC3339Nano),
		"uptime_seconds": s.uptime(),
		"checks":         checks,
	}, http.StatusOK)
}

func overallStatus(checks map[string]envelope) string {
	overall := statusHealthy
	for _, check := range checks {
		switch check["status"] {
		case statusHealthy:
		case statusUnhealthy:
			return statusUnhealthy
		default:
			overall = statusDegraded
		}
	}
	return overall
}

func (s *Server) checkConfiguration() envelope {
	status := statusHealthy
	valid := s.cfg.IsReady()
	if !valid {
		status = statusUnhealthy
	}
	return envelope{
		"status":              status,
		"configuration_valid": valid,
		"database_info":       s.cfg.DatabaseInfo(),
		"api_info": envelope{
			"host":               s.cfg.API.Host,
			"port":               s.cfg.API.Port,
			"environment":        s.cfg.API.Environment,
			"api_key_configured": s.cfg.API.APIKey != "",
		},
	}
}

func (s *Server) checkConnection(r *http.Request) envelope {
	check := envelope{"status": statusHealthy, "connection_test": "passed"}
	if err := s.svc.TestConnection(r.Context()); err != nil {
		apiLog.Warn(logger.RequestID(r.Context()), "Health connection test failed", map[string]interface{}{
			"error": err.Error(),
		})
		check = envelope{"status": statusUnhealthy, "connection_test": "failed"}
	}
	stats := s.svc.PoolStats()
	check["pool_initialized"] = stats.Initialized
	check["pool"] = stats
	return check
}

func (s *Server) checkTables(r *http.Request) envelope {
	tables, err := s.svc.CheckTables(r.Context())
	if err != nil {
		apiLog.Warn(logger.RequestID(r.Context()), "Health table check failed", map[string]interface{}{
			"error": err.Error(),
		})
		return envelope{"status": statusUnhealthy, "error": "table check failed"}
	}

	all := true
	for _, state := range tables {
		if state != store.TableExists {
			all = false
			break
		}
	}
	status := statusHealthy
	if !all {
		status = statusDegraded
	}
	return envelope{
		"status":           status,
		"tables":           tables,
		"all_tables_exist": all,
	}
}

// handleTestDB handles GET /test-db
func (s *Server) handleTestDB(w http.ResponseWriter, r *http.Request) {
	success, message := true, "Database connection successful"
	if err := s.svc.TestConnection(r.Context()); err != nil {
		apiLog.Warn(logger.RequestID(r.Context()), "Database test failed", map[string]interface{}{
			"error": err.Error(),
		})
		success, message = false, "Database connection failed"
	}

	writeJSONResponse(w, envelope{
		"success":                success,
		"message":                message,
		"connection_pool_status": s.svc.PoolStats(),
	}, http.StatusOK)
}
