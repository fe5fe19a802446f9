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
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"eocdb/platform/database"
	"eocdb/platform/shared/logger"
	"eocdb/platform/store"
)

// envelope is a response body. Every envelope carries "success".
type envelope map[string]interface{}

// writeJSONResponse writes a JSON response with the given status code
func writeJSONResponse(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		apiLog.Warn("", "Error encoding response", map[string]interface{}{"error": err.Error()})
	}
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONResponse(w, envelope{
		"success":   false,
		"error":     message,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}, statusCode)
}

// fail maps a service error onto a response. Unexpected errors are logged
// with the request id and answered with message, never with the cause.
func fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	requestID := logger.RequestID(r.Context())

	var verr *validationError
	switch {
	case errors.As(err, &verr):
		writeJSONError(w, verr.msg, http.StatusBadRequest)
	case errors.Is(err, database.ErrPoolExhausted), errors.Is(err, database.ErrPoolClosed):
		apiLog.Warn(requestID, "Database unavailable", map[string]interface{}{
			"path":  r.URL.Path,
			"error": err.Error(),
		})
		w.Header().Set("Retry-After", "1")
		writeJSONError(w, "Database temporarily unavailable", http.StatusServiceUnavailable)
	case errors.Is(err, store.ErrNoFieldsToUpdate):
		writeJSONError(w, "No fields to update", http.StatusBadRequest)
	case errors.Is(err, store.ErrInvalidCriteria):
		writeJSONError(w, "Provide customer_id, or status with start_date", http.StatusBadRequest)
	default:
		apiLog.ErrorWithCode(requestID, message, http.StatusInternalServerError, err, map[string]interface{}{
			"path": r.URL.Path,
		})
		writeJSONError(w, message, http.StatusInternalServerError)
	}
}

func notFound(w http.ResponseWriter, message string) {
	writeJSONError(w, message, http.StatusNotFound)
}

func listResponse(key string, rows interface{}, count int) envelope {
	return envelope{
		"success":     true,
		key:           rows,
		"total_found": count,
	}
}
