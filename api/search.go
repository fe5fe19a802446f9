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
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"eocdb/platform/query"
	"eocdb/platform/store"
)

// searchResponse is the envelope for POST searches.
func searchResponse(key string, result *query.Result, criteria interface{}) envelope {
	body := listResponse(key, result.Rows, len(result.Rows))
	body["search_criteria"] = criteria
	body["data_truncated"] = result.Truncated
	return body
}

func defaultLimit(limit, def int) int {
	if limit == 0 {
		return def
	}
	return limit
}

// quickSearch serves GET /.../by-<field>/{value} with ?limit and
// ?include_blob_data. The response echoes the value under param.
func quickSearch(key, param, failure string, search func(ctx context.Context, value string, limit int, blobs bool) (*query.Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value := mux.Vars(r)["value"]

		limit, err := queryLimit(r, store.DefaultLimit, store.MaxLimit)
		if err != nil {
			fail(w, r, failure, err)
			return
		}
		blobs, err := queryBool(r, "include_blob_data", false)
		if err != nil {
			fail(w, r, failure, err)
			return
		}

		result, err := search(r.Context(), value, limit, blobs)
		if err != nil {
			fail(w, r, failure, err)
			return
		}
		body := listResponse(key, result.Rows, len(result.Rows))
		body[param] = value
		writeJSONResponse(w, body, http.StatusOK)
	}
}

// getByKey serves a single-row lookup, answering 404 when nothing matches.
func getByKey(w http.ResponseWriter, r *http.Request, key, label, id string, row query.Row, err error) {
	if err != nil {
		fail(w, r, "Failed to retrieve "+strings.ToLower(label), err)
		return
	}
	if row == nil {
		notFound(w, fmt.Sprintf("%s %s not found", label, id))
		return
	}
	writeJSONResponse(w, envelope{
		"success":   true,
		key:         row,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}, http.StatusOK)
}

// handleSearchMessageLogs handles POST /message-logs/search
func (s *Server) handleSearchMessageLogs(w http.ResponseWriter, r *http.Request) {
	const failure = "Message log search failed"

	var f store.MessageLogSearch
	if err := decodeBody(w, r, &f); err != nil {
		fail(w, r, failure, err)
		return
	}
	if err := firstError(
		checkLimit(f.Limit, store.MaxLimit),
		checkDates("start_date", f.StartDate, "end_date", f.EndDate),
	); err != nil {
		fail(w, r, failure, err)
		return
	}
	f.Limit = defaultLimit(f.Limit, store.DefaultLimit)

	result, err := s.svc.SearchMessageLogs(r.Context(), f)
	if err != nil {
		fail(w, r, failure, err)
		return
	}
	writeJSONResponse(w, searchResponse("messages", result, f), http.StatusOK)
}

// handleGetMessageLog handles GET /message-logs/{msgid}. Payloads are included.
func (s *Server) handleGetMessageLog(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["msgid"]
	msgid, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fail(w, r, "", invalid("msgid must be numeric"))
		return
	}
	row, err := s.svc.GetMessageLog(r.Context(), msgid)
	getByKey(w, r, "message", "Message log entry", raw, row, err)
}

func (s *Server) messageLogsByUserData(field string) http.HandlerFunc {
	return quickSearch("messages", field, "Message log search failed",
		func(ctx context.Context, value string, limit int, blobs bool) (*query.Result, error) {
			f := store.MessageLogSearch{Limit: limit, IncludeBlobData: blobs}
			switch field {
			case "user_data1":
				f.UserData1 = value
			case "user_data2":
				f.UserData2 = value
			default:
				f.UserData3 = value
			}
			return s.svc.SearchMessageLogs(ctx, f)
		})
}

// handleSearchOrderHeaders handles POST /orders/search
func (s *Server) handleSearchOrderHeaders(w http.ResponseWriter, r *http.Request) {
	const failure = "Order search failed"

	var f store.OrderHeaderSearch
	if err := decodeBody(w, r, &f); err != nil {
		fail(w, r, failure, err)
		return
	}
	if err := firstError(
		checkLimit(f.Limit, store.MaxLimit),
		checkDates("start_date", f.StartDate, "end_date", f.EndDate),
	); err != nil {
		fail(w, r, failure, err)
		return
	}
	f.Limit = defaultLimit(f.Limit, store.DefaultLimit)

	result, err := s.svc.SearchOrderHeaders(r.Context(), f)
	if err != nil {
		fail(w, r, failure, err)
		return
	}
	writeJSONResponse(w, searchResponse("orders", result, f), http.StatusOK)
}

// handleGetOrderHeader handles GET /orders/{cwdocid}
func (s *Server) handleGetOrderHeader(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["cwdocid"]
	row, err := s.svc.GetOrderHeader(r.Context(), id)
	getByKey(w, r, "order", "Order", id, row, err)
}

func (s *Server) orderHeadersBy(field string) http.HandlerFunc {
	return quickSearch("orders", field, "Order search failed",
		func(ctx context.Context, value string, limit int, blobs bool) (*query.Result, error) {
			f := store.OrderHeaderSearch{Limit: limit, IncludeBlobData: blobs}
			switch field {
			case "cworderid":
				f.CWOrderID = value
			case "omorderid":
				f.OMOrderID = value
			case "telephonenumber":
				f.TelephoneNumber = value
			default:
				f.QuoteID = value
			}
			return s.svc.SearchOrderHeaders(ctx, f)
		})
}

// handleSearchOrderTracking handles POST /order-tracking/search
func (s *Server) handleSearchOrderTracking(w http.ResponseWriter, r *http.Request) {
	const failure = "Order tracking search failed"

	var f store.OrderTrackingSearch
	if err := decodeBody(w, r, &f); err != nil {
		fail(w, r, failure, err)
		return
	}
	if err := firstError(
		checkLimit(f.Limit, store.MaxLimit),
		checkDates("start_date", f.StartDate, "end_date", f.EndDate),
	); err != nil {
		fail(w, r, failure, err)
		return
	}
	f.Limit = defaultLimit(f.Limit, store.DefaultLimit)

	result, err := s.svc.SearchOrderTracking(r.Context(), f)
	if err != nil {
		fail(w, r, failure, err)
		return
	}
	writeJSONResponse(w, searchResponse("tracking_records", result, f), http.StatusOK)
}

// handleTrackingWithErrors handles GET /order-tracking/with-errors
func (s *Server) handleTrackingWithErrors(w http.ResponseWriter, r *http.Request) {
	const failure = "Order tracking search failed"

	limit, err := queryLimit(r, store.DefaultLimit, store.MaxLimit)
	if err != nil {
		fail(w, r, failure, err)
		return
	}
	hasErrors := true
	result, err := s.svc.SearchOrderTracking(r.Context(), store.OrderTrackingSearch{HasErrors: &hasErrors, Limit: limit})
	if err != nil {
		fail(w, r, failure, err)
		return
	}
	body := listResponse("tracking_records", result.Rows, len(result.Rows))
	body["has_errors"] = true
	writeJSONResponse(w, body, http.StatusOK)
}

// handleGetOrderTracking handles GET /order-tracking/{cwdocid}
func (s *Server) handleGetOrderTracking(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["cwdocid"]
	row, err := s.svc.GetOrderTracking(r.Context(), id)
	getByKey(w, r, "tracking", "Order tracking record", id, row, err)
}

func (s *Server) orderTrackingBy(field string) http.HandlerFunc {
	return quickSearch("tracking_records", field, "Order tracking search failed",
		func(ctx context.Context, value string, limit int, blobs bool) (*query.Result, error) {
			f := store.OrderTrackingSearch{Limit: limit, IncludeBlobData: blobs}
			switch field {
			case "cworderid":
				f.CWOrderID = value
			case "orderid":
				f.OrderID = value
			case "workid":
				f.WorkID = value
			case "scaseid":
				f.SCaseID = value
			default:
				f.OrderStatus = value
			}
			return s.svc.SearchOrderTracking(ctx, f)
		})
}

// handleSearchOrderInstances handles POST /order-instances/search
func (s *Server) handleSearchOrderInstances(w http.ResponseWriter, r *http.Request) {
	const failure = "Order instance search failed"

	var f store.OrderInstanceSearch
	if err := decodeBody(w, r, &f); err != nil {
		fail(w, r, failure, err)
		return
	}
	if err := firstError(
		checkLimit(f.Limit, store.MaxLimit),
		checkDates("start_date", f.StartDate, "end_date", f.EndDate),
	); err != nil {
		fail(w, r, failure, err)
		return
	}
	f.Limit = defaultLimit(f.Limit, store.DefaultLimit)

	result, err := s.svc.SearchOrderInstances(r.Context(), f)
	if err != nil {
		fail(w, r, failure, err)
		return
	}
	writeJSONResponse(w, searchResponse("order_instances", result, f), http.StatusOK)
}

// handleGetOrderInstance handles GET /order-instances/{cwdocid}
func (s *Server) handleGetOrderInstance(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["cwdocid"]
	row, err := s.svc.GetOrderInstance(r.Context(), id)
	getByKey(w, r, "order_instance", "Order instance", id, row, err)
}

func (s *Server) orderInstancesBy(field string) http.HandlerFunc {
	return quickSearch("order_instances", field, "Order instance search failed",
		func(ctx context.Context, value string, limit int, blobs bool) (*query.Result, error) {
			f := store.OrderInstanceSearch{Limit: limit, IncludeBlobData: blobs}
			switch field {
			case "customerid":
				f.CustomerID = value
			case "quoteid":
				f.QuoteID = value
			default:
				f.ExternalOrderID = value
			}
			return s.svc.SearchOrderInstances(ctx, f)
		})
}
