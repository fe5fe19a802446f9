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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eocdb/platform/config"
	"eocdb/platform/query/querytest"
	"eocdb/platform/store"
)

func TestSearchMessageLogsEnvelope(t *testing.T) {
	handler, h := newTestServer(t, nil)

	h.Mock.ExpectQuery(`FROM logs\.CWMESSAGELOG WHERE 1=1 AND USER_DATA1 = \$1 ORDER BY`).
		WithArgs("U1", store.DefaultLimit+1).
		WillReturnRows(querytest.Rows("MSGID", "USER_DATA1").AddRow("1", "U1").AddRow("2", "U1"))

	rec := do(t, handler, "POST", "/message-logs/search", `{"user_data1":"U1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["total_found"])
	assert.Len(t, body["messages"], 2)
	assert.Equal(t, false, body["data_truncated"])

	criteria := body["search_criteria"].(map[string]interface{})
	assert.Equal(t, "U1", criteria["user_data1"])
	assert.Equal(t, float64(store.DefaultLimit), criteria["limit"])
	h.ExpectationsWereMet(t)
}

func TestSearchReportsTruncation(t *testing.T) {
	handler, h := newTestServer(t, nil)

	h.Mock.ExpectQuery(`FROM logs\.ORDER_TRACKING_INFO WHERE WORKID = \$1`).WithArgs("W-1", 3).
		WillReturnRows(querytest.Rows("CWDOCID").AddRow("1").AddRow("2").AddRow("3"))

	rec := do(t, handler, "POST", "/order-tracking/search", `{"workid":"W-1","limit":2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, float64(2), body["total_found"])
	assert.Len(t, body["tracking_records"], 2)
	assert.Equal(t, true, body["data_truncated"])
	h.ExpectationsWereMet(t)
}

func TestSearchValidation(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		body    string
		wantErr string
	}{
		{"malformed json", "/message-logs/search", `{"user_data1":`, "Invalid request body"},
		{"limit too large", "/message-logs/search", `{"limit":5000}`, "limit must be between 1 and 1000"},
		{"negative limit", "/orders/search", `{"limit":-1}`, "limit must be between 1 and 1000"},
		{"bad start date", "/order-instances/search", `{"start_date":"2024-01-01"}`, "start_date must use the format YYYY-MM-DDTHH:MM:SS"},
		{"bad end date", "/order-tracking/search", `{"end_date":"01/02/2024 10:00"}`, "end_date must use the format YYYY-MM-DDTHH:MM:SS"},
		{"plan limit", "/plans/search", `{"limit":501}`, "limit must be between 1 and 500"},
		{"success rate", "/plans/search", `{"min_success_rate":1.5}`, "min_success_rate must be between 0 and 1"},
		{"active flag", "/plans/search", `{"is_active":2}`, "is_active must be 0 or 1"},
		{"no diagnostics criteria", "/order-diagnostics/search", `{"status":"FAILED"}`, "Provide customer_id, or status with start_date"},
		{"plan without title", "/plans", `{"goal_type":"g","steps":"[]"}`, "title is required"},
		{"plan without steps", "/plans", `{"goal_type":"g","title":"t"}`, "steps is required"},
		{"plan confidence", "/plans", `{"goal_type":"g","title":"t","steps":"[]","confidence":-0.1}`, "confidence must be between 0 and 1"},
		{"usage without outcome", "/plans/p1/usage", `{}`, "success is required"},
		{"history without plan", "/execution-history", `{"success":true}`, "plan_id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, h := newTestServer(t, nil)

			rec := do(t, handler, "POST", tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Contains(t, body["error"], tt.wantErr)
			assert.NotEmpty(t, body["timestamp"])
			h.ExpectationsWereMet(t)
		})
	}
}

func TestQuickSearchQueryParameters(t *testing.T) {
	handler, h := newTestServer(t, nil)

	h.Mock.ExpectQuery(`^SELECT \* FROM logs\.ORDER_ORDER_HEADER WHERE CWORDERID = \$1`).WithArgs("CW-9", 26).
		WillReturnRows(querytest.Rows("CWDOCID").AddRow("D1"))

	rec := do(t, handler, "GET", "/orders/by-cworderid/CW-9?limit=25&include_blob_data=true", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "CW-9", body["cworderid"])
	assert.Equal(t, float64(1), body["total_found"])

	rec = do(t, handler, "GET", "/orders/by-cworderid/CW-9?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, handler, "GET", "/orders/by-cworderid/CW-9?include_blob_data=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	h.ExpectationsWereMet(t)
}

func TestTrackingWithErrorsIsNotADocumentID(t *testing.T) {
	handler, h := newTestServer(t, nil)

	h.Mock.ExpectQuery(`FROM logs\.ORDER_TRACKING_INFO WHERE \(WFMERRORID IS NOT NULL OR`).
		WithArgs(store.DefaultLimit + 1).
		WillReturnRows(querytest.Rows("CWDOCID"))

	rec := do(t, handler, "GET", "/order-tracking/with-errors", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["has_errors"])
	assert.Equal(t, []interface{}{}, body["tracking_records"])
	h.ExpectationsWereMet(t)
}

func TestGetMessageLog(t *testing.T) {
	handler, h := newTestServer(t, nil)

	h.Mock.ExpectQuery(`FROM logs\.CWMESSAGELOG WHERE MSGID = \$1`).WithArgs(int64(7)).
		WillReturnRows(querytest.TypedRows(querytest.Col("MSGID", "NUMBER"), querytest.Col("SEND_DATA", "BLOB")).
			AddRow(int64(7), []byte("hi")))
	h.Mock.ExpectQuery(`FROM logs\.CWMESSAGELOG WHERE MSGID = \$1`).WithArgs(int64(8)).
		WillReturnRows(querytest.Rows("MSGID"))

	rec := do(t, handler, "GET", "/message-logs/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	message := decode(t, rec)["message"].(map[string]interface{})
	assert.Equal(t, "aGk=", message["send_data"])

	rec = do(t, handler, "GET", "/message-logs/8", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Message log entry 8 not found", decode(t, rec)["error"])
	h.ExpectationsWereMet(t)
}

func TestGetMessageLogRejectsNonNumericID(t *testing.T) {
	h := querytest.New(t)
	s := NewServer(config.Default(), store.NewService(h.Executor, "logs", "plans"))

	req := mux.SetURLVars(httptest.NewRequest("GET", "/message-logs/abc", nil), map[string]string{"msgid": "abc"})
	rec := httptest.NewRecorder()
	s.handleGetMessageLog(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "msgid must be numeric", decode(t, rec)["error"])
	h.ExpectationsWereMet(t)
}

func TestCompleteOrderNotFound(t *testing.T) {
	handler, h := newTestServer(t, nil)

	h.Mock.ExpectQuery(`^SELECT order_id, customer_id, status`).WithArgs("ORD-404").
		WillReturnRows(querytest.Rows("ORDER_ID"))

	rec := do(t, handler, "GET", "/order-diagnostics/ORD-404", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, false, body["order_exists"])
	assert.Equal(t, "ORD-404", body["order_id"])
	h.ExpectationsWereMet(t)
}

func TestDatabaseErrorsAreNotExposed(t *testing.T) {
	handler, h := newTestServer(t, nil)

	h.Mock.ExpectQuery(`FROM plans\.AI_TROUBLESHOOTING_PLANS WHERE PLAN_ID = \$1`).WithArgs("p1").
		WillReturnError(&pq.Error{Code: "42P01", Message: `relation "plans.ai_troubleshooting_plans" does not exist`})

	rec := do(t, handler, "GET", "/plans/p1", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Failed to retrieve plan", body["error"])
	assert.NotContains(t, rec.Body.String(), "relation")
	assert.NotContains(t, rec.Body.String(), "SELECT")
	h.ExpectationsWereMet(t)
}

func TestPoolExhaustionIsServiceUnavailable(t *testing.T) {
	handler, h := newTestServer(t, []querytest.Option{
		querytest.WithMaxConns(1),
		querytest.WithAcquireTimeout(50 * time.Millisecond),
	})

	held, err := h.Pool.Acquire(context.Background())
	require.NoError(t, err)
	defer h.Pool.Release(held)

	rec := do(t, handler, "GET", "/system/performance", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestPlanLifecycle(t *testing.T) {
	handler, h := newTestServer(t, nil)
	planID := store.PlanID("order_analysis", nil)

	h.Mock.ExpectExec(`^INSERT INTO plans\.AI_TROUBLESHOOTING_PLANS`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	rec := do(t, handler, "POST", "/plans", `{"goal_type":"order_analysis","title":"Stuck orders","steps":"[]","confidence":0.9}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, planID, decode(t, rec)["plan_id"])

	h.Mock.ExpectExec(`SET CONFIDENCE = \$1, LAST_UPDATED_DATE = CURRENT_TIMESTAMP WHERE PLAN_ID = \$2`).
		WithArgs(0.95, planID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	rec = do(t, handler, "PUT", "/plans/"+planID, `{"confidence":0.95}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), decode(t, rec)["rows_updated"])

	rec = do(t, handler, "PUT", "/plans/"+planID, `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No fields to update", decode(t, rec)["error"])

	h.Mock.ExpectExec(`SET TOTAL_USAGE = TOTAL_USAGE \+ 1`).WithArgs(1, planID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	rec = do(t, handler, "POST", "/plans/"+planID+"/usage", `{"success":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	h.Mock.ExpectExec(`SET IS_ACTIVE = 0`).WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	rec = do(t, handler, "DELETE", "/plans/missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Plan missing not found", decode(t, rec)["error"])

	h.ExpectationsWereMet(t)
}

func TestPlansByGoalTypeDefaultsToActive(t *testing.T) {
	handler, h := newTestServer(t, nil)

	h.Mock.ExpectQuery(`WHERE GOAL_TYPE = \$1 AND IS_ACTIVE = \$2 ORDER BY LAST_USED_DATE DESC NULLS LAST`).
		WithArgs("order_analysis", 1, store.DefaultPlanLimit+1).
		WillReturnRows(querytest.Rows("PLAN_ID").AddRow("p1"))

	rec := do(t, handler, "GET", "/plans/by-goal-type/order_analysis", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "order_analysis", body["goal_type"])
	assert.Equal(t, float64(1), body["total_found"])

	rec = do(t, handler, "GET", "/plans/by-goal-type/order_analysis?is_active=yes", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	h.ExpectationsWereMet(t)
}

func TestExecutionHistoryRoutes(t *testing.T) {
	handler, h := newTestServer(t, nil)

	h.Mock.ExpectExec(`^INSERT INTO plans\.AI_PLAN_EXECUTION_HISTORY`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	rec := do(t, handler, "POST", "/execution-history", `{"plan_id":"p1","success":true,"execution_time_ms":340}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	h.Mock.ExpectQuery(`WHERE PLAN_ID = \$1 ORDER BY EXECUTION_DATE DESC`).WithArgs("p1", 11).
		WillReturnRows(querytest.Rows("PLAN_ID").AddRow("p1"))
	rec = do(t, handler, "GET", "/execution-history/by-plan/p1?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "p1", decode(t, rec)["plan_id"])

	h.Mock.ExpectQuery(`WHERE ORDER_ID = \$1 ORDER BY EXECUTION_DATE DESC`).WithArgs("ORD-1", store.DefaultPlanLimit+1).
		WillReturnRows(querytest.Rows("PLAN_ID"))
	rec = do(t, handler, "GET", "/execution-history?order_id=ORD-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	criteria := decode(t, rec)["search_criteria"].(map[string]interface{})
	assert.Equal(t, "ORD-1", criteria["order_id"])

	h.ExpectationsWereMet(t)
}
