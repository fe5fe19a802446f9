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

package query_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eocdb/platform/database"
	"eocdb/platform/query"
	"eocdb/platform/query/querytest"
	"eocdb/platform/resilience"
)

func TestRunBindsLimitPlusOne(t *testing.T) {
	h := querytest.New(t, querytest.WithMaxResults(100))

	h.Mock.ExpectQuery(`FROM logs\.audit_log WHERE order_id = \$1 ORDER BY performed_at DESC FETCH FIRST \$2 ROWS ONLY`).
		WithArgs("ORD-1", 11).
		WillReturnRows(querytest.Rows("LOG_ID", "ORDER_ID").AddRow("L1", "ORD-1"))

	result, err := h.Executor.Run(context.Background(), query.AuditTrail, map[string]interface{}{
		"order_id":            "ORD-1",
		query.ParamMaxResults: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"log_id", "order_id"}, result.Columns)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "L1", result.Rows[0].String("log_id"))
	assert.False(t, result.Truncated)
	h.ExpectationsWereMet(t)
}

func TestRunCapsAtMaxResults(t *testing.T) {
	h := querytest.New(t, querytest.WithMaxResults(2))

	h.Mock.ExpectQuery(`FROM logs\.orders WHERE customer_id = \$1`).
		WithArgs("C-1", 3).
		WillReturnRows(querytest.Rows("ORDER_ID").AddRow("A").AddRow("B").AddRow("C"))

	result, err := h.Executor.Run(context.Background(), query.SearchOrdersByCustomer, map[string]interface{}{
		"customer_id":         "C-1",
		query.ParamMaxResults: 500,
	})
	require.NoError(t, err)

	assert.Len(t, result.Rows, 2)
	assert.True(t, result.Truncated)
	h.ExpectationsWereMet(t)
}

func TestRunMissingParameterFailsBeforeAcquire(t *testing.T) {
	h := querytest.New(t)

	_, err := h.Executor.Run(context.Background(), query.SearchOrdersByStatus, map[string]interface{}{
		"status": "secret-status-value",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, query.ErrBinding))
	assert.Contains(t, err.Error(), "start_date")
	assert.NotContains(t, err.Error(), "secret-status-value")

	assert.False(t, h.Pool.Stats().Initialized)
	h.ExpectationsWereMet(t)
}

func TestRunUnknownQuery(t *testing.T) {
	h := querytest.New(t)

	_, err := h.Executor.Run(context.Background(), "no_such_query", nil)
	assert.True(t, errors.Is(err, query.ErrUnknownQuery))
}

func TestRunTemplate(t *testing.T) {
	h := querytest.New(t)

	b := query.NewBuilder().
		Equal("ORDER_ID", "order_id", "ORD-7").
		Range(query.SlotDateFilter, "CREATION_TIME", "2024-01-01T00:00:00", "")
	params := b.Params()
	params[query.ParamMaxResults] = 5

	h.Mock.ExpectQuery(`FROM logs\.CWMESSAGELOG WHERE 1=1 AND ORDER_ID = \$1 AND CREATION_TIME >= TO_TIMESTAMP\(\$2, 'YYYY-MM-DD"T"HH24:MI:SS'\) ORDER BY CREATION_TIME DESC FETCH FIRST \$3 ROWS ONLY`).
		WithArgs("ORD-7", "2024-01-01T00:00:00", 6).
		WillReturnRows(querytest.Rows("MSGID"))

	result, err := h.Executor.RunTemplate(context.Background(), query.SearchMessageLogs, b.Slots(), params)
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
	h.ExpectationsWereMet(t)
}

func TestQueryRetriesTransientErrors(t *testing.T) {
	h := querytest.New(t)

	for i := 0; i < 3; i++ {
		h.Mock.ExpectQuery(`FROM logs\.orders`).
			WillReturnError(&pq.Error{Code: "08006", Message: "connection failure"})
	}

	_, err := h.Executor.Run(context.Background(), query.OrderStatus, map[string]interface{}{"order_id": "ORD-1"})
	require.Error(t, err)

	var retryErr *resilience.RetryError
	require.True(t, errors.As(err, &retryErr))
	assert.Equal(t, 3, retryErr.Attempts)

	var opErr *database.OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, query.OrderStatus, opErr.Key)
	h.ExpectationsWereMet(t)
}

func TestQueryRecoversAfterTransientError(t *testing.T) {
	h := querytest.New(t)

	h.Mock.ExpectQuery(`FROM logs\.orders`).
		WillReturnError(&pq.Error{Code: "57P01", Message: "terminating connection due to administrator command"})
	h.Mock.ExpectQuery(`FROM logs\.orders`).
		WillReturnRows(querytest.Rows("ORDER_ID").AddRow("ORD-1"))

	result, err := h.Executor.Run(context.Background(), query.OrderStatus, map[string]interface{}{"order_id": "ORD-1"})
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", result.First().String("order_id"))
	h.ExpectationsWereMet(t)
}

func TestQueryDoesNotRetryPermanentErrors(t *testing.T) {
	h := querytest.New(t)

	h.Mock.ExpectQuery(`FROM logs\.orders`).
		WillReturnError(&pq.Error{Code: "42601", Message: "syntax error"})

	_, err := h.Executor.Run(context.Background(), query.OrderStatus, map[string]interface{}{"order_id": "ORD-1"})
	require.Error(t, err)

	var retryErr *resilience.RetryError
	assert.False(t, errors.As(err, &retryErr))
	var pqErr *pq.Error
	assert.True(t, errors.As(err, &pqErr))
	h.ExpectationsWereMet(t)
}

func TestQueryDoesNotRetryPoolExhaustion(t *testing.T) {
	h := querytest.New(t, querytest.WithMaxConns(1), querytest.WithAcquireTimeout(50*time.Millisecond))
	ctx := context.Background()

	held, err := h.Pool.Acquire(ctx)
	require.NoError(t, err)
	defer h.Pool.Release(held)

	start := time.Now()
	_, err = h.Executor.Run(ctx, query.OrderStatus, map[string]interface{}{"order_id": "ORD-1"})
	require.Error(t, err)

	assert.True(t, errors.Is(err, database.ErrPoolExhausted))
	var retryErr *resilience.RetryError
	assert.False(t, errors.As(err, &retryErr))
	assert.Less(t, time.Since(start), time.Second)
}

func TestQueryCallerCancelled(t *testing.T) {
	h := querytest.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Executor.Run(ctx, query.OrderStatus, map[string]interface{}{"order_id": "ORD-1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestQueryOne(t *testing.T) {
	h := querytest.New(t)
	st := query.Statement{
		Operation: "probe",
		SQL:       "SELECT * FROM logs.T WHERE ID = :id",
		Params:    map[string]interface{}{"id": "x"},
	}

	h.Mock.ExpectQuery(`FROM logs\.T WHERE ID = \$1`).WithArgs("x").WillReturnRows(querytest.Rows("ID"))
	row, err := h.Executor.QueryOne(context.Background(), st)
	require.NoError(t, err)
	assert.Nil(t, row)

	h.Mock.ExpectQuery(`FROM logs\.T WHERE ID = \$1`).WithArgs("x").
		WillReturnRows(querytest.Rows("ID").AddRow("x").AddRow("y"))
	row, err = h.Executor.QueryOne(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, "x", row.String("id"))
	h.ExpectationsWereMet(t)
}

func TestExec(t *testing.T) {
	h := querytest.New(t)

	h.Mock.ExpectExec(`UPDATE plans\.T SET IS_ACTIVE = 0 WHERE PLAN_ID = \$1`).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := h.Executor.Exec(context.Background(), query.Statement{
		Operation: "deactivate",
		SQL:       "UPDATE plans.T SET IS_ACTIVE = 0 WHERE PLAN_ID = :plan_id",
		Params:    map[string]interface{}{"plan_id": "p1"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	h.ExpectationsWereMet(t)
}

func TestExecDoesNotRetryStatementErrors(t *testing.T) {
	h := querytest.New(t)

	h.Mock.ExpectExec(`INSERT INTO plans\.T`).
		WillReturnError(&pq.Error{Code: "08006", Message: "connection failure"})

	_, err := h.Executor.Exec(context.Background(), query.Statement{
		Operation: "insert",
		SQL:       "INSERT INTO plans.T (ID) VALUES (:id)",
		Params:    map[string]interface{}{"id": "p1"},
	})
	require.Error(t, err)
	h.ExpectationsWereMet(t)
}

func TestConcurrentQueriesReleaseConnections(t *testing.T) {
	h := querytest.New(t, querytest.WithMaxConns(2))
	h.Mock.MatchExpectationsInOrder(false)

	const n = 10
	for i := 0; i < n; i++ {
		h.Mock.ExpectQuery(`FROM logs\.orders`).WillReturnRows(querytest.Rows("ORDER_ID").AddRow("ORD"))
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Executor.Run(context.Background(), query.OrderStatus, map[string]interface{}{"order_id": "ORD"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	stats := h.Pool.Stats()
	assert.LessOrEqual(t, stats.Open, 2)
	assert.Equal(t, 0, stats.InUse)
}
