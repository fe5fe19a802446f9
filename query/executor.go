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

package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"eocdb/platform/database"
	"eocdb/platform/resilience"
	"eocdb/platform/shared/logger"
)

// Statement is one bounded read or write.
type Statement struct {
	// Operation names the statement in logs, metrics and errors.
	Operation string
	SQL       string
	Params    map[string]interface{}
	// Limit caps the rows returned. Zero or anything above the executor's
	// maximum means the maximum.
	Limit int
}

// Executor binds, runs and normalizes statements against the pool. Each call
// leases one connection and releases it before returning.
type Executor struct {
	pool       *database.Pool
	catalog    *Catalog
	maxResults int
	retry      func() *resilience.RetryConfig
	log        *logger.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRetryConfig replaces the read retry policy. The classifier is always
// set by the executor.
func WithRetryConfig(fn func() *resilience.RetryConfig) ExecutorOption {
	return func(e *Executor) { e.retry = fn }
}

// WithExecutorLogger sets the executor logger.
func WithExecutorLogger(l *logger.Logger) ExecutorOption {
	return func(e *Executor) { e.log = l }
}

// NewExecutor creates an executor. maxResults is the hard row cap for every
// read.
func NewExecutor(pool *database.Pool, catalog *Catalog, maxResults int, opts ...ExecutorOption) *Executor {
	if maxResults < 1 {
		maxResults = 5000
	}
	e := &Executor{
		pool:       pool,
		catalog:    catalog,
		maxResults: maxResults,
		retry:      resilience.QueryRetryConfig,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.New("eocdb.query")
	}
	return e
}

// Pool returns the pool the executor leases from.
func (e *Executor) Pool() *database.Pool {
	return e.pool
}

// Run executes a static catalog query. A max_results entry in params sets
// the row limit.
func (e *Executor) Run(ctx context.Context, name string, params map[string]interface{}) (*Result, error) {
	return e.RunTemplate(ctx, name, nil, params)
}

// RunTemplate renders a catalog definition with fragments and executes it.
func (e *Executor) RunTemplate(ctx context.Context, name string, fragments map[string]string, params map[string]interface{}) (*Result, error) {
	def, err := e.catalog.Lookup(name)
	if err != nil {
		return nil, err
	}
	sqlText, err := def.Render(fragments)
	if err != nil {
		return nil, err
	}

	limit := 0
	if v, ok := params[ParamMaxResults].(int); ok {
		limit = v
	}
	return e.Query(ctx, Statement{Operation: name, SQL: sqlText, Params: params, Limit: limit})
}

// Query runs a read with the retry policy and returns the normalized rows.
func (e *Executor) Query(ctx context.Context, st Statement) (*Result, error) {
	limit := e.effectiveLimit(st.Limit)
	requestID := logger.RequestID(ctx)

	sqlText, args, err := e.bind(st, limit)
	if err != nil {
		promQueryErrors.WithLabelValues(st.Operation, "binding").Inc()
		return nil, err
	}

	e.log.Debug(requestID, "Executing query", map[string]interface{}{
		"operation": st.Operation,
		"params":    paramNames(st.Params),
		"limit":     limit,
	})

	cfg := e.retry()
	cfg.RetryIf = resilience.TransientClassifier(ctx, e.pool.Dialect().IsTransient)
	cfg.OnRetry = e.onRetry(requestID, st.Operation)

	start := time.Now()
	result, err := resilience.RetryWithBackoff(ctx, cfg, func() (*Result, error) {
		return e.queryOnce(ctx, sqlText, args, limit)
	})
	elapsed := time.Since(start)
	promQueryDuration.WithLabelValues(st.Operation).Observe(float64(elapsed.Milliseconds()))

	if err != nil {
		return nil, e.fail(requestID, "Query", st.Operation, err)
	}

	if result.Truncated {
		promQueryTruncated.WithLabelValues(st.Operation).Inc()
		e.log.Warn(requestID, "Query hit result limit", map[string]interface{}{
			"operation": st.Operation,
			"limit":     limit,
		})
	}
	e.log.InfoWithDuration(requestID, "Query completed", elapsed, map[string]interface{}{
		"operation": st.Operation,
		"rows":      len(result.Rows),
	})
	return result, nil
}

// QueryOne runs a read limited to one row and returns it, or nil when the
// statement matched nothing.
func (e *Executor) QueryOne(ctx context.Context, st Statement) (Row, error) {
	st.Limit = 1
	result, err := e.Query(ctx, st)
	if err != nil {
		return nil, err
	}
	return result.First(), nil
}

// Exec runs a write and returns the affected row count. Writes are retried
// only when the driver refused the connection before sending the statement.
func (e *Executor) Exec(ctx context.Context, st Statement) (int64, error) {
	requestID := logger.RequestID(ctx)

	sqlText, args, err := e.bind(st, 0)
	if err != nil {
		promQueryErrors.WithLabelValues(st.Operation, "binding").Inc()
		return 0, err
	}

	cfg := e.retry()
	cfg.RetryIf = resilience.IsBadConn
	cfg.OnRetry = e.onRetry(requestID, st.Operation)

	start := time.Now()
	affected, err := resilience.RetryWithBackoff(ctx, cfg, func() (int64, error) {
		conn, err := e.acquire(ctx)
		if err != nil {
			return 0, err
		}
		defer e.pool.Release(conn)

		res, err := conn.ExecContext(ctx, sqlText, args...)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	})
	elapsed := time.Since(start)
	promQueryDuration.WithLabelValues(st.Operation).Observe(float64(elapsed.Milliseconds()))

	if err != nil {
		return 0, e.fail(requestID, "Exec", st.Operation, err)
	}

	e.log.InfoWithDuration(requestID, "Statement executed", elapsed, map[string]interface{}{
		"operation":     st.Operation,
		"rows_affected": affected,
	})
	return affected, nil
}

func (e *Executor) queryOnce(ctx context.Context, sqlText string, args []interface{}, limit int) (*Result, error) {
	conn, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer e.pool.Release(conn)

	rows, err := conn.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	// LOBs are read in full here, before the connection goes back.
	return Normalize(rows, limit)
}

// acquire leases a connection. Pool exhaustion and shutdown are never retried.
func (e *Executor) acquire(ctx context.Context) (*database.Conn, error) {
	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		if errors.Is(err, database.ErrPoolExhausted) || errors.Is(err, database.ErrPoolClosed) {
			return nil, &resilience.NonRetryableError{Err: err}
		}
		return nil, err
	}
	return conn, nil
}

func (e *Executor) effectiveLimit(requested int) int {
	if requested <= 0 || requested > e.maxResults {
		return e.maxResults
	}
	return requested
}

// bind checks every placeholder has a value and rewrites the statement into
// the dialect's bind style. A non-zero limit is bound as max_results with one
// extra row so Normalize can tell whether the result was cut short.
func (e *Executor) bind(st Statement, limit int) (string, []interface{}, error) {
	params := make(map[string]interface{}, len(st.Params)+1)
	for k, v := range st.Params {
		params[k] = v
	}

	names := placeholderNames(st.SQL)
	for _, name := range names {
		if name == ParamMaxResults && limit > 0 {
			params[ParamMaxResults] = limit + 1
			continue
		}
		if _, ok := params[name]; !ok {
			return "", nil, fmt.Errorf("%w: %s requires parameter %q", ErrBinding, st.Operation, name)
		}
	}

	sqlText, args, err := sqlx.BindNamed(e.pool.Dialect().BindType(), st.SQL, params)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s: malformed statement", ErrBinding, st.Operation)
	}
	return sqlText, args, nil
}

func (e *Executor) onRetry(requestID, operation string) func(int, error, time.Duration) {
	return func(attempt int, err error, wait time.Duration) {
		promQueryRetries.WithLabelValues(operation).Inc()
		e.log.Warn(requestID, "Retrying statement after transient failure", map[string]interface{}{
			"operation": operation,
			"attempt":   attempt,
			"wait_ms":   wait.Milliseconds(),
			"error":     err.Error(),
		})
	}
}

func (e *Executor) fail(requestID, op, operation string, err error) error {
	kind := errorKind(err)
	promQueryErrors.WithLabelValues(operation, kind).Inc()
	e.log.Error(requestID, "Statement failed", map[string]interface{}{
		"operation": operation,
		"kind":      kind,
		"error":     err.Error(),
	})
	return database.NewOperationError(op, operation, "statement failed", err)
}

func errorKind(err error) string {
	var retryErr *resilience.RetryError
	switch {
	case errors.Is(err, database.ErrPoolExhausted):
		return "pool_exhausted"
	case errors.Is(err, database.ErrPoolClosed):
		return "pool_closed"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &retryErr):
		return "transient"
	}
	return "database"
}

// paramNames lists parameter names without their values.
func paramNames(params map[string]interface{}) string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
