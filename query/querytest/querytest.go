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

// Package querytest wires a query.Executor to sqlmock for tests in other
// packages. Statements are rebound in the postgres style, so expectations see
// $1, $2, ... placeholders.
package querytest

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"eocdb/platform/database"
	"eocdb/platform/query"
	"eocdb/platform/resilience"
)

// Harness holds a mocked pool and the executor built on it.
type Harness struct {
	Mock     sqlmock.Sqlmock
	Pool     *database.Pool
	Executor *query.Executor
}

type settings struct {
	schema     string
	maxResults int
	maxConns   int
	acquire    time.Duration
	statement  time.Duration
}

// Option adjusts the harness.
type Option func(*settings)

// WithSchema sets the catalog schema (default "logs").
func WithSchema(schema string) Option {
	return func(s *settings) { s.schema = schema }
}

// WithMaxResults sets the executor's row cap (default 5000).
func WithMaxResults(n int) Option {
	return func(s *settings) { s.maxResults = n }
}

// WithMaxConns sets the pool maximum (default 4).
func WithMaxConns(n int) Option {
	return func(s *settings) { s.maxConns = n }
}

// WithAcquireTimeout sets the pool acquire timeout (default 1s).
func WithAcquireTimeout(d time.Duration) Option {
	return func(s *settings) { s.acquire = d }
}

// WithStatementTimeout sets the per-statement timeout (default none).
func WithStatementTimeout(d time.Duration) Option {
	return func(s *settings) { s.statement = d }
}

// New builds a harness. The pool keeps one idle connection so the single
// sqlmock connection stays open for the life of the test.
func New(t *testing.T, opts ...Option) *Harness {
	t.Helper()

	s := settings{schema: "logs", maxResults: 5000, maxConns: 4, acquire: time.Second}
	for _, opt := range opts {
		opt(&s)
	}

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	pool := database.NewPool(database.Postgres{}, "sqlmock", database.PoolConfig{
		Min:              1,
		Max:              s.maxConns,
		AcquireTimeout:   s.acquire,
		StatementTimeout: s.statement,
	}, database.WithOpener(func(string, string) (*sql.DB, error) { return db, nil }))

	exec := query.NewExecutor(pool, query.NewCatalog(s.schema), s.maxResults, query.WithRetryConfig(FastRetry))

	return &Harness{Mock: mock, Pool: pool, Executor: exec}
}

// ExpectationsWereMet fails the test on unmet sqlmock expectations.
func (h *Harness) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	if err := h.Mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

// FastRetry is the read policy shape with millisecond waits.
func FastRetry() *resilience.RetryConfig {
	return &resilience.RetryConfig{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     4 * time.Millisecond,
		Multiplier:      2.0,
	}
}

// Rows returns mock rows whose columns all report a VARCHAR2 type.
// Normalize reads column types, so plain sqlmock.NewRows cannot be used.
func Rows(columns ...string) *sqlmock.Rows {
	defs := make([]*sqlmock.Column, len(columns))
	for i, name := range columns {
		defs[i] = sqlmock.NewColumn(name).OfType("VARCHAR2", "")
	}
	return sqlmock.NewRowsWithColumnDefinition(defs...)
}

// Col describes a typed mock column, e.g. Col("SEND_DATA", "BLOB").
func Col(name, dbType string) *sqlmock.Column {
	var sample interface{}
	switch dbType {
	case "BLOB", "RAW", "BYTEA":
		sample = []byte{}
	case "DATE", "TIMESTAMP":
		sample = time.Time{}
	case "NUMBER":
		sample = float64(0)
	default:
		sample = ""
	}
	return sqlmock.NewColumn(name).OfType(dbType, sample)
}

// TypedRows returns mock rows with explicit column types.
func TypedRows(columns ...*sqlmock.Column) *sqlmock.Rows {
	return sqlmock.NewRowsWithColumnDefinition(columns...)
}
