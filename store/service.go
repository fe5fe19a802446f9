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

// Package store implements the EOC data operations on top of the query
// executor: order diagnostics, message log and CW order searches,
// troubleshooting plans, execution history and health probes.
package store

import (
	"context"
	"errors"
	"fmt"

	"eocdb/platform/query"
	"eocdb/platform/shared/logger"
)

var (
	// ErrInvalidCriteria is returned when a search has no usable filter
	// combination.
	ErrInvalidCriteria = errors.New("invalid search criteria")

	// ErrNoFieldsToUpdate is returned by UpdatePlan when the update is empty.
	ErrNoFieldsToUpdate = errors.New("no fields to update")
)

// Row limits.
const (
	DefaultLimit     = 100
	MaxLimit         = 1000
	DefaultPlanLimit = 50
	MaxPlanLimit     = 500
)

// Service runs the domain operations. It holds no per-request state.
type Service struct {
	exec       *query.Executor
	logSchema  string
	planSchema string
	fanout     int
	log        *logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithFanout bounds the concurrent statements of one aggregate fetch.
func WithFanout(n int) Option {
	return func(s *Service) { s.fanout = n }
}

// WithLogger sets the service logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a service. logSchema must match the schema the
// executor's catalog was built with.
func NewService(exec *query.Executor, logSchema, planSchema string, opts ...Option) *Service {
	s := &Service{
		exec:       exec,
		logSchema:  logSchema,
		planSchema: planSchema,
		fanout:     4,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fanout < 1 {
		s.fanout = 1
	}
	if s.log == nil {
		s.log = logger.New("eocdb.store")
	}
	return s
}

// table describes a CW table searched through the builder.
type table struct {
	name    string
	columns string // select list without LOB columns
	orderBy string
}

// search runs a builder search over t, newest first.
func (s *Service) search(ctx context.Context, operation string, t table, b *query.Builder, limit int, includeBlobs bool) (*query.Result, error) {
	cols := t.columns
	if includeBlobs {
		cols = "*"
	}
	sqlText := fmt.Sprintf("SELECT %s FROM %s.%s WHERE %s ORDER BY %s DESC %s",
		cols, s.logSchema, t.name, b.Where(), t.orderBy, query.FetchFirst)

	return s.exec.Query(ctx, query.Statement{
		Operation: operation,
		SQL:       sqlText,
		Params:    b.Params(),
		Limit:     query.ClampLimit(limit, DefaultLimit, MaxLimit),
	})
}

// getByDocID reads one row of t by primary key, LOB columns included. It
// returns nil when no row matches.
func (s *Service) getByDocID(ctx context.Context, operation string, t table, cwdocid string) (query.Row, error) {
	return s.exec.QueryOne(ctx, query.Statement{
		Operation: operation,
		SQL:       fmt.Sprintf("SELECT * FROM %s.%s WHERE CWDOCID = :cwdocid", s.logSchema, t.name),
		Params:    map[string]interface{}{"cwdocid": cwdocid},
	})
}

// nullable turns an optional value into a bind value, nil meaning NULL.
func nullable[T any](v *T) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
