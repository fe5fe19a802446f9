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

package store

import (
	"context"
	"errors"
	"fmt"

	"eocdb/platform/database"
	"eocdb/platform/query"
)

// RequiredTables are the order tables the diagnostics catalog reads.
var RequiredTables = []string{
	"orders",
	"payments",
	"shipping",
	"inventory_reservations",
	"customers",
	"audit_log",
	"error_log",
}

// Table probe results.
const (
	TableExists  = "exists"
	TableMissing = "missing"
)

// TestConnection runs the dialect's test statement on a pooled connection.
func (s *Service) TestConnection(ctx context.Context) error {
	return s.exec.Pool().Ping(ctx)
}

// PoolStats reports the pool state.
func (s *Service) PoolStats() database.Stats {
	return s.exec.Pool().Stats()
}

// CheckTables probes each required table with a one-row read. A table that
// cannot be read is reported missing. Pool failures are returned instead, as
// they say nothing about the tables.
func (s *Service) CheckTables(ctx context.Context) (map[string]string, error) {
	status := make(map[string]string, len(RequiredTables))
	for _, name := range RequiredTables {
		_, err := s.exec.Query(ctx, query.Statement{
			Operation: "table_probe",
			SQL:       fmt.Sprintf("SELECT 1 FROM %s.%s FETCH FIRST 1 ROWS ONLY", s.logSchema, name),
			Limit:     1,
		})
		switch {
		case err == nil:
			status[name] = TableExists
		case IsUnavailable(err) || ctx.Err() != nil:
			return nil, err
		default:
			status[name] = TableMissing
		}
	}
	return status, nil
}

// IsUnavailable reports whether err means no connection could be had, as
// opposed to a failed statement.
func IsUnavailable(err error) bool {
	return errors.Is(err, database.ErrPoolExhausted) || errors.Is(err, database.ErrPoolClosed)
}
