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

package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq" // PostgreSQL driver

	"eocdb/platform/config"
)

var pgTransientCodes = map[pq.ErrorCode]bool{
	"57014": true, // query_canceled
	"57P01": true, // admin_shutdown
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
}

// Postgres is the lib/pq dialect.
type Postgres struct{}

func (Postgres) Name() string       { return config.DriverPostgres }
func (Postgres) DriverName() string { return "postgres" }
func (Postgres) BindType() int      { return sqlx.DOLLAR }
func (Postgres) TestQuery() string  { return "SELECT 1" }

// DSN uses the key/value form. statement_timeout is not a libpq keyword, so
// lib/pq forwards it to the server as a run-time parameter.
func (Postgres) DSN(cfg *config.DatabaseConfig) string {
	parts := []string{
		"host=" + quoteDSNValue(cfg.Host),
		fmt.Sprintf("port=%d", cfg.Port),
		"dbname=" + quoteDSNValue(cfg.ServiceName),
		"user=" + quoteDSNValue(cfg.Username),
		"password=" + quoteDSNValue(cfg.Password),
	}
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	parts = append(parts, "sslmode="+sslmode)
	if cfg.ConnectionTimeout > 0 {
		parts = append(parts, fmt.Sprintf("connect_timeout=%d", int(cfg.ConnectionTimeout.Seconds())))
	}
	if cfg.QueryTimeout > 0 {
		parts = append(parts, fmt.Sprintf("statement_timeout=%d", cfg.QueryTimeout.Milliseconds()))
	}
	return strings.Join(parts, " ")
}

func (Postgres) IsTransient(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	// class 08: connection exception
	return pqErr.Code.Class() == "08" || pgTransientCodes[pqErr.Code]
}

func quoteDSNValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
