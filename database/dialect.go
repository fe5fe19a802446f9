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
	"fmt"
	"strings"

	"eocdb/platform/config"
)

// Dialect isolates what differs between the supported backing stores: the
// database/sql driver, DSN format, placeholder style and which driver errors
// are worth retrying.
type Dialect interface {
	// Name is the DB_DRIVER value that selects this dialect.
	Name() string

	// DriverName is the name registered with database/sql.
	DriverName() string

	// BindType is the sqlx bind style used to rewrite :name placeholders.
	BindType() int

	// DSN builds the driver connection string. The result contains the
	// password and must never be logged.
	DSN(cfg *config.DatabaseConfig) string

	// TestQuery is a statement that returns a single row with the value 1.
	TestQuery() string

	// IsTransient reports whether err is a connection-level failure that a
	// fresh attempt may not hit.
	IsTransient(err error) bool
}

// DialectFor returns the dialect registered for a DB_DRIVER value.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case config.DriverOracle:
		return Oracle{}, nil
	case config.DriverPostgres:
		return Postgres{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// containsAny does a case-insensitive substring match against patterns.
func containsAny(msg string, patterns []string) bool {
	msg = strings.ToLower(msg)
	for _, p := range patterns {
		if strings.Contains(msg, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
