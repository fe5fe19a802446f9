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
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sijms/go-ora/v2/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eocdb/platform/config"
)

func testDatabaseConfig() *config.DatabaseConfig {
	cfg := config.Default().Database
	cfg.Host = "db.internal"
	cfg.ServiceName = "EOCPRD"
	cfg.Username = "eoc_reader"
	cfg.Password = "p'ss"
	return &cfg
}

func TestDialectFor(t *testing.T) {
	d, err := DialectFor("oracle")
	require.NoError(t, err)
	assert.Equal(t, "oracle", d.DriverName())
	assert.Equal(t, sqlx.NAMED, d.BindType())

	d, err = DialectFor("POSTGRES")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.DriverName())
	assert.Equal(t, sqlx.DOLLAR, d.BindType())

	_, err = DialectFor("sqlite")
	assert.Error(t, err)
}

func TestOracleDSN(t *testing.T) {
	cfg := testDatabaseConfig()

	dsn := Oracle{}.DSN(cfg)
	assert.Contains(t, dsn, "oracle://")
	assert.Contains(t, dsn, "db.internal:1521")
	assert.Contains(t, dsn, "/EOCPRD")
	assert.Contains(t, dsn, "TIMEOUT=30")

	cfg.ServiceName = ""
	cfg.SID = "EOC1"
	dsn = Oracle{}.DSN(cfg)
	assert.Contains(t, dsn, "SID=EOC1")
	assert.NotContains(t, dsn, "EOCPRD")
}

func TestPostgresDSN(t *testing.T) {
	cfg := testDatabaseConfig()
	cfg.Driver = config.DriverPostgres
	cfg.Port = 5432
	cfg.QueryTimeout = 45 * time.Second

	dsn := Postgres{}.DSN(cfg)
	assert.Equal(t,
		`host='db.internal' port=5432 dbname='EOCPRD' user='eoc_reader' password='p\'ss' sslmode=disable connect_timeout=30 statement_timeout=45000`,
		dsn)
}

func TestOracleIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"end of file on channel", &network.OracleError{ErrCode: 3113}, true},
		{"wrapped no listener", fmt.Errorf("query failed: %w", &network.OracleError{ErrCode: 12541}), true},
		{"message only", errors.New("ORA-03135: connection lost contact"), true},
		{"missing table", &network.OracleError{ErrCode: 942, ErrMsg: "ORA-00942: table or view does not exist"}, false},
		{"syntax", errors.New("ORA-00933: SQL command not properly ended"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Oracle{}.IsTransient(tt.err))
		})
	}
}

func TestPostgresIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"connection failure", &pq.Error{Code: "08006"}, true},
		{"statement timeout", &pq.Error{Code: "57014"}, true},
		{"admin shutdown", fmt.Errorf("wrapped: %w", &pq.Error{Code: "57P01"}), true},
		{"deadlock", &pq.Error{Code: "40P01"}, true},
		{"undefined table", &pq.Error{Code: "42P01"}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Postgres{}.IsTransient(tt.err))
		})
	}
}
