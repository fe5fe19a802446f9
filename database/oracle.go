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
	"strconv"

	"github.com/jmoiron/sqlx"
	go_ora "github.com/sijms/go-ora/v2" // registers the "oracle" driver
	"github.com/sijms/go-ora/v2/network"

	"eocdb/platform/config"
)

func init() {
	// sqlx only knows the cgo Oracle drivers by name.
	sqlx.BindDriver("oracle", sqlx.NAMED)
}

// Oracle errors raised when the session or the listener is gone.
var oracleTransientCodes = map[int]bool{
	28:    true, // ORA-00028 session killed
	1013:  true, // ORA-01013 user requested cancel
	3113:  true, // ORA-03113 end-of-file on communication channel
	3114:  true, // ORA-03114 not connected to ORACLE
	3135:  true, // ORA-03135 connection lost contact
	12170: true, // ORA-12170 connect timeout
	12537: true, // ORA-12537 connection closed
	12541: true, // ORA-12541 no listener
}

var oracleTransientPatterns = []string{
	"ORA-00028", "ORA-01013", "ORA-03113", "ORA-03114", "ORA-03135",
	"ORA-12170", "ORA-12537", "ORA-12541",
}

// Oracle is the go-ora dialect.
type Oracle struct{}

func (Oracle) Name() string       { return config.DriverOracle }
func (Oracle) DriverName() string { return "oracle" }
func (Oracle) BindType() int      { return sqlx.NAMED }
func (Oracle) TestQuery() string  { return "SELECT 1 FROM DUAL" }

// DSN connects by service name unless a SID is configured.
func (Oracle) DSN(cfg *config.DatabaseConfig) string {
	options := map[string]string{}
	service := cfg.ServiceName
	if cfg.SID != "" {
		service = ""
		options["SID"] = cfg.SID
	}
	if cfg.ConnectionTimeout > 0 {
		options["TIMEOUT"] = strconv.Itoa(int(cfg.ConnectionTimeout.Seconds()))
	}
	return go_ora.BuildUrl(cfg.Host, cfg.Port, service, cfg.Username, cfg.Password, options)
}

func (Oracle) IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var oerr *network.OracleError
	if errors.As(err, &oerr) && oracleTransientCodes[oerr.ErrCode] {
		return true
	}
	return containsAny(err.Error(), oracleTransientPatterns)
}
