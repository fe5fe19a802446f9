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

// Package main is the entry point for the EOC Database API.
//
// The service exposes read access to the EOC order and message-log tables
// and read/write access to troubleshooting plans for diagnostic agents.
//
// Usage:
//
//	./eocdb-api
//
// Environment Variables:
//
//	DB_DRIVER - oracle (default) or postgres
//	ORACLE_HOST, ORACLE_PORT - database address (port default: 1521)
//	ORACLE_SERVICE_NAME or ORACLE_SID - exactly one is required
//	ORACLE_USERNAME, ORACLE_PASSWORD - database credentials
//	ORACLE_PASSWORD_SECRET_ARN - optional AWS Secrets Manager credentials
//	API_HOST, API_PORT - listen address (default: 0.0.0.0:8000)
//	API_KEY - when set, required in the X-API-Key header
//	REDIS_URL - optional shared rate limiter
//	CONFIG_FILE - optional YAML configuration file
package main

import (
	"fmt"
	"os"

	"eocdb/platform/api"
)

func main() {
	if err := api.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
