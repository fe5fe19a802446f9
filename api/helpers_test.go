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

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"eocdb/platform/config"
	"eocdb/platform/query/querytest"
	"eocdb/platform/store"
)

type testOption func(*config.Config, *[]ServerOption)

func withAPIKey(key string) testOption {
	return func(c *config.Config, _ *[]ServerOption) { c.API.APIKey = key }
}

func withTestLimiter(l Limiter) testOption {
	return func(_ *config.Config, opts *[]ServerOption) { *opts = append(*opts, WithLimiter(l)) }
}

// newTestServer wires a Server to a sqlmock-backed service. The database
// settings validate so the configuration health check passes.
func newTestServer(t *testing.T, hopts []querytest.Option, opts ...testOption) (http.Handler, *querytest.Harness) {
	t.Helper()

	h := querytest.New(t, hopts...)
	cfg := config.Default()
	cfg.Database.Host = "db.internal"
	cfg.Database.ServiceName = "EOCPDB"
	cfg.Database.Username = "eoc_reader"
	cfg.Database.Password = "secret"

	var serverOpts []ServerOption
	for _, opt := range opts {
		opt(cfg, &serverOpts)
	}

	svc := store.NewService(h.Executor, "logs", "plans", store.WithFanout(2))
	return NewServer(cfg, svc, serverOpts...).Handler(), h
}

func do(t *testing.T, handler http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}
