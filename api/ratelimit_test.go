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
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLimiter(t *testing.T, limit int) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rl, err := NewRedisLimiter(context.Background(), "redis://"+mr.Addr(), limit, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rl.Close() })
	return rl, mr
}

func TestRedisLimiter(t *testing.T) {
	rl, mr := newTestRedisLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(ctx, "ip:10.0.0.1"), "request %d", i+1)
	}
	assert.False(t, rl.Allow(ctx, "ip:10.0.0.1"))
	assert.True(t, rl.Allow(ctx, "ip:10.0.0.2"))

	assert.True(t, mr.Exists("eocdb:ratelimit:ip:10.0.0.1"))
	assert.Greater(t, mr.TTL("eocdb:ratelimit:ip:10.0.0.1"), time.Duration(0))
}

func TestRedisLimiterFailsOpen(t *testing.T) {
	rl, mr := newTestRedisLimiter(t, 1)
	ctx := context.Background()

	assert.True(t, rl.Allow(ctx, "ip:10.0.0.1"))
	assert.False(t, rl.Allow(ctx, "ip:10.0.0.1"))

	mr.Close()
	assert.True(t, rl.Allow(ctx, "ip:10.0.0.1"))
}

func TestNewRedisLimiterErrors(t *testing.T) {
	_, err := NewRedisLimiter(context.Background(), "http://localhost:6379", 1, time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse Redis URL")

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = NewRedisLimiter(context.Background(), "redis://"+addr, 1, time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestLocalLimiter(t *testing.T) {
	l := NewLocalLimiter(2, time.Hour)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "a"))
	assert.True(t, l.Allow(ctx, "a"))
	assert.False(t, l.Allow(ctx, "a"))
	assert.True(t, l.Allow(ctx, "b"))
}

func TestLocalLimiterSweepsIdleClients(t *testing.T) {
	l := NewLocalLimiter(1, time.Minute)
	l.clients["stale"] = &localEntry{lastSeen: time.Now().Add(-2 * time.Minute)}
	l.clients["fresh"] = &localEntry{lastSeen: time.Now()}

	l.sweep(time.Now())
	assert.NotContains(t, l.clients, "stale")
	assert.Contains(t, l.clients, "fresh")
}

func TestRateLimitMiddleware(t *testing.T) {
	handler, _ := newTestServer(t, nil, withTestLimiter(NewLocalLimiter(2, time.Hour)))

	// Empty diagnostics searches fail validation without touching the database.
	for i := 0; i < 2; i++ {
		rec := do(t, handler, "POST", "/order-diagnostics/search", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
	rec := do(t, handler, "POST", "/order-diagnostics/search", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Rate limit exceeded", decode(t, rec)["error"])

	rec = do(t, handler, "GET", "/prometheus", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitMiddlewareWithRedis(t *testing.T) {
	rl, _ := newTestRedisLimiter(t, 1)
	handler, _ := newTestServer(t, nil, withTestLimiter(rl))

	rec := do(t, handler, "POST", "/order-diagnostics/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, handler, "POST", "/order-diagnostics/search", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.10:53211"
	assert.Equal(t, "ip:192.0.2.10", clientKey(req, true))

	req.Header.Set(APIKeyHeader, "s3cret")
	key := clientKey(req, true)
	assert.Contains(t, key, "key:")
	assert.NotContains(t, key, "s3cret")
	assert.Equal(t, key, clientKey(req, true))

	assert.Equal(t, "ip:192.0.2.10", clientKey(req, false))
}

func TestRateLimitIgnoresUnenforcedAPIKeyHeader(t *testing.T) {
	handler, _ := newTestServer(t, nil, withTestLimiter(NewLocalLimiter(2, time.Hour)))

	for i, key := range []string{"a", "b"} {
		rec := do(t, handler, "POST", "/order-diagnostics/search", "", APIKeyHeader, key)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "request %d", i)
	}
	rec := do(t, handler, "POST", "/order-diagnostics/search", "", APIKeyHeader, "c")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimitByEnforcedAPIKey(t *testing.T) {
	handler, _ := newTestServer(t, nil, withAPIKey("s3cret"), withTestLimiter(NewLocalLimiter(1, time.Hour)))

	rec := do(t, handler, "POST", "/order-diagnostics/search", "", APIKeyHeader, "s3cret")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, handler, "POST", "/order-diagnostics/search", "", APIKeyHeader, "s3cret")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A wrong key is rejected before it can claim a bucket.
	rec = do(t, handler, "POST", "/order-diagnostics/search", "", APIKeyHeader, "guess")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
