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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"eocdb/platform/shared/logger"
)

// Limiter decides whether a client may make another request.
type Limiter interface {
	Allow(ctx context.Context, client string) bool
}

// RedisLimiter is a sliding window shared by every replica. Redis errors
// fail open.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	log    *logger.Logger
}

// NewRedisLimiter connects to redisURL and verifies the connection.
func NewRedisLimiter(ctx context.Context, redisURL string, limit int, window time.Duration) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		log:    logger.New("eocdb.ratelimit"),
	}, nil
}

// Allow records the request and reports whether the client is within its
// window.
func (l *RedisLimiter) Allow(ctx context.Context, client string) bool {
	now := time.Now()
	key := "eocdb:ratelimit:" + client

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(now.Add(-l.window).UnixMilli(), 10))
	card := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, &redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	pipe.Expire(ctx, key, 2*l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Warn(logger.RequestID(ctx), "Redis rate limit check failed, allowing request", map[string]interface{}{
			"error": err.Error(),
		})
		return true
	}
	return card.Val() < int64(l.limit)
}

// Close releases the Redis connection pool.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

// maxLocalClients bounds the in-memory limiter table before idle entries are
// swept.
const maxLocalClients = 10000

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter is a per-process token bucket per client. It refills at
// limit/window and bursts up to limit.
type LocalLimiter struct {
	mu      sync.Mutex
	clients map[string]*localEntry
	limit   int
	window  time.Duration
}

// NewLocalLimiter creates an in-memory limiter.
func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	return &LocalLimiter{
		clients: make(map[string]*localEntry),
		limit:   limit,
		window:  window,
	}
}

// Allow takes one token from the client's bucket.
func (l *LocalLimiter) Allow(_ context.Context, client string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.clients[client]
	if !ok {
		if len(l.clients) >= maxLocalClients {
			l.sweep(now)
		}
		every := rate.Every(l.window / time.Duration(l.limit))
		entry = &localEntry{limiter: rate.NewLimiter(every, l.limit)}
		l.clients[client] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// sweep drops clients idle for a full window; their buckets are full again.
func (l *LocalLimiter) sweep(now time.Time) {
	for k, e := range l.clients {
		if now.Sub(e.lastSeen) > l.window {
			delete(l.clients, k)
		}
	}
}

// rateLimitMiddleware answers 429 once a client exceeds its allowance.
// byKey is set when the API key is enforced, so the header is trusted.
func rateLimitMiddleware(limiter Limiter, byKey bool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exempt[routeTemplate(r)] {
				next.ServeHTTP(w, r)
				return
			}
			if !limiter.Allow(r.Context(), clientKey(r, byKey)) {
				promRateLimited.Inc()
				writeJSONError(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey identifies the caller by API key digest when byKey is set, else
// by remote IP. An unenforced header is caller-chosen and never used.
func clientKey(r *http.Request, byKey bool) string {
	if key := r.Header.Get(APIKeyHeader); byKey && key != "" {
		sum := sha256.Sum256([]byte(key))
		return "key:" + hex.EncodeToString(sum[:8])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
