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
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"eocdb/platform/config"
	"eocdb/platform/database"
	"eocdb/platform/query"
	"eocdb/platform/shared/logger"
	"eocdb/platform/store"
)

// secretTTL is how long resolved database credentials are cached.
const secretTTL = 5 * time.Minute

// Run loads the configuration, opens the connection pool and serves until
// SIGINT or SIGTERM. It returns an error when startup fails.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.SetLevel(logger.ParseLevel(cfg.API.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.PasswordSecretARN != "" {
		secrets, err := config.NewAWSSecretsManager(ctx, cfg.Database.AWSRegion, secretTTL, logger.New("eocdb.secrets"))
		if err != nil {
			return err
		}
		if err := cfg.Database.ResolveCredentials(ctx, secrets); err != nil {
			return err
		}
	}
	if err := cfg.Database.Validate(); err != nil {
		return err
	}

	pool, err := database.NewFromConfig(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := pool.Shutdown(); err != nil {
			apiLog.Error("", "Failed to close connection pool", map[string]interface{}{"error": err.Error()})
		}
	}()
	prometheus.MustRegister(database.NewPoolCollector(pool))

	// A database that is down at startup is reported by the health endpoints;
	// the pool retries on first use.
	if err := pool.Initialize(ctx); err != nil {
		apiLog.Warn("", "Database pool initialization failed, continuing", map[string]interface{}{"error": err.Error()})
	}

	exec := query.NewExecutor(pool, query.NewCatalog(cfg.Database.LogSchema), cfg.Database.MaxQueryResults)
	svc := store.NewService(exec, cfg.Database.LogSchema, cfg.Database.PlanSchema,
		store.WithFanout(cfg.Database.FanoutConcurrency))

	var opts []ServerOption
	if limiter := newLimiter(ctx, &cfg.API); limiter != nil {
		opts = append(opts, WithLimiter(limiter))
		if rl, ok := limiter.(*RedisLimiter); ok {
			defer func() { _ = rl.Close() }()
		}
	}
	server := NewServer(cfg, svc, opts...)

	return serve(ctx, &http.Server{
		Addr:              cfg.API.Address(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}, cfg.API.ShutdownTimeout)
}

// newLimiter prefers Redis when REDIS_URL is set and reachable, and falls
// back to the in-memory limiter. It returns nil when limiting is disabled.
func newLimiter(ctx context.Context, cfg *config.APIConfig) Limiter {
	if cfg.RateLimitRequests <= 0 || cfg.RateLimitWindow <= 0 {
		return nil
	}
	if cfg.RedisURL != "" {
		rl, err := NewRedisLimiter(ctx, cfg.RedisURL, cfg.RateLimitRequests, cfg.RateLimitWindow)
		if err == nil {
			apiLog.Info("", "✅ Redis rate limiting enabled", map[string]interface{}{
				"limit":  cfg.RateLimitRequests,
				"window": cfg.RateLimitWindow.String(),
			})
			return rl
		}
		apiLog.Warn("", "Redis unavailable, using in-memory rate limiting", map[string]interface{}{"error": err.Error()})
	}
	return NewLocalLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
}

// serve runs srv until ctx is cancelled, then drains it within timeout.
func serve(ctx context.Context, srv *http.Server, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		apiLog.Info("", "🚀 EOC Database API listening", map[string]interface{}{"addr": srv.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	apiLog.Info("", "Shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
