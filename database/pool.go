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
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"

	"eocdb/platform/config"
	"eocdb/platform/shared/logger"
)

// Opener opens the underlying *sql.DB. Tests substitute sqlmock here.
type Opener func(driverName, dsn string) (*sql.DB, error)

// PoolConfig bounds the pool. Min connections are opened at initialization
// and kept idle; leased connections never exceed Max.
type PoolConfig struct {
	Min              int
	Max              int
	Increment        int
	AcquireTimeout   time.Duration
	StatementTimeout time.Duration
	ConnectTimeout   time.Duration
}

// Option configures a Pool.
type Option func(*Pool)

// WithOpener replaces sql.Open.
func WithOpener(open Opener) Option {
	return func(p *Pool) { p.open = open }
}

// WithLogger sets the pool logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pool) { p.log = l }
}

// Pool is the process-wide connection pool. It is created once at startup and
// shut down once; it cannot be reopened after Shutdown.
type Pool struct {
	dialect Dialect
	dsn     string
	cfg     PoolConfig
	open    Opener
	log     *logger.Logger

	mu     sync.Mutex
	db     *sqlx.DB
	closed bool
}

// NewPool creates an uninitialized pool. No connection is made until
// Initialize or the first Acquire.
func NewPool(dialect Dialect, dsn string, cfg PoolConfig, opts ...Option) *Pool {
	if cfg.Max < 1 {
		cfg.Max = 1
	}
	if cfg.Min < 0 || cfg.Min > cfg.Max {
		cfg.Min = cfg.Max
	}
	if cfg.Increment < 1 {
		cfg.Increment = 1
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = 30 * time.Second
	}

	p := &Pool{
		dialect: dialect,
		dsn:     dsn,
		cfg:     cfg,
		open:    sql.Open,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.New("eocdb.pool")
	}
	return p
}

// NewFromConfig selects the dialect for cfg.Driver and builds the pool from
// the configured bounds and timeouts.
func NewFromConfig(cfg *config.DatabaseConfig, opts ...Option) (*Pool, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	return NewPool(dialect, dialect.DSN(cfg), PoolConfig{
		Min:              cfg.PoolMin,
		Max:              cfg.PoolMax,
		Increment:        cfg.PoolIncrement,
		AcquireTimeout:   cfg.AcquireTimeout,
		StatementTimeout: cfg.QueryTimeout,
		ConnectTimeout:   cfg.ConnectionTimeout,
	}, opts...), nil
}

// Dialect returns the pool's dialect.
func (p *Pool) Dialect() Dialect {
	return p.dialect
}

// Initialize opens the pool and warms Min connections. Calling it again on an
// initialized pool is a no-op. A failed attempt leaves the pool uninitialized
// so a later call can retry.
func (p *Pool) Initialize(ctx context.Context) error {
	_, err := p.handle(ctx)
	return err
}

func (p *Pool) handle(ctx context.Context) (*sqlx.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}
	if p.db != nil {
		return p.db, nil
	}

	raw, err := p.open(p.dialect.DriverName(), p.dsn)
	if err != nil {
		return nil, NewOperationError("Initialize", p.dialect.Name(), "failed to open connection pool", err)
	}
	db := sqlx.NewDb(raw, p.dialect.DriverName())
	db.SetMaxOpenConns(p.cfg.Max)
	// Idle connections never expire, so Min stay open. Extras close on release.
	db.SetMaxIdleConns(p.cfg.Min)

	if err := p.warm(ctx, db); err != nil {
		_ = db.Close()
		return nil, NewOperationError("Initialize", p.dialect.Name(), "failed to establish connections", err)
	}

	p.db = db
	p.log.Info("", "✅ Database connection pool initialized", map[string]interface{}{
		"driver":    p.dialect.Name(),
		"min":       p.cfg.Min,
		"max":       p.cfg.Max,
		"increment": p.cfg.Increment,
	})
	return db, nil
}

// warm pings the database and then opens Min physical connections, Increment
// at a time, returning them to the idle set.
func (p *Pool) warm(ctx context.Context, db *sqlx.DB) error {
	if p.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.ConnectTimeout)
		defer cancel()
	}

	if err := db.PingContext(ctx); err != nil {
		return err
	}

	held := make([]*sqlx.Conn, 0, p.cfg.Min)
	defer func() {
		for _, c := range held {
			_ = c.Close()
		}
	}()

	for len(held) < p.cfg.Min {
		batch := p.cfg.Increment
		if remaining := p.cfg.Min - len(held); batch > remaining {
			batch = remaining
		}
		for i := 0; i < batch; i++ {
			c, err := db.Connx(ctx)
			if err != nil {
				return err
			}
			held = append(held, c)
		}
	}
	return nil
}

// Acquire leases a connection, initializing the pool on first use. It waits at
// most AcquireTimeout and then fails with ErrPoolExhausted. The caller must
// Release the connection.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	db, err := p.handle(ctx)
	if err != nil {
		return nil, err
	}

	actx, cancel := context.WithTimeout(ctx, p.cfg.AcquireTimeout)
	defer cancel()

	c, err := db.Connx(actx)
	if err != nil {
		switch {
		case p.isClosed():
			return nil, ErrPoolClosed
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case errors.Is(actx.Err(), context.DeadlineExceeded):
			return nil, fmt.Errorf("%w: no connection available after %s", ErrPoolExhausted, p.cfg.AcquireTimeout)
		}
		return nil, NewOperationError("Acquire", p.dialect.Name(), "failed to acquire connection", err)
	}

	return &Conn{conn: c, pool: p}, nil
}

// Release returns c to the pool. Releasing twice, or releasing nil, does
// nothing. Close errors are logged rather than returned.
func (p *Pool) Release(c *Conn) {
	if c == nil || !c.released.CompareAndSwap(false, true) {
		return
	}
	if err := c.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		p.log.Warn("", "Failed to release connection", map[string]interface{}{"error": err.Error()})
	}
}

// Ping leases a connection and runs the dialect's test query on it.
func (p *Pool) Ping(ctx context.Context) error {
	c, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(c)

	var one int
	return c.GetContext(ctx, &one, p.dialect.TestQuery())
}

// Shutdown closes every connection. Further Initialize and Acquire calls fail
// with ErrPoolClosed.
func (p *Pool) Shutdown() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	if err != nil {
		return NewOperationError("Shutdown", p.dialect.Name(), "failed to close connection pool", err)
	}
	p.log.Info("", "Database connection pool closed", nil)
	return nil
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Stats describes the pool for health checks and metrics.
type Stats struct {
	Initialized  bool          `json:"initialized"`
	Closed       bool          `json:"closed"`
	Min          int           `json:"min"`
	Max          int           `json:"max"`
	Open         int           `json:"open_connections"`
	InUse        int           `json:"in_use"`
	Idle         int           `json:"idle"`
	WaitCount    int64         `json:"wait_count"`
	WaitDuration time.Duration `json:"wait_duration_ns"`
}

// Stats returns a snapshot of the pool.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Stats{
		Initialized: p.db != nil,
		Closed:      p.closed,
		Min:         p.cfg.Min,
		Max:         p.cfg.Max,
	}
	if p.db != nil {
		ds := p.db.Stats()
		s.Open = ds.OpenConnections
		s.InUse = ds.InUse
		s.Idle = ds.Idle
		s.WaitCount = ds.WaitCount
		s.WaitDuration = ds.WaitDuration
	}
	return s
}

// Conn is a leased connection. Every statement on it runs under the pool's
// statement timeout.
type Conn struct {
	conn     *sqlx.Conn
	pool     *Pool
	released atomic.Bool
}

func (c *Conn) statementContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.pool.cfg.StatementTimeout > 0 {
		return context.WithTimeout(ctx, c.pool.cfg.StatementTimeout)
	}
	return context.WithCancel(ctx)
}

// QueryContext runs a query. The statement deadline stays armed until the
// returned Rows are closed.
func (c *Conn) QueryContext(ctx context.Context, query string, args ...interface{}) (*Rows, error) {
	sctx, cancel := c.statementContext(ctx)
	rows, err := c.conn.QueryxContext(sctx, query, args...)
	if err != nil {
		cancel()
		return nil, err
	}
	return &Rows{Rows: rows, cancel: cancel}, nil
}

// ExecContext runs a statement that returns no rows.
func (c *Conn) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	sctx, cancel := c.statementContext(ctx)
	defer cancel()
	return c.conn.ExecContext(sctx, query, args...)
}

// GetContext scans a single row into dest.
func (c *Conn) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	sctx, cancel := c.statementContext(ctx)
	defer cancel()
	return c.conn.GetContext(sctx, dest, query, args...)
}

// Rows wraps sqlx.Rows so closing them also releases the statement deadline.
type Rows struct {
	*sqlx.Rows
	cancel context.CancelFunc
}

// Close closes the cursor and cancels its statement context.
func (r *Rows) Close() error {
	err := r.Rows.Close()
	r.cancel()
	return err
}
