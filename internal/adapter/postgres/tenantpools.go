package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"

	"github.com/adzspec-asad/ai-studio-api/internal/config"
	"github.com/adzspec-asad/ai-studio-api/internal/domain/tenant"
	"github.com/adzspec-asad/ai-studio-api/internal/port/schema"
	"github.com/adzspec-asad/ai-studio-api/internal/port/tenantdb"
)

// OpenFunc opens a connection pool for one tenant database. Injectable so
// the manager can be tested without a database server.
type OpenFunc func(ctx context.Context, t *tenant.Tenant) (tenantdb.Conn, error)

// PgxOpen returns the production OpenFunc backed by pgxpool.
func PgxOpen(cfg config.TenantPool) OpenFunc {
	return func(ctx context.Context, t *tenant.Tenant) (tenantdb.Conn, error) {
		poolCfg, err := pgxpool.ParseConfig(TenantDSN(t))
		if err != nil {
			return nil, fmt.Errorf("parse tenant dsn: %w", err)
		}
		poolCfg.MaxConns = cfg.MaxConns
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("open tenant pool: %w", err)
		}
		return pool, nil
	}
}

// TenantDSN renders a tenant's credentials as a pool DSN. The generated
// password alphabet includes URL metacharacters, so the userinfo is escaped
// the same way the migration applier escapes it; otherwise a tenant could
// be provisioned with credentials its own router cannot parse.
func TenantDSN(t *tenant.Tenant) string {
	return schema.ConnInfo{
		Host:     t.DBHost,
		Port:     t.DBPort,
		User:     t.DBUser,
		Password: t.DBPassword,
		DBName:   t.DBName,
	}.DSN()
}

type poolEntry struct {
	conn     tenantdb.Conn
	lastUsed time.Time
}

// Pools implements tenantdb.Manager: one lazily opened pool per tenant
// database, keyed by host:port/dbname, with idle eviction. Replaces the
// original design's single mutable connection slot.
type Pools struct {
	open    OpenFunc
	idleTTL time.Duration
	log     *slog.Logger

	group singleflight.Group

	mu      sync.Mutex
	entries map[string]*poolEntry
	closed  bool
}

// Compile-time check.
var _ tenantdb.Manager = (*Pools)(nil)

// NewPools creates a tenant pool manager. Call Start to run the idle
// sweeper.
func NewPools(open OpenFunc, idleTTL time.Duration, log *slog.Logger) *Pools {
	return &Pools{
		open:    open,
		idleTTL: idleTTL,
		log:     log,
		entries: make(map[string]*poolEntry),
	}
}

func poolKey(host string, port int, dbName string) string {
	return fmt.Sprintf("%s:%d/%s", host, port, dbName)
}

// Get returns the pool for the tenant's database, opening one on first
// use. Concurrent opens for the same key are deduplicated through
// singleflight, so a burst of first requests costs one connection setup.
func (p *Pools) Get(ctx context.Context, t *tenant.Tenant) (tenantdb.Conn, error) {
	key := poolKey(t.DBHost, t.DBPort, t.DBName)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("tenant pools: manager is closed")
	}
	if e, ok := p.entries[key]; ok {
		e.lastUsed = time.Now()
		conn := e.conn
		p.mu.Unlock()
		return conn, nil
	}
	p.mu.Unlock()

	v, err, _ := p.group.Do(key, func() (any, error) {
		// Re-check under the lock: another goroutine may have installed
		// the entry between the miss above and this flight.
		p.mu.Lock()
		if e, ok := p.entries[key]; ok {
			e.lastUsed = time.Now()
			conn := e.conn
			p.mu.Unlock()
			return conn, nil
		}
		p.mu.Unlock()

		conn, err := p.open(ctx, t)
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			conn.Close()
			return nil, fmt.Errorf("tenant pools: manager is closed")
		}
		p.entries[key] = &poolEntry{conn: conn, lastUsed: time.Now()}
		p.mu.Unlock()

		p.log.Info("tenant pool opened", "key", key, "tenant", t.Slug)
		return conn, nil
	})
	if err != nil {
		return nil, fmt.Errorf("open pool %s: %w", key, err)
	}
	return v.(tenantdb.Conn), nil
}

// Remove closes and forgets the pool for one database.
func (p *Pools) Remove(host string, port int, dbName string) {
	key := poolKey(host, port, dbName)

	p.mu.Lock()
	e, ok := p.entries[key]
	if ok {
		delete(p.entries, key)
	}
	p.mu.Unlock()

	if ok {
		e.conn.Close()
		p.log.Info("tenant pool removed", "key", key)
	}
}

// Start runs the idle sweeper until the returned stop function is called.
// Pools untouched for longer than idleTTL are closed; pgx waits for
// in-flight queries before tearing connections down, so the TTL should
// comfortably exceed the request timeout.
func (p *Pools) Start(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	var once sync.Once

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p.sweep(time.Now())
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }
}

// sweep closes every pool idle since before now-idleTTL.
func (p *Pools) sweep(now time.Time) {
	cutoff := now.Add(-p.idleTTL)

	p.mu.Lock()
	var victims []*poolEntry
	for key, e := range p.entries {
		if e.lastUsed.Before(cutoff) {
			victims = append(victims, e)
			delete(p.entries, key)
			p.log.Info("tenant pool evicted", "key", key, "idle", now.Sub(e.lastUsed))
		}
	}
	p.mu.Unlock()

	for _, e := range victims {
		e.conn.Close()
	}
}

// Close shuts down every pool and rejects further Gets.
func (p *Pools) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	entries := p.entries
	p.entries = make(map[string]*poolEntry)
	p.mu.Unlock()

	for _, e := range entries {
		e.conn.Close()
	}
}
