package database

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DBManager owns the primary pool and any read replicas. Writes and read-your-write reloads
// go to Write(); plain lookups may use Read(), which round-robins across replicas.
type DBManager struct {
	primary  *pgxpool.Pool
	replicas []*pgxpool.Pool
	next     atomic.Uint32
}

type Config struct {
	PrimaryDSN  string
	ReplicaDSNs []string

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// PoolStat is a point-in-time view of one pool, exported through /metrics.
type PoolStat struct {
	Name     string
	Total    int32
	Idle     int32
	Acquired int32
}

func NewDBManager(ctx context.Context, cfg Config) (*DBManager, error) {
	primary, err := openPool(ctx, cfg, cfg.PrimaryDSN)
	if err != nil {
		return nil, fmt.Errorf("primary: %w", err)
	}

	m := &DBManager{primary: primary}
	for i, dsn := range cfg.ReplicaDSNs {
		replica, err := openPool(ctx, cfg, dsn)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("replica %d: %w", i, err)
		}
		m.replicas = append(m.replicas, replica)
	}

	return m, nil
}

func openPool(ctx context.Context, cfg Config, dsn string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping: %w", err)
	}
	return pool, nil
}

func (m *DBManager) Write() *pgxpool.Pool {
	return m.primary
}

func (m *DBManager) Read() *pgxpool.Pool {
	if len(m.replicas) == 0 {
		return m.primary
	}
	idx := m.next.Add(1) % uint32(len(m.replicas))
	return m.replicas[idx]
}

// Ping checks the primary; used by the health endpoint.
func (m *DBManager) Ping(ctx context.Context) error {
	return m.primary.Ping(ctx)
}

func (m *DBManager) Close() {
	if m.primary != nil {
		m.primary.Close()
	}
	for _, pool := range m.replicas {
		pool.Close()
	}
}

func (m *DBManager) PoolStats() []PoolStat {
	stats := make([]PoolStat, 0, 1+len(m.replicas))
	stats = append(stats, poolStat("primary", m.primary))
	for i, pool := range m.replicas {
		stats = append(stats, poolStat(fmt.Sprintf("replica-%d", i), pool))
	}
	return stats
}

func poolStat(name string, pool *pgxpool.Pool) PoolStat {
	s := pool.Stat()
	return PoolStat{
		Name:     name,
		Total:    s.TotalConns(),
		Idle:     s.IdleConns(),
		Acquired: s.AcquiredConns(),
	}
}
