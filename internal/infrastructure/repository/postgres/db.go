package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const pingTimeout = 5 * time.Second

// PoolConfig sizes the job store connection pool. Zero values use defaults.
type PoolConfig struct {
	MaxConns     int
	ConnLifetime time.Duration
}

// OpenDB opens the job store through the pgx stdlib driver and verifies the
// connection before returning.
func OpenDB(ctx context.Context, dsn string, pool PoolConfig) (*sql.DB, error) {
	if pool.MaxConns <= 0 {
		pool.MaxConns = 10
	}
	if pool.ConnLifetime <= 0 {
		pool.ConnLifetime = 30 * time.Minute
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}
	db.SetMaxOpenConns(pool.MaxConns)
	db.SetMaxIdleConns(max(1, pool.MaxConns/2))
	db.SetConnMaxLifetime(pool.ConnLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping job store: %w", err)
	}
	return db, nil
}
