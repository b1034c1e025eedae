// Package postgres journals resolved battles to PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/deckbattle/internal/config"
)

// ErrSchemaMissing is returned by Ready when the journal tables have not been
// migrated into the database.
var ErrSchemaMissing = errors.New("journal schema missing; run cmd/migrate")

// journalTables must all exist before battles can be journaled.
var journalTables = []string{"battles", "battle_events"}

// Pool owns the connection pool the journal writes through.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the database described by cfg and pings it.
//
// Precondition: cfg must pass config validation.
// Postcondition: Returns a connected Pool or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.ConnConfig.RuntimeParams["application_name"] = "deckbattle"

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Pool{pool: pool}, nil
}

// Ready checks within timeout that the database answers and that every
// journal table exists.
//
// Postcondition: Returns nil, ErrSchemaMissing wrapped with the missing
// table, or the connection error.
func (p *Pool) Ready(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	for _, table := range journalTables {
		var exists bool
		if err := p.pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, table).Scan(&exists); err != nil {
			return fmt.Errorf("checking table %s: %w", table, err)
		}
		if !exists {
			return fmt.Errorf("%w: table %s", ErrSchemaMissing, table)
		}
	}
	return nil
}

// Journal returns a JournalRepository writing through this pool.
func (p *Pool) Journal() *JournalRepository {
	return NewJournalRepository(p.pool)
}

// Close releases all pool resources.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
