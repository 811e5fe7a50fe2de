package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of pgxpool.Pool the repositories use. Tests supply
// fakes; production code always passes the shared pool.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store aggregates repositories backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool

	Users          UserRepository
	GoogleAccounts GoogleAccountRepository
	Locations      LocationRepository
	Reviews        ReviewRepository
	DailyMetrics   DailyMetricRepository
}

// New wires concrete repository implementations with a shared connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:           pool,
		Users:          &userRepo{pool: pool},
		GoogleAccounts: &googleAccountRepo{pool: pool},
		Locations:      &locationRepo{pool: pool},
		Reviews:        &reviewRepo{pool: pool},
		DailyMetrics:   &dailyMetricRepo{pool: pool},
	}
}

// HealthCheck verifies that the underlying database is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	defer observeDB(ctx, "db.healthcheck")()
	return s.pool.Ping(ctx)
}
