package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthCheck reports PostgreSQL liveness for the health endpoint.
type HealthCheck struct {
	pool *pgxpool.Pool
}

// NewHealthCheck creates a HealthCheck over the connection pool.
func NewHealthCheck(pool *pgxpool.Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

func (h *HealthCheck) Name() string { return "postgres" }

func (h *HealthCheck) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}
