// Package postgres implements the repository interfaces on PostgreSQL via
// a shared pgx connection pool.
package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hostpulse/hostpulse/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.ProductRepository     = (*Repository)(nil)
	_ repository.CartRepository        = (*Repository)(nil)
	_ repository.OrderRepository       = (*Repository)(nil)
	_ repository.PerformanceRepository = (*Repository)(nil)
	_ repository.InteractionRepository = (*Repository)(nil)
)
