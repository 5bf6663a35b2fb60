// Package postgres implements store.Store on PostgreSQL. This is the shared
// durable store used outside demo mode.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kitchenops/platecost/internal/store"
)

// Config holds configuration for the PostgreSQL store.
type Config struct {
	Pool PoolConfig

	// AutoMigrate runs pending migrations on startup.
	AutoMigrate bool
}

// Store implements store.Store backed by a PostgreSQL connection pool.
type Store struct {
	pool *pgxpool.Pool

	suppliers   *SupplierStore
	ingredients *IngredientStore
	recipes     *RecipeStore
}

// New connects to PostgreSQL, optionally runs migrations, and returns the store.
func New(ctx context.Context, cfg *Config) (*Store, error) {
	pool, err := NewPool(ctx, &cfg.Pool)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := runMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	s := &Store{pool: pool}
	s.suppliers = &SupplierStore{pool: pool}
	s.ingredients = &IngredientStore{pool: pool}
	s.recipes = &RecipeStore{pool: pool}
	return s, nil
}

// Suppliers returns the supplier store.
func (s *Store) Suppliers() store.SupplierStore { return s.suppliers }

// Ingredients returns the ingredient store.
func (s *Store) Ingredients() store.IngredientStore { return s.ingredients }

// Recipes returns the recipe store.
func (s *Store) Recipes() store.RecipeStore { return s.recipes }

// Close closes the connection pool. Waits for acquired connections to be
// released, so callers should only invoke it during shutdown.
func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}
