// Package sqlite implements store.Store on an in-memory SQLite database.
// Each Store owns one private database; this is the ephemeral backing store
// handed to a demo session, fully schema-applied before use and discarded
// when the session is evicted.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kitchenops/platecost/internal/store"

	sqlite3 "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// dsn opens a private in-memory database with foreign keys enforced.
// The database lives as long as its single connection, so the pool is
// pinned to one connection below.
const dsn = "file::memory:?_pragma=foreign_keys(1)"

// Store implements store.Store backed by an in-memory SQLite database.
type Store struct {
	db *sql.DB

	suppliers   *SupplierStore
	ingredients *IngredientStore
	recipes     *RecipeStore
}

// New opens a fresh in-memory database and applies the full schema before
// returning. The returned store is immediately usable for reads and writes.
// On any failure the partially opened database is closed and the error is
// returned; callers never see a half-initialized store.
func New(ctx context.Context) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// An in-memory database exists per connection; a second connection
	// would see a different, empty database.
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db); err != nil {
		db.Close() //nolint:errcheck // already failing, report the migration error
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{db: db}
	s.suppliers = &SupplierStore{db: db}
	s.ingredients = &IngredientStore{db: db}
	s.recipes = &RecipeStore{db: db}
	return s, nil
}

// Suppliers returns the supplier store.
func (s *Store) Suppliers() store.SupplierStore { return s.suppliers }

// Ingredients returns the ingredient store.
func (s *Store) Ingredients() store.IngredientStore { return s.ingredients }

// Recipes returns the recipe store.
func (s *Store) Recipes() store.RecipeStore { return s.recipes }

// Close releases the in-memory database.
func (s *Store) Close(ctx context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close sqlite database: %w", err)
	}
	return nil
}

// Factory creates one fresh ephemeral store per call. It is stateless and
// satisfies the demo registry's resource factory contract.
type Factory struct{}

// NewFactory returns a factory for ephemeral in-memory stores.
func NewFactory() *Factory { return &Factory{} }

// Create opens a new schema-applied in-memory store.
func (f *Factory) Create(ctx context.Context) (store.Store, error) {
	return New(ctx)
}

// mapSQLiteError maps SQLite constraint failures to sentinel errors.
// Returns the original error for anything unrecognised.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}

	var se *sqlite3.Error
	if !errors.As(err, &se) {
		return err
	}

	switch se.Code() {
	case sqlitelib.SQLITE_CONSTRAINT_UNIQUE:
		return fmt.Errorf("%w: %v", store.ErrDuplicateName, err)
	case sqlitelib.SQLITE_CONSTRAINT_FOREIGNKEY:
		return fmt.Errorf("%w: %v", store.ErrIngredientInUse, err)
	default:
		return err
	}
}
