package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kitchenops/platecost/internal/models"
)

// Sentinel errors for common error conditions
var (
	ErrSupplierNotFound   = errors.New("supplier not found")
	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrRecipeNotFound     = errors.New("recipe not found")
	ErrDuplicateName      = errors.New("name already in use")
	ErrIngredientInUse    = errors.New("ingredient is referenced by a recipe")
)

// SupplierStore defines the interface for supplier storage operations
type SupplierStore interface {
	Create(ctx context.Context, supplier *models.Supplier) error
	Get(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	List(ctx context.Context) ([]*models.Supplier, error)
	Update(ctx context.Context, supplier *models.Supplier) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// IngredientStore defines the interface for ingredient storage operations
type IngredientStore interface {
	Create(ctx context.Context, ingredient *models.Ingredient) error
	Get(ctx context.Context, id uuid.UUID) (*models.Ingredient, error)
	List(ctx context.Context) ([]*models.Ingredient, error)
	Update(ctx context.Context, ingredient *models.Ingredient) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RecipeStore defines the interface for recipe storage operations.
// A recipe is stored together with its ingredient lines; Create and Update
// replace the full line set atomically.
type RecipeStore interface {
	Create(ctx context.Context, recipe *models.Recipe) error
	Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	List(ctx context.Context) ([]*models.Recipe, error)
	Update(ctx context.Context, recipe *models.Recipe) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Store bundles the per-domain stores backed by a single database.
// Implementations are either the shared durable PostgreSQL store or an
// ephemeral per-demo-session SQLite store; business services never know
// which one they are talking to.
type Store interface {
	Suppliers() SupplierStore
	Ingredients() IngredientStore
	Recipes() RecipeStore

	// Close releases the underlying database. For the ephemeral store this
	// frees the in-memory database; for the shared store it closes the pool.
	Close(ctx context.Context) error
}
