package sqlite

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kitchenops/platecost/internal/models"
	"github.com/kitchenops/platecost/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestNewStoreIsImmediatelyUsable(t *testing.T) {
	s := newTestStore(t)

	// Schema is applied before New returns, so writes work right away.
	err := s.Suppliers().Create(context.Background(), &models.Supplier{
		ID:   uuid.New(),
		Name: "Baker & Sons",
	})
	require.NoError(t, err)
}

func TestStoreIsolation(t *testing.T) {
	a := newTestStore(t)
	b := newTestStore(t)
	ctx := context.Background()

	ingredient := &models.Ingredient{
		ID:       uuid.New(),
		Name:     "flour",
		Unit:     "g",
		UnitCost: 0.002,
	}
	require.NoError(t, a.Ingredients().Create(ctx, ingredient))

	// Store B never observes store A's write.
	_, err := b.Ingredients().Get(ctx, ingredient.ID)
	require.ErrorIs(t, err, store.ErrIngredientNotFound)

	got, err := a.Ingredients().Get(ctx, ingredient.ID)
	require.NoError(t, err)
	require.Equal(t, "flour", got.Name)
}

func TestSupplierCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	supplier := &models.Supplier{ID: uuid.New(), Name: "Greenfields", Email: "orders@greenfields.test"}
	require.NoError(t, s.Suppliers().Create(ctx, supplier))

	got, err := s.Suppliers().Get(ctx, supplier.ID)
	require.NoError(t, err)
	require.Equal(t, supplier.Name, got.Name)
	require.Equal(t, supplier.Email, got.Email)

	supplier.Name = "Greenfields Organic"
	require.NoError(t, s.Suppliers().Update(ctx, supplier))

	list, err := s.Suppliers().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Greenfields Organic", list[0].Name)

	require.NoError(t, s.Suppliers().Delete(ctx, supplier.ID))
	_, err = s.Suppliers().Get(ctx, supplier.ID)
	require.ErrorIs(t, err, store.ErrSupplierNotFound)

	require.ErrorIs(t, s.Suppliers().Delete(ctx, supplier.ID), store.ErrSupplierNotFound)
}

func TestDuplicateNameRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Suppliers().Create(ctx, &models.Supplier{ID: uuid.New(), Name: "Acme"}))
	err := s.Suppliers().Create(ctx, &models.Supplier{ID: uuid.New(), Name: "Acme"})
	require.ErrorIs(t, err, store.ErrDuplicateName)
}

func TestSupplierDeleteClearsIngredientReference(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	supplier := &models.Supplier{ID: uuid.New(), Name: "Dairy Direct"}
	require.NoError(t, s.Suppliers().Create(ctx, supplier))

	ingredient := &models.Ingredient{
		ID:         uuid.New(),
		SupplierID: &supplier.ID,
		Name:       "butter",
		Unit:       "g",
		UnitCost:   0.011,
	}
	require.NoError(t, s.Ingredients().Create(ctx, ingredient))

	require.NoError(t, s.Suppliers().Delete(ctx, supplier.ID))

	got, err := s.Ingredients().Get(ctx, ingredient.ID)
	require.NoError(t, err)
	require.Nil(t, got.SupplierID)
}

func TestRecipeCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	flour := &models.Ingredient{ID: uuid.New(), Name: "flour", Unit: "g", UnitCost: 0.002}
	butter := &models.Ingredient{ID: uuid.New(), Name: "butter", Unit: "g", UnitCost: 0.011}
	require.NoError(t, s.Ingredients().Create(ctx, flour))
	require.NoError(t, s.Ingredients().Create(ctx, butter))

	recipe := &models.Recipe{
		ID:       uuid.New(),
		Name:     "shortcrust pastry",
		Servings: 8,
		Ingredients: []models.RecipeIngredient{
			{IngredientID: flour.ID, Quantity: 250},
			{IngredientID: butter.ID, Quantity: 125},
		},
	}
	require.NoError(t, s.Recipes().Create(ctx, recipe))

	got, err := s.Recipes().Get(ctx, recipe.ID)
	require.NoError(t, err)
	require.Equal(t, "shortcrust pastry", got.Name)
	require.Len(t, got.Ingredients, 2)

	// Update replaces the full line set.
	recipe.Ingredients = recipe.Ingredients[:1]
	recipe.Servings = 6
	require.NoError(t, s.Recipes().Update(ctx, recipe))

	got, err = s.Recipes().Get(ctx, recipe.ID)
	require.NoError(t, err)
	require.EqualValues(t, 6, got.Servings)
	require.Len(t, got.Ingredients, 1)

	require.NoError(t, s.Recipes().Delete(ctx, recipe.ID))
	_, err = s.Recipes().Get(ctx, recipe.ID)
	require.ErrorIs(t, err, store.ErrRecipeNotFound)
}

func TestRecipeLineRequiresExistingIngredient(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	recipe := &models.Recipe{
		ID:       uuid.New(),
		Name:     "mystery soup",
		Servings: 4,
		Ingredients: []models.RecipeIngredient{
			{IngredientID: uuid.New(), Quantity: 1},
		},
	}
	err := s.Recipes().Create(ctx, recipe)
	require.ErrorIs(t, err, store.ErrIngredientNotFound)

	// The failed transaction left nothing behind.
	_, err = s.Recipes().Get(ctx, recipe.ID)
	require.ErrorIs(t, err, store.ErrRecipeNotFound)
}

func TestIngredientInUseCannotBeDeleted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	flour := &models.Ingredient{ID: uuid.New(), Name: "flour", Unit: "g", UnitCost: 0.002}
	require.NoError(t, s.Ingredients().Create(ctx, flour))

	recipe := &models.Recipe{
		ID:       uuid.New(),
		Name:     "bread",
		Servings: 2,
		Ingredients: []models.RecipeIngredient{
			{IngredientID: flour.ID, Quantity: 500},
		},
	}
	require.NoError(t, s.Recipes().Create(ctx, recipe))

	err := s.Ingredients().Delete(ctx, flour.ID)
	require.ErrorIs(t, err, store.ErrIngredientInUse)

	// Deleting the recipe releases the reference.
	require.NoError(t, s.Recipes().Delete(ctx, recipe.ID))
	require.NoError(t, s.Ingredients().Delete(ctx, flour.ID))
}

func TestFactoryCreatesIndependentStores(t *testing.T) {
	factory := NewFactory()
	ctx := context.Background()

	a, err := factory.Create(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(ctx) })

	b, err := factory.Create(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close(ctx) })

	require.NoError(t, a.Suppliers().Create(ctx, &models.Supplier{ID: uuid.New(), Name: "only in A"}))

	list, err := b.Suppliers().List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}
