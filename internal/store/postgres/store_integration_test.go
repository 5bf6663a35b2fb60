//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kitchenops/platecost/internal/models"
	"github.com/kitchenops/platecost/internal/store"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) (*Store, func()) {
	// Start postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	st, err := New(ctx, &Config{
		Pool:        PoolConfig{ConnString: connString},
		AutoMigrate: true,
	})
	require.NoError(t, err)

	cleanup := func() {
		_ = st.Close(ctx)
		_ = container.Terminate(ctx)
	}

	return st, cleanup
}

func TestIntegration_SupplierCRUD(t *testing.T) {
	ctx := context.Background()
	st, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	supplier := &models.Supplier{ID: uuid.New(), Name: "Greenfields", Email: "orders@greenfields.test"}
	require.NoError(t, st.Suppliers().Create(ctx, supplier))

	t.Run("get", func(t *testing.T) {
		got, err := st.Suppliers().Get(ctx, supplier.ID)
		require.NoError(t, err)
		require.Equal(t, "Greenfields", got.Name)
		require.False(t, got.CreatedAt.IsZero())
	})

	t.Run("duplicate name", func(t *testing.T) {
		err := st.Suppliers().Create(ctx, &models.Supplier{ID: uuid.New(), Name: "Greenfields"})
		require.ErrorIs(t, err, store.ErrDuplicateName)
	})

	t.Run("update", func(t *testing.T) {
		supplier.Email = "sales@greenfields.test"
		require.NoError(t, st.Suppliers().Update(ctx, supplier))

		got, err := st.Suppliers().Get(ctx, supplier.ID)
		require.NoError(t, err)
		require.Equal(t, "sales@greenfields.test", got.Email)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, st.Suppliers().Delete(ctx, supplier.ID))
		_, err := st.Suppliers().Get(ctx, supplier.ID)
		require.ErrorIs(t, err, store.ErrSupplierNotFound)
	})
}

func TestIntegration_RecipeLifecycle(t *testing.T) {
	ctx := context.Background()
	st, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	flour := &models.Ingredient{ID: uuid.New(), Name: "flour", Unit: "g", UnitCost: 0.002}
	butter := &models.Ingredient{ID: uuid.New(), Name: "butter", Unit: "g", UnitCost: 0.011}
	require.NoError(t, st.Ingredients().Create(ctx, flour))
	require.NoError(t, st.Ingredients().Create(ctx, butter))

	recipe := &models.Recipe{
		ID:       uuid.New(),
		Name:     "shortcrust pastry",
		Servings: 8,
		Ingredients: []models.RecipeIngredient{
			{IngredientID: flour.ID, Quantity: 250},
			{IngredientID: butter.ID, Quantity: 125},
		},
	}
	require.NoError(t, st.Recipes().Create(ctx, recipe))

	t.Run("read back with lines", func(t *testing.T) {
		got, err := st.Recipes().Get(ctx, recipe.ID)
		require.NoError(t, err)
		require.Len(t, got.Ingredients, 2)
	})

	t.Run("ingredient in use", func(t *testing.T) {
		err := st.Ingredients().Delete(ctx, flour.ID)
		require.ErrorIs(t, err, store.ErrIngredientInUse)
	})

	t.Run("unknown line ingredient", func(t *testing.T) {
		bad := &models.Recipe{
			ID:          uuid.New(),
			Name:        "mystery soup",
			Servings:    4,
			Ingredients: []models.RecipeIngredient{{IngredientID: uuid.New(), Quantity: 1}},
		}
		err := st.Recipes().Create(ctx, bad)
		require.ErrorIs(t, err, store.ErrIngredientNotFound)

		_, err = st.Recipes().Get(ctx, bad.ID)
		require.ErrorIs(t, err, store.ErrRecipeNotFound)
	})

	t.Run("update replaces lines", func(t *testing.T) {
		recipe.Ingredients = recipe.Ingredients[:1]
		require.NoError(t, st.Recipes().Update(ctx, recipe))

		got, err := st.Recipes().Get(ctx, recipe.ID)
		require.NoError(t, err)
		require.Len(t, got.Ingredients, 1)
	})

	t.Run("delete releases references", func(t *testing.T) {
		require.NoError(t, st.Recipes().Delete(ctx, recipe.ID))
		require.NoError(t, st.Ingredients().Delete(ctx, flour.ID))
	})
}

func TestIntegration_MigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	st, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	// A second migration run against the same database is a no-op.
	require.NoError(t, runMigrations(ctx, st.pool))
}
