package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kitchenops/platecost/internal/models"
	"github.com/kitchenops/platecost/internal/store"
)

// RecipeStore implements store.RecipeStore using PostgreSQL.
type RecipeStore struct {
	pool *pgxpool.Pool
}

// Create inserts a recipe and its ingredient lines in one transaction.
func (s *RecipeStore) Create(ctx context.Context, recipe *models.Recipe) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	now := time.Now().UTC()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	_, err = tx.Exec(ctx,
		`INSERT INTO recipes (id, name, servings, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		recipe.ID, recipe.Name, recipe.Servings, recipe.CreatedAt, recipe.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create recipe: %w", mapPostgresError(err))
	}

	if err := insertRecipeLines(ctx, tx, recipe); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit recipe: %w", err)
	}

	return nil
}

// Get retrieves a recipe and its ingredient lines by ID.
func (s *RecipeStore) Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, servings, created_at, updated_at FROM recipes WHERE id = $1`,
		id).Scan(&recipe.ID, &recipe.Name, &recipe.Servings, &recipe.CreatedAt, &recipe.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", mapPostgresError(err))
	}

	if recipe.Ingredients, err = s.recipeLines(ctx, id); err != nil {
		return nil, err
	}

	return &recipe, nil
}

// List returns all recipes with their ingredient lines, ordered by name.
func (s *RecipeStore) List(ctx context.Context) ([]*models.Recipe, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, servings, created_at, updated_at FROM recipes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var recipes []*models.Recipe
	for rows.Next() {
		var recipe models.Recipe
		err := rows.Scan(&recipe.ID, &recipe.Name, &recipe.Servings, &recipe.CreatedAt, &recipe.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, &recipe)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipes: %w", err)
	}

	for _, recipe := range recipes {
		if recipe.Ingredients, err = s.recipeLines(ctx, recipe.ID); err != nil {
			return nil, err
		}
	}

	return recipes, nil
}

// Update modifies a recipe, replacing its full ingredient line set.
func (s *RecipeStore) Update(ctx context.Context, recipe *models.Recipe) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	recipe.UpdatedAt = time.Now().UTC()

	tag, err := tx.Exec(ctx,
		`UPDATE recipes SET name = $2, servings = $3, updated_at = $4 WHERE id = $1`,
		recipe.ID, recipe.Name, recipe.Servings, recipe.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", mapPostgresError(err))
	}

	if tag.RowsAffected() == 0 {
		return store.ErrRecipeNotFound
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipe.ID); err != nil {
		return fmt.Errorf("failed to clear recipe lines: %w", err)
	}

	if err := insertRecipeLines(ctx, tx, recipe); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit recipe update: %w", err)
	}

	return nil
}

// Delete removes a recipe and its lines (cascade).
func (s *RecipeStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", mapPostgresError(err))
	}

	if tag.RowsAffected() == 0 {
		return store.ErrRecipeNotFound
	}

	return nil
}

func (s *RecipeStore) recipeLines(ctx context.Context, recipeID uuid.UUID) ([]models.RecipeIngredient, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT ingredient_id, quantity FROM recipe_ingredients WHERE recipe_id = $1`,
		recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe lines: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var lines []models.RecipeIngredient
	for rows.Next() {
		var line models.RecipeIngredient
		if err := rows.Scan(&line.IngredientID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan recipe line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipe lines: %w", err)
	}

	return lines, nil
}

func insertRecipeLines(ctx context.Context, tx pgx.Tx, recipe *models.Recipe) error {
	for _, line := range recipe.Ingredients {
		_, err := tx.Exec(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, quantity) VALUES ($1, $2, $3)`,
			recipe.ID, line.IngredientID, line.Quantity)
		if err != nil {
			err = mapPostgresError(err)
			// A foreign key failure here means the referenced ingredient
			// does not exist.
			if errors.Is(err, store.ErrIngredientInUse) {
				return fmt.Errorf("recipe line %s: %w", line.IngredientID, store.ErrIngredientNotFound)
			}
			return fmt.Errorf("failed to insert recipe line: %w", err)
		}
	}
	return nil
}
