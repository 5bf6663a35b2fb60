package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/platecost/internal/models"
	"github.com/kitchenops/platecost/internal/store"
)

// RecipeStore implements store.RecipeStore on SQLite.
type RecipeStore struct {
	db *sql.DB
}

// Create inserts a recipe and its ingredient lines in one transaction.
func (s *RecipeStore) Create(ctx context.Context, recipe *models.Recipe) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is safe to call after commit

	now := time.Now().UTC()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	_, err = tx.ExecContext(ctx,
		`INSERT INTO recipes (id, name, servings, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		recipe.ID.String(), recipe.Name, recipe.Servings, recipe.CreatedAt, recipe.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create recipe: %w", mapSQLiteError(err))
	}

	if err := insertRecipeLines(ctx, tx, recipe); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recipe: %w", err)
	}

	return nil
}

// Get retrieves a recipe and its ingredient lines by ID.
func (s *RecipeStore) Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	recipe, err := scanRecipe(s.db.QueryRowContext(ctx,
		`SELECT id, name, servings, created_at, updated_at FROM recipes WHERE id = ?`,
		id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	if recipe.Ingredients, err = s.recipeLines(ctx, id); err != nil {
		return nil, err
	}

	return recipe, nil
}

// List returns all recipes with their ingredient lines, ordered by name.
func (s *RecipeStore) List(ctx context.Context) ([]*models.Recipe, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, servings, created_at, updated_at FROM recipes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []*models.Recipe
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, recipe)
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
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is safe to call after commit

	recipe.UpdatedAt = time.Now().UTC()

	result, err := tx.ExecContext(ctx,
		`UPDATE recipes SET name = ?, servings = ?, updated_at = ? WHERE id = ?`,
		recipe.Name, recipe.Servings, recipe.UpdatedAt, recipe.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", mapSQLiteError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return store.ErrRecipeNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM recipe_ingredients WHERE recipe_id = ?`, recipe.ID.String()); err != nil {
		return fmt.Errorf("failed to clear recipe lines: %w", err)
	}

	if err := insertRecipeLines(ctx, tx, recipe); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recipe update: %w", err)
	}

	return nil
}

// Delete removes a recipe and its lines (cascade).
func (s *RecipeStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return store.ErrRecipeNotFound
	}

	return nil
}

func (s *RecipeStore) recipeLines(ctx context.Context, recipeID uuid.UUID) ([]models.RecipeIngredient, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ingredient_id, quantity FROM recipe_ingredients WHERE recipe_id = ?`,
		recipeID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe lines: %w", err)
	}
	defer rows.Close()

	var lines []models.RecipeIngredient
	for rows.Next() {
		var line models.RecipeIngredient
		var ingredientID string

		if err := rows.Scan(&ingredientID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan recipe line: %w", err)
		}

		line.IngredientID, err = uuid.Parse(ingredientID)
		if err != nil {
			return nil, fmt.Errorf("invalid ingredient id %q: %w", ingredientID, err)
		}

		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipe lines: %w", err)
	}

	return lines, nil
}

func insertRecipeLines(ctx context.Context, tx *sql.Tx, recipe *models.Recipe) error {
	for _, line := range recipe.Ingredients {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, quantity) VALUES (?, ?, ?)`,
			recipe.ID.String(), line.IngredientID.String(), line.Quantity)
		if err != nil {
			err = mapSQLiteError(err)
			// A foreign key failure here means the referenced ingredient
			// does not exist in this database.
			if errors.Is(err, store.ErrIngredientInUse) {
				return fmt.Errorf("recipe line %s: %w", line.IngredientID, store.ErrIngredientNotFound)
			}
			return fmt.Errorf("failed to insert recipe line: %w", err)
		}
	}
	return nil
}

func scanRecipe(row rowScanner) (*models.Recipe, error) {
	var recipe models.Recipe
	var id string

	if err := row.Scan(&id, &recipe.Name, &recipe.Servings, &recipe.CreatedAt, &recipe.UpdatedAt); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid recipe id %q: %w", id, err)
	}
	recipe.ID = parsed

	return &recipe, nil
}
