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

// IngredientStore implements store.IngredientStore using PostgreSQL.
type IngredientStore struct {
	pool *pgxpool.Pool
}

// Create inserts a new ingredient.
func (s *IngredientStore) Create(ctx context.Context, ingredient *models.Ingredient) error {
	query := `
		INSERT INTO ingredients (id, supplier_id, name, unit, unit_cost, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	now := time.Now().UTC()
	ingredient.CreatedAt = now
	ingredient.UpdatedAt = now

	_, err := s.pool.Exec(ctx, query,
		ingredient.ID,
		ingredient.SupplierID,
		ingredient.Name,
		ingredient.Unit,
		ingredient.UnitCost,
		ingredient.CreatedAt,
		ingredient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ingredient: %w", mapPostgresError(err))
	}

	return nil
}

// Get retrieves an ingredient by ID.
func (s *IngredientStore) Get(ctx context.Context, id uuid.UUID) (*models.Ingredient, error) {
	query := `
		SELECT id, supplier_id, name, unit, unit_cost, created_at, updated_at
		FROM ingredients
		WHERE id = $1
	`

	var ingredient models.Ingredient
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&ingredient.ID,
		&ingredient.SupplierID,
		&ingredient.Name,
		&ingredient.Unit,
		&ingredient.UnitCost,
		&ingredient.CreatedAt,
		&ingredient.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrIngredientNotFound
		}
		return nil, fmt.Errorf("failed to get ingredient: %w", mapPostgresError(err))
	}

	return &ingredient, nil
}

// List returns all ingredients ordered by name.
func (s *IngredientStore) List(ctx context.Context) ([]*models.Ingredient, error) {
	query := `
		SELECT id, supplier_id, name, unit, unit_cost, created_at, updated_at
		FROM ingredients
		ORDER BY name
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var ingredients []*models.Ingredient
	for rows.Next() {
		var ingredient models.Ingredient
		err := rows.Scan(
			&ingredient.ID,
			&ingredient.SupplierID,
			&ingredient.Name,
			&ingredient.Unit,
			&ingredient.UnitCost,
			&ingredient.CreatedAt,
			&ingredient.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		ingredients = append(ingredients, &ingredient)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ingredients: %w", err)
	}

	return ingredients, nil
}

// Update modifies an existing ingredient.
func (s *IngredientStore) Update(ctx context.Context, ingredient *models.Ingredient) error {
	query := `
		UPDATE ingredients
		SET supplier_id = $2, name = $3, unit = $4, unit_cost = $5, updated_at = $6
		WHERE id = $1
	`

	ingredient.UpdatedAt = time.Now().UTC()

	tag, err := s.pool.Exec(ctx, query,
		ingredient.ID,
		ingredient.SupplierID,
		ingredient.Name,
		ingredient.Unit,
		ingredient.UnitCost,
		ingredient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update ingredient: %w", mapPostgresError(err))
	}

	if tag.RowsAffected() == 0 {
		return store.ErrIngredientNotFound
	}

	return nil
}

// Delete removes an ingredient. Fails with ErrIngredientInUse while any
// recipe still references it.
func (s *IngredientStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM ingredients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ingredient: %w", mapPostgresError(err))
	}

	if tag.RowsAffected() == 0 {
		return store.ErrIngredientNotFound
	}

	return nil
}
