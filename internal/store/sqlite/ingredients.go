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

// IngredientStore implements store.IngredientStore on SQLite.
type IngredientStore struct {
	db *sql.DB
}

// Create inserts a new ingredient.
func (s *IngredientStore) Create(ctx context.Context, ingredient *models.Ingredient) error {
	query := `
		INSERT INTO ingredients (id, supplier_id, name, unit, unit_cost, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	ingredient.CreatedAt = now
	ingredient.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, query,
		ingredient.ID.String(),
		uuidPtrToString(ingredient.SupplierID),
		ingredient.Name,
		ingredient.Unit,
		ingredient.UnitCost,
		ingredient.CreatedAt,
		ingredient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ingredient: %w", mapSQLiteError(err))
	}

	return nil
}

// Get retrieves an ingredient by ID.
func (s *IngredientStore) Get(ctx context.Context, id uuid.UUID) (*models.Ingredient, error) {
	query := `
		SELECT id, supplier_id, name, unit, unit_cost, created_at, updated_at
		FROM ingredients
		WHERE id = ?
	`

	ingredient, err := scanIngredient(s.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrIngredientNotFound
		}
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}

	return ingredient, nil
}

// List returns all ingredients ordered by name.
func (s *IngredientStore) List(ctx context.Context) ([]*models.Ingredient, error) {
	query := `
		SELECT id, supplier_id, name, unit, unit_cost, created_at, updated_at
		FROM ingredients
		ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer rows.Close()

	var ingredients []*models.Ingredient
	for rows.Next() {
		ingredient, err := scanIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		ingredients = append(ingredients, ingredient)
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
		SET supplier_id = ?, name = ?, unit = ?, unit_cost = ?, updated_at = ?
		WHERE id = ?
	`

	ingredient.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, query,
		uuidPtrToString(ingredient.SupplierID),
		ingredient.Name,
		ingredient.Unit,
		ingredient.UnitCost,
		ingredient.UpdatedAt,
		ingredient.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update ingredient: %w", mapSQLiteError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return store.ErrIngredientNotFound
	}

	return nil
}

// Delete removes an ingredient. Fails with ErrIngredientInUse while any
// recipe still references it.
func (s *IngredientStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM ingredients WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete ingredient: %w", mapSQLiteError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return store.ErrIngredientNotFound
	}

	return nil
}

func scanIngredient(row rowScanner) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	var id string
	var supplierID sql.NullString

	err := row.Scan(&id, &supplierID, &ingredient.Name, &ingredient.Unit,
		&ingredient.UnitCost, &ingredient.CreatedAt, &ingredient.UpdatedAt)
	if err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid ingredient id %q: %w", id, err)
	}
	ingredient.ID = parsed

	if supplierID.Valid {
		sid, err := uuid.Parse(supplierID.String)
		if err != nil {
			return nil, fmt.Errorf("invalid supplier id %q: %w", supplierID.String, err)
		}
		ingredient.SupplierID = &sid
	}

	return &ingredient, nil
}

// uuidPtrToString converts an optional UUID to a nullable bind value.
func uuidPtrToString(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
