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

// SupplierStore implements store.SupplierStore using PostgreSQL.
type SupplierStore struct {
	pool *pgxpool.Pool
}

// Create inserts a new supplier.
func (s *SupplierStore) Create(ctx context.Context, supplier *models.Supplier) error {
	query := `
		INSERT INTO suppliers (id, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	now := time.Now().UTC()
	supplier.CreatedAt = now
	supplier.UpdatedAt = now

	_, err := s.pool.Exec(ctx, query,
		supplier.ID,
		supplier.Name,
		supplier.Email,
		supplier.CreatedAt,
		supplier.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create supplier: %w", mapPostgresError(err))
	}

	return nil
}

// Get retrieves a supplier by ID.
func (s *SupplierStore) Get(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	query := `
		SELECT id, name, email, created_at, updated_at
		FROM suppliers
		WHERE id = $1
	`

	var supplier models.Supplier
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&supplier.ID,
		&supplier.Name,
		&supplier.Email,
		&supplier.CreatedAt,
		&supplier.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to get supplier: %w", mapPostgresError(err))
	}

	return &supplier, nil
}

// List returns all suppliers ordered by name.
func (s *SupplierStore) List(ctx context.Context) ([]*models.Supplier, error) {
	query := `
		SELECT id, name, email, created_at, updated_at
		FROM suppliers
		ORDER BY name
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var suppliers []*models.Supplier
	for rows.Next() {
		var supplier models.Supplier
		err := rows.Scan(
			&supplier.ID,
			&supplier.Name,
			&supplier.Email,
			&supplier.CreatedAt,
			&supplier.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, &supplier)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate suppliers: %w", err)
	}

	return suppliers, nil
}

// Update modifies an existing supplier.
func (s *SupplierStore) Update(ctx context.Context, supplier *models.Supplier) error {
	query := `
		UPDATE suppliers
		SET name = $2, email = $3, updated_at = $4
		WHERE id = $1
	`

	supplier.UpdatedAt = time.Now().UTC()

	tag, err := s.pool.Exec(ctx, query,
		supplier.ID,
		supplier.Name,
		supplier.Email,
		supplier.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update supplier: %w", mapPostgresError(err))
	}

	if tag.RowsAffected() == 0 {
		return store.ErrSupplierNotFound
	}

	return nil
}

// Delete removes a supplier. Ingredients referencing it keep existing with
// their supplier cleared (ON DELETE SET NULL).
func (s *SupplierStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete supplier: %w", mapPostgresError(err))
	}

	if tag.RowsAffected() == 0 {
		return store.ErrSupplierNotFound
	}

	return nil
}
