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

// SupplierStore implements store.SupplierStore on SQLite.
type SupplierStore struct {
	db *sql.DB
}

// Create inserts a new supplier.
func (s *SupplierStore) Create(ctx context.Context, supplier *models.Supplier) error {
	query := `
		INSERT INTO suppliers (id, name, email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	supplier.CreatedAt = now
	supplier.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, query,
		supplier.ID.String(),
		supplier.Name,
		supplier.Email,
		supplier.CreatedAt,
		supplier.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create supplier: %w", mapSQLiteError(err))
	}

	return nil
}

// Get retrieves a supplier by ID.
func (s *SupplierStore) Get(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	query := `
		SELECT id, name, email, created_at, updated_at
		FROM suppliers
		WHERE id = ?
	`

	supplier, err := scanSupplier(s.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}

	return supplier, nil
}

// List returns all suppliers ordered by name.
func (s *SupplierStore) List(ctx context.Context) ([]*models.Supplier, error) {
	query := `
		SELECT id, name, email, created_at, updated_at
		FROM suppliers
		ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []*models.Supplier
	for rows.Next() {
		supplier, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, supplier)
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
		SET name = ?, email = ?, updated_at = ?
		WHERE id = ?
	`

	supplier.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, query,
		supplier.Name,
		supplier.Email,
		supplier.UpdatedAt,
		supplier.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update supplier: %w", mapSQLiteError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return store.ErrSupplierNotFound
	}

	return nil
}

// Delete removes a supplier. Ingredients referencing it keep existing with
// their supplier cleared (ON DELETE SET NULL).
func (s *SupplierStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete supplier: %w", mapSQLiteError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return store.ErrSupplierNotFound
	}

	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSupplier(row rowScanner) (*models.Supplier, error) {
	var supplier models.Supplier
	var id string

	if err := row.Scan(&id, &supplier.Name, &supplier.Email, &supplier.CreatedAt, &supplier.UpdatedAt); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid supplier id %q: %w", id, err)
	}
	supplier.ID = parsed

	return &supplier, nil
}
