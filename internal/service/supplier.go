package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kitchenops/platecost/internal/demo"
	"github.com/kitchenops/platecost/internal/models"
	"github.com/kitchenops/platecost/internal/store"
)

// SupplierService manages suppliers.
type SupplierService struct {
	shared store.Store
}

// NewSupplierService creates a supplier service with the shared durable
// store as its default backend.
func NewSupplierService(shared store.Store) *SupplierService {
	return &SupplierService{shared: shared}
}

// storeFor picks the store for one operation: an explicit override, the
// request's demo binding, or the shared durable store.
func (s *SupplierService) storeFor(ctx context.Context, explicit store.Store) store.Store {
	return demo.Resolve(ctx, explicit, s.shared)
}

// CreateSupplierInput holds the fields for creating or updating a supplier.
type CreateSupplierInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (in *CreateSupplierInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	return nil
}

// Create adds a new supplier.
func (s *SupplierService) Create(ctx context.Context, in CreateSupplierInput) (*models.Supplier, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	supplier := &models.Supplier{
		ID:    uuid.New(),
		Name:  in.Name,
		Email: in.Email,
	}

	if err := s.storeFor(ctx, nil).Suppliers().Create(ctx, supplier); err != nil {
		return nil, err
	}

	return supplier, nil
}

// Get returns one supplier by id.
func (s *SupplierService) Get(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	return s.storeFor(ctx, nil).Suppliers().Get(ctx, id)
}

// List returns all suppliers.
func (s *SupplierService) List(ctx context.Context) ([]*models.Supplier, error) {
	return s.storeFor(ctx, nil).Suppliers().List(ctx)
}

// Update replaces a supplier's attributes.
func (s *SupplierService) Update(ctx context.Context, id uuid.UUID, in CreateSupplierInput) (*models.Supplier, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	supplier := &models.Supplier{
		ID:    id,
		Name:  in.Name,
		Email: in.Email,
	}

	if err := s.storeFor(ctx, nil).Suppliers().Update(ctx, supplier); err != nil {
		return nil, err
	}

	return supplier, nil
}

// Delete removes a supplier.
func (s *SupplierService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.storeFor(ctx, nil).Suppliers().Delete(ctx, id)
}
