package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kitchenops/platecost/internal/demo"
	"github.com/kitchenops/platecost/internal/models"
	"github.com/kitchenops/platecost/internal/store"
)

// IngredientService manages ingredients and their unit costs.
type IngredientService struct {
	shared store.Store
}

// NewIngredientService creates an ingredient service with the shared durable
// store as its default backend.
func NewIngredientService(shared store.Store) *IngredientService {
	return &IngredientService{shared: shared}
}

func (s *IngredientService) storeFor(ctx context.Context, explicit store.Store) store.Store {
	return demo.Resolve(ctx, explicit, s.shared)
}

// CreateIngredientInput holds the fields for creating or updating an ingredient.
type CreateIngredientInput struct {
	Name       string     `json:"name"`
	Unit       string     `json:"unit"`
	UnitCost   float64    `json:"unitCost"`
	SupplierID *uuid.UUID `json:"supplierId,omitempty"`
}

func (in *CreateIngredientInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.Unit == "" {
		return fmt.Errorf("%w: unit is required", ErrValidation)
	}
	if in.UnitCost < 0 {
		return fmt.Errorf("%w: unit cost must not be negative", ErrValidation)
	}
	return nil
}

// Create adds a new ingredient.
func (s *IngredientService) Create(ctx context.Context, in CreateIngredientInput) (*models.Ingredient, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	ingredient := &models.Ingredient{
		ID:         uuid.New(),
		SupplierID: in.SupplierID,
		Name:       in.Name,
		Unit:       in.Unit,
		UnitCost:   in.UnitCost,
	}

	if err := s.storeFor(ctx, nil).Ingredients().Create(ctx, ingredient); err != nil {
		return nil, err
	}

	return ingredient, nil
}

// Get returns one ingredient by id.
func (s *IngredientService) Get(ctx context.Context, id uuid.UUID) (*models.Ingredient, error) {
	return s.storeFor(ctx, nil).Ingredients().Get(ctx, id)
}

// List returns all ingredients.
func (s *IngredientService) List(ctx context.Context) ([]*models.Ingredient, error) {
	return s.storeFor(ctx, nil).Ingredients().List(ctx)
}

// Update replaces an ingredient's attributes.
func (s *IngredientService) Update(ctx context.Context, id uuid.UUID, in CreateIngredientInput) (*models.Ingredient, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	ingredient := &models.Ingredient{
		ID:         id,
		SupplierID: in.SupplierID,
		Name:       in.Name,
		Unit:       in.Unit,
		UnitCost:   in.UnitCost,
	}

	if err := s.storeFor(ctx, nil).Ingredients().Update(ctx, ingredient); err != nil {
		return nil, err
	}

	return ingredient, nil
}

// Delete removes an ingredient. Fails while any recipe still uses it.
func (s *IngredientService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.storeFor(ctx, nil).Ingredients().Delete(ctx, id)
}
