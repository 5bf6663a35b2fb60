package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kitchenops/platecost/internal/demo"
	"github.com/kitchenops/platecost/internal/models"
	"github.com/kitchenops/platecost/internal/store"
)

// RecipeService manages recipes and their ingredient lines.
type RecipeService struct {
	shared store.Store
}

// NewRecipeService creates a recipe service with the shared durable store as
// its default backend.
func NewRecipeService(shared store.Store) *RecipeService {
	return &RecipeService{shared: shared}
}

func (s *RecipeService) storeFor(ctx context.Context, explicit store.Store) store.Store {
	return demo.Resolve(ctx, explicit, s.shared)
}

// RecipeLineInput is one ingredient line of a recipe.
type RecipeLineInput struct {
	IngredientID uuid.UUID `json:"ingredientId"`
	Quantity     float64   `json:"quantity"`
}

// CreateRecipeInput holds the fields for creating or updating a recipe.
type CreateRecipeInput struct {
	Name        string            `json:"name"`
	Servings    int32             `json:"servings"`
	Ingredients []RecipeLineInput `json:"ingredients"`
}

func (in *CreateRecipeInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.Servings <= 0 {
		return fmt.Errorf("%w: servings must be positive", ErrValidation)
	}
	for _, line := range in.Ingredients {
		if line.IngredientID == uuid.Nil {
			return fmt.Errorf("%w: ingredient id is required on every line", ErrValidation)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
	}
	return nil
}

func (in *CreateRecipeInput) toModel(id uuid.UUID) *models.Recipe {
	recipe := &models.Recipe{
		ID:       id,
		Name:     in.Name,
		Servings: in.Servings,
	}
	for _, line := range in.Ingredients {
		recipe.Ingredients = append(recipe.Ingredients, models.RecipeIngredient{
			IngredientID: line.IngredientID,
			Quantity:     line.Quantity,
		})
	}
	return recipe
}

// Create adds a new recipe with its ingredient lines.
func (s *RecipeService) Create(ctx context.Context, in CreateRecipeInput) (*models.Recipe, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	recipe := in.toModel(uuid.New())
	if err := s.storeFor(ctx, nil).Recipes().Create(ctx, recipe); err != nil {
		return nil, err
	}

	return recipe, nil
}

// Get returns one recipe by id, lines included.
func (s *RecipeService) Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	return s.storeFor(ctx, nil).Recipes().Get(ctx, id)
}

// List returns all recipes.
func (s *RecipeService) List(ctx context.Context) ([]*models.Recipe, error) {
	return s.storeFor(ctx, nil).Recipes().List(ctx)
}

// Update replaces a recipe's attributes and full line set.
func (s *RecipeService) Update(ctx context.Context, id uuid.UUID, in CreateRecipeInput) (*models.Recipe, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	recipe := in.toModel(id)
	if err := s.storeFor(ctx, nil).Recipes().Update(ctx, recipe); err != nil {
		return nil, err
	}

	return recipe, nil
}

// Delete removes a recipe and its lines.
func (s *RecipeService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.storeFor(ctx, nil).Recipes().Delete(ctx, id)
}
