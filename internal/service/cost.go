package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kitchenops/platecost/internal/demo"
	"github.com/kitchenops/platecost/internal/store"
)

// CostService computes recipe cost breakdowns from current ingredient prices.
type CostService struct {
	shared store.Store
}

// NewCostService creates a cost service with the shared durable store as its
// default backend.
func NewCostService(shared store.Store) *CostService {
	return &CostService{shared: shared}
}

// CostLine is the cost contribution of one ingredient line.
type CostLine struct {
	IngredientID   uuid.UUID `json:"ingredientId"`
	IngredientName string    `json:"ingredientName"`
	Unit           string    `json:"unit"`
	Quantity       float64   `json:"quantity"`
	UnitCost       float64   `json:"unitCost"`
	LineCost       float64   `json:"lineCost"`
}

// CostBreakdown is the full costing of one recipe at current prices.
type CostBreakdown struct {
	RecipeID       uuid.UUID  `json:"recipeId"`
	RecipeName     string     `json:"recipeName"`
	Servings       int32      `json:"servings"`
	Lines          []CostLine `json:"lines"`
	TotalCost      float64    `json:"totalCost"`
	CostPerServing float64    `json:"costPerServing"`
	FoodCostTarget float64    `json:"foodCostTarget"`
	SuggestedPrice float64    `json:"suggestedPrice"`
}

// DefaultFoodCostTarget is the target ingredient-cost fraction of the menu
// price used when the caller does not supply one.
const DefaultFoodCostTarget = 0.3

// RecipeCost builds the cost breakdown for one recipe. target is the food
// cost fraction for the suggested price; zero means DefaultFoodCostTarget.
// The store is resolved once and then passed down explicitly so every read
// in the breakdown sees the same backend.
func (s *CostService) RecipeCost(ctx context.Context, id uuid.UUID, target float64) (*CostBreakdown, error) {
	if target == 0 {
		target = DefaultFoodCostTarget
	}
	if target < 0 || target > 1 {
		return nil, fmt.Errorf("%w: food cost target must be between 0 and 1", ErrValidation)
	}

	st := demo.Resolve(ctx, nil, s.shared)
	return s.recipeCost(ctx, st, id, target)
}

func (s *CostService) recipeCost(ctx context.Context, st store.Store, id uuid.UUID, target float64) (*CostBreakdown, error) {
	recipe, err := st.Recipes().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	breakdown := &CostBreakdown{
		RecipeID:       recipe.ID,
		RecipeName:     recipe.Name,
		Servings:       recipe.Servings,
		FoodCostTarget: target,
	}

	for _, line := range recipe.Ingredients {
		ingredient, err := st.Ingredients().Get(ctx, line.IngredientID)
		if err != nil {
			return nil, fmt.Errorf("costing recipe %s: %w", recipe.ID, err)
		}

		lineCost := line.Quantity * ingredient.UnitCost
		breakdown.Lines = append(breakdown.Lines, CostLine{
			IngredientID:   ingredient.ID,
			IngredientName: ingredient.Name,
			Unit:           ingredient.Unit,
			Quantity:       line.Quantity,
			UnitCost:       ingredient.UnitCost,
			LineCost:       lineCost,
		})
		breakdown.TotalCost += lineCost
	}

	if recipe.Servings > 0 {
		breakdown.CostPerServing = breakdown.TotalCost / float64(recipe.Servings)
		breakdown.SuggestedPrice = breakdown.CostPerServing / target
	}

	return breakdown, nil
}
