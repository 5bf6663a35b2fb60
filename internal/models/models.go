package models

import (
	"time"

	"github.com/google/uuid"
)

// Supplier represents a vendor that ingredients are purchased from.
type Supplier struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Ingredient represents a purchasable ingredient with its current unit cost.
// UnitCost is the price per Unit (e.g. per gram, per millilitre, per item).
type Ingredient struct {
	ID         uuid.UUID  `json:"id"`
	SupplierID *uuid.UUID `json:"supplierId,omitempty"` // nil when no supplier is recorded
	Name       string     `json:"name"`
	Unit       string     `json:"unit"`
	UnitCost   float64    `json:"unitCost"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Recipe represents a dish with its ingredient lines.
type Recipe struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Servings int32     `json:"servings"`

	Ingredients []RecipeIngredient `json:"ingredients"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RecipeIngredient is a single line of a recipe: how much of one ingredient
// the recipe uses, expressed in the ingredient's own unit.
type RecipeIngredient struct {
	IngredientID uuid.UUID `json:"ingredientId"`
	Quantity     float64   `json:"quantity"`
}
