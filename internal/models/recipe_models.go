package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe describes the fixed ingredient composition of one portion of a
// dish. A dish has at most one recipe; a dish without a recipe is treated as
// unconstrained and is always sellable. An existing recipe never has an
// empty ingredient list — that is rejected at authoring time.
type Recipe struct {
	ID          int64              `json:"id" db:"id"`
	DishID      int64              `json:"dish_id" db:"dish_id"`
	DishName    string             `json:"dish_name,omitempty"`
	Description *string            `json:"description,omitempty" db:"description"`
	Ingredients []RecipeIngredient `json:"ingredients"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" db:"updated_at"`
}

// RecipeIngredient binds a warehouse item to a recipe with the quantity
// required for a single portion. Unit always matches the referenced
// warehouse item's unit.
type RecipeIngredient struct {
	ID                 int64           `json:"id" db:"id"`
	RecipeID           int64           `json:"recipe_id" db:"recipe_id"`
	ItemID             int64           `json:"item_id" db:"item_id"`
	ItemName           string          `json:"item_name,omitempty"`
	QuantityPerPortion decimal.Decimal `json:"quantity_per_portion" db:"quantity_per_portion"`
	Unit               string          `json:"unit" db:"unit"`
}
