package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// ShortageDetail reports one ingredient deficit that prevented a reservation.
// Callers render the whole list at once so kitchen staff can restock in a
// single trip.
type ShortageDetail struct {
	IngredientID   int64           `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name"`
	Required       decimal.Decimal `json:"required"`
	Available      decimal.Decimal `json:"available"`
	Unit           string          `json:"unit"`
}

// InsufficientStockError carries every shortage found by a single check, not
// just the first one.
type InsufficientStockError struct {
	Shortages []ShortageDetail
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (required %s %s, available %s %s)",
			s.IngredientName, s.Required, s.Unit, s.Available, s.Unit))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

// ReservationEngine converts recipe requirements into stock movements. Both
// methods must run inside a transaction supplied by the caller: every
// touched ingredient row is locked for the duration, so concurrent
// reservations against the same ingredient serialize while reservations for
// disjoint ingredient sets proceed independently.
type ReservationEngine interface {
	Reserve(tx repositories.SQLExecutor, dishID int64, dishName string, portions int, orderID int64, actor string) error
	Release(tx repositories.SQLExecutor, dishID int64, dishName string, portions int, orderID int64, actor string) error
}

type reservationEngine struct {
	recipeRepo    repositories.RecipeRepository
	warehouseRepo repositories.WarehouseRepository
}

// NewReservationEngine creates a new instance of ReservationEngine.
func NewReservationEngine(rr repositories.RecipeRepository, wr repositories.WarehouseRepository) ReservationEngine {
	return &reservationEngine{recipeRepo: rr, warehouseRepo: wr}
}

type ingredientDemand struct {
	ingredient models.RecipeIngredient
	required   decimal.Decimal
}

// demandFor resolves the dish's recipe and computes per-ingredient totals for
// the requested portion count, sorted by warehouse item id. The stable lock
// order is what keeps concurrent multi-ingredient reservations deadlock-free.
// A dish without a recipe yields a nil demand: such dishes are deliberately
// unconstrained and always sellable.
func (e *reservationEngine) demandFor(tx repositories.SQLExecutor, dishID int64, portions int) ([]ingredientDemand, error) {
	recipe, err := e.recipeRepo.GetRecipeByDishID(tx, dishID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve recipe for dish %d: %w", dishID, err)
	}

	portionCount := decimal.NewFromInt(int64(portions))
	demands := make([]ingredientDemand, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		demands = append(demands, ingredientDemand{
			ingredient: ing,
			required:   ing.QuantityPerPortion.Mul(portionCount),
		})
	}
	sort.Slice(demands, func(i, j int) bool {
		return demands[i].ingredient.ItemID < demands[j].ingredient.ItemID
	})
	return demands, nil
}

// Reserve checks and deducts the stock for portions of a dish, all or
// nothing. The check phase locks every ingredient row and examines that
// single consistent snapshot without mutating anything; only when every
// ingredient is sufficient does the deduction phase run, one guarded
// decrement and one outgoing operation per ingredient.
func (e *reservationEngine) Reserve(tx repositories.SQLExecutor, dishID int64, dishName string, portions int, orderID int64, actor string) error {
	if portions <= 0 {
		return fmt.Errorf("%w: portions must be positive", ErrValidation)
	}
	demands, err := e.demandFor(tx, dishID, portions)
	if err != nil || demands == nil {
		return err
	}

	var shortages []ShortageDetail
	for i := range demands {
		item, err := e.warehouseRepo.GetItemForUpdate(tx, demands[i].ingredient.ItemID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				// The ingredient was removed from the warehouse after the
				// recipe referenced it; report it as fully missing.
				shortages = append(shortages, ShortageDetail{
					IngredientID:   demands[i].ingredient.ItemID,
					IngredientName: demands[i].ingredient.ItemName,
					Required:       demands[i].required,
					Available:      decimal.Zero,
					Unit:           demands[i].ingredient.Unit,
				})
				continue
			}
			return fmt.Errorf("failed to lock ingredient %d: %w", demands[i].ingredient.ItemID, err)
		}
		if item.Quantity.LessThan(demands[i].required) {
			shortages = append(shortages, ShortageDetail{
				IngredientID:   item.ID,
				IngredientName: item.Name,
				Required:       demands[i].required,
				Available:      item.Quantity,
				Unit:           item.Unit,
			})
		}
	}
	if len(shortages) > 0 {
		return &InsufficientStockError{Shortages: shortages}
	}

	notes := fmt.Sprintf("Order #%d: %s x%d", orderID, dishName, portions)
	for i := range demands {
		if _, err := e.warehouseRepo.AdjustQuantity(tx, demands[i].ingredient.ItemID, demands[i].required.Neg()); err != nil {
			return fmt.Errorf("failed to deduct ingredient %d: %w", demands[i].ingredient.ItemID, err)
		}
		op := &models.WarehouseOperation{
			ItemID:   demands[i].ingredient.ItemID,
			Kind:     models.OperationOutgoing,
			Quantity: demands[i].required.Neg(),
			Unit:     demands[i].ingredient.Unit,
			OrderID:  &orderID,
			Notes:    &notes,
			Actor:    actor,
		}
		if _, err := e.warehouseRepo.CreateOperation(tx, op); err != nil {
			return fmt.Errorf("failed to record outgoing operation for ingredient %d: %w", demands[i].ingredient.ItemID, err)
		}
	}
	return nil
}

// Release returns the stock previously reserved for portions of a dish, one
// incoming operation per ingredient. It follows the same lock order as
// Reserve.
func (e *reservationEngine) Release(tx repositories.SQLExecutor, dishID int64, dishName string, portions int, orderID int64, actor string) error {
	if portions <= 0 {
		return fmt.Errorf("%w: portions must be positive", ErrValidation)
	}
	demands, err := e.demandFor(tx, dishID, portions)
	if err != nil || demands == nil {
		return err
	}

	notes := fmt.Sprintf("Order #%d: %s x%d returned to stock", orderID, dishName, portions)
	for i := range demands {
		if _, err := e.warehouseRepo.GetItemForUpdate(tx, demands[i].ingredient.ItemID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				// Nothing to re-credit when the item no longer exists.
				continue
			}
			return fmt.Errorf("failed to lock ingredient %d: %w", demands[i].ingredient.ItemID, err)
		}
		if _, err := e.warehouseRepo.AdjustQuantity(tx, demands[i].ingredient.ItemID, demands[i].required); err != nil {
			return fmt.Errorf("failed to restore ingredient %d: %w", demands[i].ingredient.ItemID, err)
		}
		op := &models.WarehouseOperation{
			ItemID:   demands[i].ingredient.ItemID,
			Kind:     models.OperationIncoming,
			Quantity: demands[i].required,
			Unit:     demands[i].ingredient.Unit,
			OrderID:  &orderID,
			Notes:    &notes,
			Actor:    actor,
		}
		if _, err := e.warehouseRepo.CreateOperation(tx, op); err != nil {
			return fmt.Errorf("failed to record incoming operation for ingredient %d: %w", demands[i].ingredient.ItemID, err)
		}
	}
	return nil
}
