package services

import (
	"database/sql"
	"errors"
	"fmt"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// --- Custom Service Errors ---
var (
	ErrRecipeNotFound = errors.New("recipe not found")
	ErrRecipeExists   = errors.New("dish already has a recipe")
	ErrDishNotFound   = errors.New("dish not found")
)

// --- Data Transfer Objects (DTOs) ---

// RecipeIngredientRequest is one ingredient entry in a recipe payload.
type RecipeIngredientRequest struct {
	ItemID             int64   `json:"item_id" binding:"required"`
	QuantityPerPortion float64 `json:"quantity_per_portion" binding:"required,gt=0"`
}

// CreateRecipeRequest is used to author a new recipe for a dish.
type CreateRecipeRequest struct {
	DishID      int64                     `json:"dish_id" binding:"required"`
	Description *string                   `json:"description"`
	Ingredients []RecipeIngredientRequest `json:"ingredients" binding:"required,dive"`
}

// ReviseRecipeRequest rewrites a recipe's description and full ingredient
// list. Partial patches are not supported: the replacement list is the new
// truth.
type ReviseRecipeRequest struct {
	Description *string                   `json:"description"`
	Ingredients []RecipeIngredientRequest `json:"ingredients" binding:"required,dive"`
}

// --- RecipeService Interface ---

// RecipeService is the recipe catalog. The fulfillment engine only reads it;
// the authoring methods exist for kitchen management.
type RecipeService interface {
	CreateRecipe(req CreateRecipeRequest) (*models.Recipe, error)
	ReviseRecipe(recipeID int64, req ReviseRecipeRequest) (*models.Recipe, error)
	DeleteRecipe(recipeID int64) error
	GetRecipes(page, pageSize int) ([]models.Recipe, int, error)
	// RecipeForDish returns (nil, nil) when the dish has no recipe: an
	// unconstrained dish is a valid, meaningful state, not an error.
	RecipeForDish(dishID int64) (*models.Recipe, error)
}

// --- recipeService Implementation ---

type recipeService struct {
	recipeRepo    repositories.RecipeRepository
	menuRepo      repositories.MenuRepository
	warehouseRepo repositories.WarehouseRepository
	txManager     repositories.TxManager
	db            *sql.DB
}

// NewRecipeService creates a new instance of RecipeService.
func NewRecipeService(
	rr repositories.RecipeRepository,
	mr repositories.MenuRepository,
	wr repositories.WarehouseRepository,
	txm repositories.TxManager,
	db *sql.DB,
) RecipeService {
	return &recipeService{
		recipeRepo:    rr,
		menuRepo:      mr,
		warehouseRepo: wr,
		txManager:     txm,
		db:            db,
	}
}

// buildIngredients validates an ingredient payload against the warehouse: an
// empty list is rejected here, at authoring time, so the engine never meets
// an empty recipe; every entry must reference an existing item, and its unit
// is taken from that item so recipe and warehouse units cannot diverge.
func (s *recipeService) buildIngredients(reqs []RecipeIngredientRequest) ([]models.RecipeIngredient, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: a recipe must have at least one ingredient", ErrValidation)
	}
	seen := make(map[int64]bool, len(reqs))
	ingredients := make([]models.RecipeIngredient, 0, len(reqs))
	for _, req := range reqs {
		if req.QuantityPerPortion <= 0 {
			return nil, fmt.Errorf("%w: quantity per portion must be positive for item %d", ErrValidation, req.ItemID)
		}
		if seen[req.ItemID] {
			return nil, fmt.Errorf("%w: item %d listed twice", ErrValidation, req.ItemID)
		}
		seen[req.ItemID] = true

		item, err := s.warehouseRepo.GetItemByID(s.db, req.ItemID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: warehouse item %d", ErrItemNotFound, req.ItemID)
			}
			return nil, fmt.Errorf("failed to fetch warehouse item %d: %w", req.ItemID, err)
		}
		ingredients = append(ingredients, models.RecipeIngredient{
			ItemID:             item.ID,
			ItemName:           item.Name,
			QuantityPerPortion: decimal.NewFromFloat(req.QuantityPerPortion),
			Unit:               item.Unit,
		})
	}
	return ingredients, nil
}

func (s *recipeService) CreateRecipe(req CreateRecipeRequest) (*models.Recipe, error) {
	dish, err := s.menuRepo.GetDishByID(req.DishID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: dish %d", ErrDishNotFound, req.DishID)
		}
		return nil, fmt.Errorf("failed to fetch dish %d: %w", req.DishID, err)
	}

	ingredients, err := s.buildIngredients(req.Ingredients)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		DishID:      dish.ID,
		DishName:    dish.Name,
		Description: req.Description,
		Ingredients: ingredients,
	}
	err = s.txManager.WithinTx(func(tx repositories.SQLExecutor) error {
		if _, err := s.recipeRepo.CreateRecipe(tx, recipe); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return fmt.Errorf("%w: dish %d", ErrRecipeExists, req.DishID)
			}
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

func (s *recipeService) ReviseRecipe(recipeID int64, req ReviseRecipeRequest) (*models.Recipe, error) {
	if _, err := s.recipeRepo.GetRecipeByID(s.db, recipeID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to find recipe for revision: %w", err)
	}

	ingredients, err := s.buildIngredients(req.Ingredients)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithinTx(func(tx repositories.SQLExecutor) error {
		if err := s.recipeRepo.ReplaceIngredients(tx, recipeID, ingredients); err != nil {
			return fmt.Errorf("failed to replace recipe ingredients: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.recipeRepo.GetRecipeByID(s.db, recipeID)
}

func (s *recipeService) DeleteRecipe(recipeID int64) error {
	err := s.txManager.WithinTx(func(tx repositories.SQLExecutor) error {
		return s.recipeRepo.DeleteRecipe(tx, recipeID)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrRecipeNotFound
		}
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return nil
}

func (s *recipeService) GetRecipes(page, pageSize int) ([]models.Recipe, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	recipes, totalCount, err := s.recipeRepo.GetRecipes(page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get recipes: %w", err)
	}
	return recipes, totalCount, nil
}

func (s *recipeService) RecipeForDish(dishID int64) (*models.Recipe, error) {
	recipe, err := s.recipeRepo.GetRecipeByDishID(s.db, dishID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe for dish %d: %w", dishID, err)
	}
	return recipe, nil
}
