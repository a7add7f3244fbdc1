package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"restaurant_pos_backend/internal/models"

	"github.com/lib/pq"
)

// RecipeRepository defines the interface for recipe database access. The
// fulfillment engine only ever reads through GetRecipeByDishID; the write
// methods serve the authoring endpoints used by kitchen management.
type RecipeRepository interface {
	CreateRecipe(executor SQLExecutor, recipe *models.Recipe) (int64, error)
	GetRecipeByID(executor SQLExecutor, recipeID int64) (*models.Recipe, error)
	GetRecipeByDishID(executor SQLExecutor, dishID int64) (*models.Recipe, error)
	GetRecipes(page, pageSize int) ([]models.Recipe, int, error)
	ReplaceIngredients(executor SQLExecutor, recipeID int64, ingredients []models.RecipeIngredient) error
	DeleteRecipe(executor SQLExecutor, recipeID int64) error
}

type recipeRepository struct {
	db *sql.DB
}

// NewRecipeRepository creates a new instance of RecipeRepository.
func NewRecipeRepository(db *sql.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) CreateRecipe(executor SQLExecutor, recipe *models.Recipe) (int64, error) {
	query := `INSERT INTO recipes (dish_id, description, created_at, updated_at)
	          VALUES ($1, $2, NOW(), NOW())
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRow(query, recipe.DishID, recipe.Description).
		Scan(&recipe.ID, &recipe.CreatedAt, &recipe.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: dish %d already has a recipe (constraint: %s)", ErrDuplicateKey, recipe.DishID, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating recipe: %v", ErrDatabaseError, err)
	}
	if err := r.insertIngredients(executor, recipe.ID, recipe.Ingredients); err != nil {
		return 0, err
	}
	return recipe.ID, nil
}

func (r *recipeRepository) insertIngredients(executor SQLExecutor, recipeID int64, ingredients []models.RecipeIngredient) error {
	query := `INSERT INTO recipe_ingredients (recipe_id, item_id, quantity_per_portion, unit)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	for i := range ingredients {
		ingredients[i].RecipeID = recipeID
		err := executor.QueryRow(query,
			recipeID, ingredients[i].ItemID, ingredients[i].QuantityPerPortion, ingredients[i].Unit,
		).Scan(&ingredients[i].ID)
		if err != nil {
			return fmt.Errorf("%w: inserting recipe ingredient (item %d): %v", ErrDatabaseError, ingredients[i].ItemID, err)
		}
	}
	return nil
}

func (r *recipeRepository) getRecipe(executor SQLExecutor, where string, arg interface{}) (*models.Recipe, error) {
	recipe := &models.Recipe{}
	query := `SELECT re.id, re.dish_id, re.description, re.created_at, re.updated_at, mi.name
	          FROM recipes re
	          JOIN menu_items mi ON re.dish_id = mi.id
	          WHERE ` + where
	err := executor.QueryRow(query, arg).Scan(
		&recipe.ID, &recipe.DishID, &recipe.Description, &recipe.CreatedAt, &recipe.UpdatedAt, &recipe.DishName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting recipe: %v", ErrDatabaseError, err)
	}
	if recipe.Ingredients, err = r.getIngredients(executor, recipe.ID); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (r *recipeRepository) getIngredients(executor SQLExecutor, recipeID int64) ([]models.RecipeIngredient, error) {
	ingredients := []models.RecipeIngredient{}
	query := `SELECT ri.id, ri.recipe_id, ri.item_id, ri.quantity_per_portion, ri.unit, wi.name
	          FROM recipe_ingredients ri
	          JOIN warehouse_items wi ON ri.item_id = wi.id
	          WHERE ri.recipe_id = $1
	          ORDER BY ri.id`
	rows, err := executor.Query(query, recipeID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting recipe ingredients: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ing models.RecipeIngredient
		if err := rows.Scan(&ing.ID, &ing.RecipeID, &ing.ItemID, &ing.QuantityPerPortion, &ing.Unit, &ing.ItemName); err != nil {
			return nil, fmt.Errorf("%w: scanning recipe ingredient: %v", ErrDatabaseError, err)
		}
		ingredients = append(ingredients, ing)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating recipe ingredients: %v", ErrDatabaseError, err)
	}
	return ingredients, nil
}

func (r *recipeRepository) GetRecipeByID(executor SQLExecutor, recipeID int64) (*models.Recipe, error) {
	return r.getRecipe(executor, "re.id = $1", recipeID)
}

// GetRecipeByDishID returns ErrNotFound when the dish has no recipe. For the
// reservation engine that is a meaningful answer (the dish is unconstrained),
// not a failure.
func (r *recipeRepository) GetRecipeByDishID(executor SQLExecutor, dishID int64) (*models.Recipe, error) {
	return r.getRecipe(executor, "re.dish_id = $1", dishID)
}

func (r *recipeRepository) GetRecipes(page, pageSize int) ([]models.Recipe, int, error) {
	recipes := []models.Recipe{}
	totalCount := 0

	query := `SELECT re.id, re.dish_id, re.description, re.created_at, re.updated_at, mi.name,
	                 COUNT(*) OVER() AS total_count
	          FROM recipes re
	          JOIN menu_items mi ON re.dish_id = mi.id
	          ORDER BY mi.name LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting recipes: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipe models.Recipe
		if err := rows.Scan(
			&recipe.ID, &recipe.DishID, &recipe.Description, &recipe.CreatedAt,
			&recipe.UpdatedAt, &recipe.DishName, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning recipe: %v", ErrDatabaseError, err)
		}
		recipes = append(recipes, recipe)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating recipes: %v", ErrDatabaseError, err)
	}

	for i := range recipes {
		if recipes[i].Ingredients, err = r.getIngredients(r.db, recipes[i].ID); err != nil {
			return nil, 0, err
		}
	}
	return recipes, totalCount, nil
}

// ReplaceIngredients rewrites the full ingredient list of a recipe and bumps
// its updated_at. Callers validate that the replacement list is non-empty.
func (r *recipeRepository) ReplaceIngredients(executor SQLExecutor, recipeID int64, ingredients []models.RecipeIngredient) error {
	result, err := executor.Exec(`UPDATE recipes SET updated_at = NOW() WHERE id = $1`, recipeID)
	if err != nil {
		return fmt.Errorf("%w: touching recipe %d: %v", ErrDatabaseError, recipeID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking recipe update: %v", ErrDatabaseError, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	if _, err := executor.Exec(`DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipeID); err != nil {
		return fmt.Errorf("%w: clearing recipe ingredients: %v", ErrDatabaseError, err)
	}
	return r.insertIngredients(executor, recipeID, ingredients)
}

func (r *recipeRepository) DeleteRecipe(executor SQLExecutor, recipeID int64) error {
	if _, err := executor.Exec(`DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipeID); err != nil {
		return fmt.Errorf("%w: deleting recipe ingredients: %v", ErrDatabaseError, err)
	}
	result, err := executor.Exec(`DELETE FROM recipes WHERE id = $1`, recipeID)
	if err != nil {
		return fmt.Errorf("%w: deleting recipe %d: %v", ErrDatabaseError, recipeID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking recipe deletion: %v", ErrDatabaseError, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
