package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// RecipeHandler holds the recipe service.
type RecipeHandler struct {
	recipeService services.RecipeService
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(rs services.RecipeService) *RecipeHandler {
	return &RecipeHandler{recipeService: rs}
}

// CreateRecipe handles authoring a recipe for a dish.
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req services.CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateRecipe: Failed to bind JSON")
		return
	}
	recipe, err := h.recipeService.CreateRecipe(req)
	if err != nil {
		respondServiceError(c, err, "CreateRecipe: Error from recipeService.CreateRecipe")
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

// GetRecipes handles fetching recipes with pagination.
func (h *RecipeHandler) GetRecipes(c *gin.Context) {
	page, pageSize, ok := parsePagination(c, 10)
	if !ok {
		return
	}
	recipes, total, err := h.recipeService.GetRecipes(page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetRecipes: Error from recipeService.GetRecipes")
		return
	}
	if recipes == nil {
		recipes = []models.Recipe{}
	}
	c.JSON(http.StatusOK, paginated(recipes, total, page, pageSize))
}

// GetRecipeForDish handles looking up the recipe behind a menu dish. A dish
// without a recipe answers 404; the engine treats such dishes as
// unconstrained, but for the catalog API the absence is a plain not-found.
func (h *RecipeHandler) GetRecipeForDish(c *gin.Context) {
	dishID, ok := parseIDParam(c, "dishId")
	if !ok {
		return
	}
	recipe, err := h.recipeService.RecipeForDish(dishID)
	if err != nil {
		respondServiceError(c, err, "GetRecipeForDish: Error from recipeService.RecipeForDish")
		return
	}
	if recipe == nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Dish has no recipe.", ""))
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// ReviseRecipe handles rewriting a recipe's ingredient list.
func (h *RecipeHandler) ReviseRecipe(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.ReviseRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "ReviseRecipe: Failed to bind JSON")
		return
	}
	recipe, err := h.recipeService.ReviseRecipe(id, req)
	if err != nil {
		respondServiceError(c, err, "ReviseRecipe: Error from recipeService.ReviseRecipe")
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// DeleteRecipe handles removing a recipe; the dish becomes unconstrained.
func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.recipeService.DeleteRecipe(id); err != nil {
		respondServiceError(c, err, "DeleteRecipe: Error from recipeService.DeleteRecipe")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recipe deleted successfully"})
}
