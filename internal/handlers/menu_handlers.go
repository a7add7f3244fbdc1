package handlers

import (
	"errors"
	"net/http"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// MenuHandler exposes the read-only menu catalog. Menu authoring lives in a
// separate administration system; this service only sells what it is given.
type MenuHandler struct {
	menuRepo repositories.MenuRepository
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(mr repositories.MenuRepository) *MenuHandler {
	return &MenuHandler{menuRepo: mr}
}

// GetDishes handles fetching menu dishes with pagination.
func (h *MenuHandler) GetDishes(c *gin.Context) {
	page, pageSize, ok := parsePagination(c, 20)
	if !ok {
		return
	}
	dishes, total, err := h.menuRepo.GetDishes(page, pageSize)
	if err != nil {
		utils.LogError(err, "GetDishes: Error from menuRepo.GetDishes")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch menu.", "Internal error"))
		return
	}
	if dishes == nil {
		dishes = []models.MenuItem{}
	}
	c.JSON(http.StatusOK, paginated(dishes, total, page, pageSize))
}

// GetDishByID handles fetching a single menu dish.
func (h *MenuHandler) GetDishByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	dish, err := h.menuRepo.GetDishByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Dish not found.", ""))
			return
		}
		utils.LogError(err, "GetDishByID: Error from menuRepo.GetDishByID")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch dish.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, dish)
}
