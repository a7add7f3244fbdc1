package handlers

import (
	"net/http"
	"strconv"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// WarehouseHandler holds the warehouse service.
type WarehouseHandler struct {
	warehouseService services.WarehouseService
}

// NewWarehouseHandler creates a new WarehouseHandler.
func NewWarehouseHandler(ws services.WarehouseService) *WarehouseHandler {
	return &WarehouseHandler{warehouseService: ws}
}

// CreateItem handles registering a new warehouse item.
func (h *WarehouseHandler) CreateItem(c *gin.Context) {
	var req services.CreateWarehouseItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateItem: Failed to bind JSON")
		return
	}
	item, err := h.warehouseService.CreateItem(req)
	if err != nil {
		respondServiceError(c, err, "CreateItem: Error from warehouseService.CreateItem")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetItems handles fetching warehouse items with pagination.
func (h *WarehouseHandler) GetItems(c *gin.Context) {
	page, pageSize, ok := parsePagination(c, 10)
	if !ok {
		return
	}
	items, total, err := h.warehouseService.GetItems(page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetItems: Error from warehouseService.GetItems")
		return
	}
	if items == nil {
		items = []models.WarehouseItem{}
	}
	c.JSON(http.StatusOK, paginated(items, total, page, pageSize))
}

// GetItemByID handles fetching a single warehouse item.
func (h *WarehouseHandler) GetItemByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	item, err := h.warehouseService.GetItemByID(id)
	if err != nil {
		respondServiceError(c, err, "GetItemByID: Error from warehouseService.GetItemByID")
		return
	}
	c.JSON(http.StatusOK, item)
}

// Incoming handles a stock delivery.
func (h *WarehouseHandler) Incoming(c *gin.Context) {
	h.adjust(c, h.warehouseService.Incoming, "Incoming")
}

// Outgoing handles a manual stock hand-out.
func (h *WarehouseHandler) Outgoing(c *gin.Context) {
	h.adjust(c, h.warehouseService.Outgoing, "Outgoing")
}

// WriteOff handles spoilage and breakage.
func (h *WarehouseHandler) WriteOff(c *gin.Context) {
	h.adjust(c, h.warehouseService.WriteOff, "WriteOff")
}

func (h *WarehouseHandler) adjust(
	c *gin.Context,
	op func(int64, services.AdjustStockRequest, string) (*models.WarehouseItem, error),
	name string,
) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, name+": Failed to bind JSON")
		return
	}
	item, err := op(id, req, actorFrom(c))
	if err != nil {
		respondServiceError(c, err, name+": Error from warehouseService")
		return
	}
	c.JSON(http.StatusOK, item)
}

// LowStock handles the reorder dashboard list.
func (h *WarehouseHandler) LowStock(c *gin.Context) {
	items, err := h.warehouseService.LowStockItems()
	if err != nil {
		respondServiceError(c, err, "LowStock: Error from warehouseService.LowStockItems")
		return
	}
	if items == nil {
		items = []models.WarehouseItem{}
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

// TotalValue handles the warehouse valuation report.
func (h *WarehouseHandler) TotalValue(c *gin.Context) {
	total, err := h.warehouseService.TotalValue()
	if err != nil {
		respondServiceError(c, err, "TotalValue: Error from warehouseService.TotalValue")
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_value": total})
}

// GetOperations handles fetching the stock movement history, optionally
// filtered to a single item.
func (h *WarehouseHandler) GetOperations(c *gin.Context) {
	page, pageSize, ok := parsePagination(c, 20)
	if !ok {
		return
	}
	var itemID *int64
	if itemIDStr := c.Query("item_id"); itemIDStr != "" {
		id, err := strconv.ParseInt(itemIDStr, 10, 64)
		if err != nil || id <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid item_id format.", itemIDStr))
			return
		}
		itemID = &id
	}
	operations, total, err := h.warehouseService.GetOperations(itemID, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetOperations: Error from warehouseService.GetOperations")
		return
	}
	if operations == nil {
		operations = []models.WarehouseOperation{}
	}
	c.JSON(http.StatusOK, paginated(operations, total, page, pageSize))
}
