package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

// CreateOrder handles opening an empty order for a table.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateOrder: Failed to bind JSON")
		return
	}
	order, err := h.orderService.CreateOrder(req, actorFrom(c))
	if err != nil {
		respondServiceError(c, err, "CreateOrder: Error from orderService.CreateOrder")
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrders handles fetching orders with filters and pagination.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	page, pageSize, ok := parsePagination(c, 10)
	if !ok {
		return
	}
	filters := models.OrderFilters{Page: page, PageSize: pageSize}
	if tableNumber := c.Query("table_number"); tableNumber != "" {
		filters.TableNumber = &tableNumber
	}
	if status := c.Query("status"); status != "" {
		filters.Status = &status
	}
	orders, total, err := h.orderService.GetOrders(filters)
	if err != nil {
		respondServiceError(c, err, "GetOrders: Error from orderService.GetOrders")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, paginated(orders, total, page, pageSize))
}

// GetOrderByID handles fetching a single order with its lines.
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrderByID(id)
	if err != nil {
		respondServiceError(c, err, "GetOrderByID: Error from orderService.GetOrderByID")
		return
	}
	c.JSON(http.StatusOK, order)
}

// AddLine handles adding portions of a dish to an order. A stock shortage
// answers 409 with the full shortage list and leaves the order untouched.
func (h *OrderHandler) AddLine(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.AddOrderLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "AddLine: Failed to bind JSON")
		return
	}
	order, err := h.orderService.AddLine(id, req, actorFrom(c))
	if err != nil {
		respondServiceError(c, err, "AddLine: Error from orderService.AddLine")
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateLine handles rewriting a line's portion count. A quantity of zero
// removes the line.
func (h *OrderHandler) UpdateLine(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := parseIDParam(c, "lineId")
	if !ok {
		return
	}
	var req services.UpdateLineQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdateLine: Failed to bind JSON")
		return
	}
	order, err := h.orderService.UpdateLineQuantity(orderID, lineID, *req.Quantity, actorFrom(c))
	if err != nil {
		respondServiceError(c, err, "UpdateLine: Error from orderService.UpdateLineQuantity")
		return
	}
	c.JSON(http.StatusOK, order)
}

// RemoveLine handles deleting a line and returning its stock.
func (h *OrderHandler) RemoveLine(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := parseIDParam(c, "lineId")
	if !ok {
		return
	}
	order, err := h.orderService.RemoveLine(orderID, lineID, actorFrom(c))
	if err != nil {
		respondServiceError(c, err, "RemoveLine: Error from orderService.RemoveLine")
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateStatus handles advancing an order along its lifecycle.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdateStatus: Failed to bind JSON")
		return
	}
	order, err := h.orderService.AdvanceStatus(id, req.Status, actorFrom(c))
	if err != nil {
		respondServiceError(c, err, "UpdateStatus: Error from orderService.AdvanceStatus")
		return
	}
	c.JSON(http.StatusOK, order)
}

// CancelOrder handles voiding an unpaid order and restocking its lines.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.CancelOrder(id, actorFrom(c))
	if err != nil {
		respondServiceError(c, err, "CancelOrder: Error from orderService.CancelOrder")
		return
	}
	c.JSON(http.StatusOK, order)
}
