package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// --- Custom Service Errors ---
var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrOrderLineNotFound       = errors.New("order line not found")
	ErrDishNotAvailable        = errors.New("dish is not available for ordering")
	ErrInvalidOrderStatus      = errors.New("invalid order status")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrOrderClosed             = errors.New("order is already closed")
)

// Order lifecycle. The chain is linear; the only way off it is cancellation,
// which is allowed at any point before payment.
const (
	StatusNew            = "new"
	StatusInProgress     = "in_progress"
	StatusServed         = "served"
	StatusWaitingPayment = "waiting_payment"
	StatusPaid           = "paid"
	StatusCancelled      = "cancelled"
)

var statusChain = []string{StatusNew, StatusInProgress, StatusServed, StatusWaitingPayment, StatusPaid}

func isValidOrderStatus(status string) bool {
	if status == StatusCancelled {
		return true
	}
	for _, s := range statusChain {
		if s == status {
			return true
		}
	}
	return false
}

// nextStatus returns the state that follows current in the linear chain, or
// "" when current is terminal.
func nextStatus(current string) string {
	for i, s := range statusChain {
		if s == current && i+1 < len(statusChain) {
			return statusChain[i+1]
		}
	}
	return ""
}

func isClosed(status string) bool {
	return status == StatusPaid || status == StatusCancelled
}

// --- Data Transfer Objects (DTOs) ---

// CreateOrderRequest opens an empty order for a table.
type CreateOrderRequest struct {
	TableNumber string `json:"table_number" binding:"required"`
}

// AddOrderLineRequest adds portions of a dish to an order.
type AddOrderLineRequest struct {
	DishID   int64   `json:"dish_id" binding:"required"`
	Portions int     `json:"portions" binding:"required,gt=0"`
	Notes    *string `json:"notes"`
}

// UpdateLineQuantityRequest rewrites a line's portion count. Zero or a
// negative value removes the line. Quantity is a pointer so that an explicit
// zero survives binding.
type UpdateLineQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// UpdateOrderStatusRequest moves an order along its lifecycle.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// --- OrderService Interface ---

// OrderService is the order aggregate. Stock is deducted when a line is
// added, released when a line shrinks or the order is cancelled, and never
// touched again when the order is marked served: add-to-order is the single
// deduction trigger.
type OrderService interface {
	CreateOrder(req CreateOrderRequest, actor string) (*models.Order, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, int, error)
	GetOrderByID(orderID int64) (*models.Order, error)
	AddLine(orderID int64, req AddOrderLineRequest, actor string) (*models.Order, error)
	UpdateLineQuantity(orderID, lineID int64, newQuantity int, actor string) (*models.Order, error)
	RemoveLine(orderID, lineID int64, actor string) (*models.Order, error)
	AdvanceStatus(orderID int64, target string, actor string) (*models.Order, error)
	CancelOrder(orderID int64, actor string) (*models.Order, error)
}

// --- orderService Implementation ---

type orderService struct {
	orderRepo    repositories.OrderRepository
	menuRepo     repositories.MenuRepository
	reservations ReservationEngine
	txManager    repositories.TxManager
	db           *sql.DB
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	or repositories.OrderRepository,
	mr repositories.MenuRepository,
	engine ReservationEngine,
	txm repositories.TxManager,
	db *sql.DB,
) OrderService {
	return &orderService{
		orderRepo:    or,
		menuRepo:     mr,
		reservations: engine,
		txManager:    txm,
		db:           db,
	}
}

func (s *orderService) CreateOrder(req CreateOrderRequest, actor string) (*models.Order, error) {
	if strings.TrimSpace(req.TableNumber) == "" {
		return nil, fmt.Errorf("%w: table number cannot be empty", ErrValidation)
	}
	order := &models.Order{
		TableNumber: req.TableNumber,
		Status:      StatusNew,
		TotalAmount: decimal.Zero,
		Lines:       []models.OrderLine{},
		CreatedBy:   actor,
	}
	if _, err := s.orderRepo.CreateOrder(s.db, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func (s *orderService) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 10
	}
	if filters.Status != nil && *filters.Status != "" && !isValidOrderStatus(*filters.Status) {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, *filters.Status)
	}
	orders, totalCount, err := s.orderRepo.GetOrders(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, totalCount, nil
}

func (s *orderService) GetOrderByID(orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(s.db, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	lines, err := s.orderRepo.GetOrderLines(s.db, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order lines: %w", err)
	}
	order.Lines = lines
	return order, nil
}

// loadOpenOrder fetches an order inside a transaction and rejects orders
// that already left the lifecycle.
func (s *orderService) loadOpenOrder(tx repositories.SQLExecutor, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(tx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	if isClosed(order.Status) {
		return nil, fmt.Errorf("%w: order %d is %s", ErrOrderClosed, orderID, order.Status)
	}
	return order, nil
}

// recomputeTotal folds the current lines into the order total. The total is
// never patched incrementally, so it cannot drift from the line data.
func (s *orderService) recomputeTotal(tx repositories.SQLExecutor, orderID int64) error {
	lines, err := s.orderRepo.GetOrderLines(tx, orderID)
	if err != nil {
		return fmt.Errorf("failed to fetch lines for total: %w", err)
	}
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal)
	}
	return s.orderRepo.UpdateOrderTotal(tx, orderID, total)
}

// AddLine reserves stock for the requested portions and, only if the whole
// reservation commits, merges the dish into the order and recomputes the
// total. On a shortage the transaction rolls back, so a rejected add leaves
// both order and ledger exactly as they were.
func (s *orderService) AddLine(orderID int64, req AddOrderLineRequest, actor string) (*models.Order, error) {
	if req.Portions <= 0 {
		return nil, fmt.Errorf("%w: portions must be positive", ErrValidation)
	}
	dish, err := s.menuRepo.GetDishByID(req.DishID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: dish %d", ErrDishNotFound, req.DishID)
		}
		return nil, fmt.Errorf("failed to fetch dish %d: %w", req.DishID, err)
	}
	if !dish.Available {
		return nil, fmt.Errorf("%w: %s", ErrDishNotAvailable, dish.Name)
	}

	err = s.txManager.WithinTx(func(tx repositories.SQLExecutor) error {
		order, err := s.loadOpenOrder(tx, orderID)
		if err != nil {
			return err
		}
		if err := s.reservations.Reserve(tx, dish.ID, dish.Name, req.Portions, orderID, actor); err != nil {
			return err
		}

		existing, err := s.orderRepo.GetLineByDish(tx, orderID, dish.ID)
		switch {
		case err == nil:
			existing.Quantity += req.Portions
			existing.Subtotal = existing.UnitPrice.Mul(decimal.NewFromInt(int64(existing.Quantity)))
			if req.Notes != nil {
				existing.Notes = req.Notes
			}
			if err := s.orderRepo.UpdateLine(tx, existing); err != nil {
				return fmt.Errorf("failed to merge order line: %w", err)
			}
		case errors.Is(err, repositories.ErrNotFound):
			line := &models.OrderLine{
				OrderID:   orderID,
				DishID:    dish.ID,
				DishName:  dish.Name,
				UnitPrice: dish.Price,
				Quantity:  req.Portions,
				Subtotal:  dish.Price.Mul(decimal.NewFromInt(int64(req.Portions))),
				Notes:     req.Notes,
			}
			if _, err := s.orderRepo.CreateLine(tx, line); err != nil {
				return fmt.Errorf("failed to create order line: %w", err)
			}
		default:
			return fmt.Errorf("failed to look up order line: %w", err)
		}

		if order.Status == StatusNew {
			if err := s.orderRepo.UpdateOrderStatus(tx, orderID, StatusInProgress); err != nil {
				return fmt.Errorf("failed to advance order status: %w", err)
			}
		}
		return s.recomputeTotal(tx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrderByID(orderID)
}

// UpdateLineQuantity rewrites a line's portion count. Growth reserves only
// the delta; shrinkage releases the delta back to the ledger; zero or less
// removes the line and releases everything it held.
func (s *orderService) UpdateLineQuantity(orderID, lineID int64, newQuantity int, actor string) (*models.Order, error) {
	err := s.txManager.WithinTx(func(tx repositories.SQLExecutor) error {
		if _, err := s.loadOpenOrder(tx, orderID); err != nil {
			return err
		}
		line, err := s.orderRepo.GetLineByID(tx, lineID)
		if err != nil || line.OrderID != orderID {
			if err == nil || errors.Is(err, repositories.ErrNotFound) {
				return ErrOrderLineNotFound
			}
			return fmt.Errorf("failed to fetch order line: %w", err)
		}

		switch {
		case newQuantity <= 0:
			if err := s.reservations.Release(tx, line.DishID, line.DishName, line.Quantity, orderID, actor); err != nil {
				return err
			}
			if err := s.orderRepo.DeleteLine(tx, lineID); err != nil {
				return fmt.Errorf("failed to delete order line: %w", err)
			}
		case newQuantity > line.Quantity:
			if err := s.reservations.Reserve(tx, line.DishID, line.DishName, newQuantity-line.Quantity, orderID, actor); err != nil {
				return err
			}
			line.Quantity = newQuantity
			line.Subtotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(newQuantity)))
			if err := s.orderRepo.UpdateLine(tx, line); err != nil {
				return fmt.Errorf("failed to update order line: %w", err)
			}
		case newQuantity < line.Quantity:
			if err := s.reservations.Release(tx, line.DishID, line.DishName, line.Quantity-newQuantity, orderID, actor); err != nil {
				return err
			}
			line.Quantity = newQuantity
			line.Subtotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(newQuantity)))
			if err := s.orderRepo.UpdateLine(tx, line); err != nil {
				return fmt.Errorf("failed to update order line: %w", err)
			}
		}
		return s.recomputeTotal(tx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrderByID(orderID)
}

func (s *orderService) RemoveLine(orderID, lineID int64, actor string) (*models.Order, error) {
	return s.UpdateLineQuantity(orderID, lineID, 0, actor)
}

// AdvanceStatus moves the order to the next state in the chain; any other
// target is rejected. Cancellation is handled by CancelOrder because it
// returns stock.
func (s *orderService) AdvanceStatus(orderID int64, target string, actor string) (*models.Order, error) {
	if !isValidOrderStatus(target) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, target)
	}
	if target == StatusCancelled {
		return s.CancelOrder(orderID, actor)
	}

	err := s.txManager.WithinTx(func(tx repositories.SQLExecutor) error {
		order, err := s.orderRepo.GetOrderByID(tx, orderID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to fetch order: %w", err)
		}
		if nextStatus(order.Status) != target {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, order.Status, target)
		}
		return s.orderRepo.UpdateOrderStatus(tx, orderID, target)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrderByID(orderID)
}

// CancelOrder voids an order before payment and returns every reserved
// ingredient to the ledger, one incoming operation per ingredient per line.
func (s *orderService) CancelOrder(orderID int64, actor string) (*models.Order, error) {
	err := s.txManager.WithinTx(func(tx repositories.SQLExecutor) error {
		order, err := s.orderRepo.GetOrderByID(tx, orderID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to fetch order: %w", err)
		}
		if isClosed(order.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, order.Status, StatusCancelled)
		}
		lines, err := s.orderRepo.GetOrderLines(tx, orderID)
		if err != nil {
			return fmt.Errorf("failed to fetch lines for cancellation: %w", err)
		}
		for _, line := range lines {
			if err := s.reservations.Release(tx, line.DishID, line.DishName, line.Quantity, orderID, actor); err != nil {
				return err
			}
		}
		return s.orderRepo.UpdateOrderStatus(tx, orderID, StatusCancelled)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrderByID(orderID)
}
