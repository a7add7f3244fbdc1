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
	ErrValidation   = errors.New("validation error")
	ErrItemNotFound = errors.New("warehouse item not found")
	ErrItemExists   = errors.New("warehouse item already exists")
)

// --- Data Transfer Objects (DTOs) ---

// CreateWarehouseItemRequest is used to register a new warehouse item.
type CreateWarehouseItemRequest struct {
	Name        string   `json:"name" binding:"required"`
	Category    string   `json:"category"`
	Unit        string   `json:"unit" binding:"required"`
	Quantity    float64  `json:"quantity"`
	MinQuantity float64  `json:"min_quantity"`
	UnitPrice   float64  `json:"unit_price" binding:"required,gt=0"`
	Supplier    *string  `json:"supplier"`
}

// AdjustStockRequest carries a single manual stock mutation: a delivery, a
// kitchen hand-out, or a write-off. Quantity is always the positive amount
// being moved; the operation kind decides the sign.
type AdjustStockRequest struct {
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
	Notes    *string `json:"notes"`
}

// --- WarehouseService Interface ---

// WarehouseService is the stock ledger: the warehouse's current-quantity
// table plus its append-only operation history.
type WarehouseService interface {
	CreateItem(req CreateWarehouseItemRequest) (*models.WarehouseItem, error)
	GetItems(page, pageSize int) ([]models.WarehouseItem, int, error)
	GetItemByID(itemID int64) (*models.WarehouseItem, error)
	Incoming(itemID int64, req AdjustStockRequest, actor string) (*models.WarehouseItem, error)
	Outgoing(itemID int64, req AdjustStockRequest, actor string) (*models.WarehouseItem, error)
	WriteOff(itemID int64, req AdjustStockRequest, actor string) (*models.WarehouseItem, error)
	LowStockItems() ([]models.WarehouseItem, error)
	TotalValue() (decimal.Decimal, error)
	GetOperations(itemID *int64, page, pageSize int) ([]models.WarehouseOperation, int, error)
}

// --- warehouseService Implementation ---

type warehouseService struct {
	warehouseRepo repositories.WarehouseRepository
	txManager     repositories.TxManager
	db            *sql.DB
}

// NewWarehouseService creates a new instance of WarehouseService.
func NewWarehouseService(wr repositories.WarehouseRepository, txm repositories.TxManager, db *sql.DB) WarehouseService {
	return &warehouseService{
		warehouseRepo: wr,
		txManager:     txm,
		db:            db,
	}
}

func (s *warehouseService) CreateItem(req CreateWarehouseItemRequest) (*models.WarehouseItem, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: item name cannot be empty", ErrValidation)
	}
	if req.Quantity < 0 || req.MinQuantity < 0 {
		return nil, fmt.Errorf("%w: quantities cannot be negative", ErrValidation)
	}
	item := &models.WarehouseItem{
		Name:        req.Name,
		Category:    req.Category,
		Unit:        req.Unit,
		Quantity:    decimal.NewFromFloat(req.Quantity),
		MinQuantity: decimal.NewFromFloat(req.MinQuantity),
		UnitPrice:   decimal.NewFromFloat(req.UnitPrice),
		Supplier:    req.Supplier,
	}
	if item.Category == "" {
		item.Category = models.CategoryOther
	}
	if _, err := s.warehouseRepo.CreateItem(s.db, item); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrItemExists, req.Name)
		}
		return nil, fmt.Errorf("failed to create warehouse item: %w", err)
	}
	return item, nil
}

func (s *warehouseService) GetItems(page, pageSize int) ([]models.WarehouseItem, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	items, totalCount, err := s.warehouseRepo.GetItems(page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get warehouse items: %w", err)
	}
	return items, totalCount, nil
}

func (s *warehouseService) GetItemByID(itemID int64) (*models.WarehouseItem, error) {
	item, err := s.warehouseRepo.GetItemByID(s.db, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get warehouse item: %w", err)
	}
	return item, nil
}

// Incoming increases an item's stock and appends an incoming operation.
// It always succeeds for an existing item and a positive quantity.
func (s *warehouseService) Incoming(itemID int64, req AdjustStockRequest, actor string) (*models.WarehouseItem, error) {
	return s.adjust(itemID, req, actor, models.OperationIncoming)
}

// Outgoing decreases an item's stock if and only if enough is on hand. On a
// shortfall it reports the deficit and changes nothing.
func (s *warehouseService) Outgoing(itemID int64, req AdjustStockRequest, actor string) (*models.WarehouseItem, error) {
	return s.adjust(itemID, req, actor, models.OperationOutgoing)
}

// WriteOff has the same contract as Outgoing but tags the operation as a
// write-off (spoilage, breakage) so reports can tell it apart from sales.
func (s *warehouseService) WriteOff(itemID int64, req AdjustStockRequest, actor string) (*models.WarehouseItem, error) {
	return s.adjust(itemID, req, actor, models.OperationWriteOff)
}

func (s *warehouseService) adjust(itemID int64, req AdjustStockRequest, actor string, kind string) (*models.WarehouseItem, error) {
	qty := decimal.NewFromFloat(req.Quantity)
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	var updated *models.WarehouseItem
	err := s.txManager.WithinTx(func(tx repositories.SQLExecutor) error {
		item, err := s.warehouseRepo.GetItemForUpdate(tx, itemID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrItemNotFound
			}
			return fmt.Errorf("failed to lock warehouse item: %w", err)
		}

		delta := qty
		if kind != models.OperationIncoming {
			if item.Quantity.LessThan(qty) {
				return &InsufficientStockError{Shortages: []ShortageDetail{{
					IngredientID:   item.ID,
					IngredientName: item.Name,
					Required:       qty,
					Available:      item.Quantity,
					Unit:           item.Unit,
				}}}
			}
			delta = qty.Neg()
		}

		newQuantity, err := s.warehouseRepo.AdjustQuantity(tx, itemID, delta)
		if err != nil {
			return fmt.Errorf("failed to adjust quantity: %w", err)
		}
		op := &models.WarehouseOperation{
			ItemID:   itemID,
			Kind:     kind,
			Quantity: delta,
			Unit:     item.Unit,
			Notes:    req.Notes,
			Actor:    actor,
		}
		if _, err := s.warehouseRepo.CreateOperation(tx, op); err != nil {
			return fmt.Errorf("failed to record %s operation: %w", kind, err)
		}

		item.Quantity = newQuantity
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// LowStockItems lists items at or below their reorder threshold. Low stock
// never blocks a sale; the list feeds dashboards only.
func (s *warehouseService) LowStockItems() ([]models.WarehouseItem, error) {
	items, err := s.warehouseRepo.LowStockItems()
	if err != nil {
		return nil, fmt.Errorf("failed to get low stock items: %w", err)
	}
	return items, nil
}

// TotalValue sums quantity times unit price over all items.
func (s *warehouseService) TotalValue() (decimal.Decimal, error) {
	total, err := s.warehouseRepo.TotalValue()
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute warehouse value: %w", err)
	}
	return total, nil
}

func (s *warehouseService) GetOperations(itemID *int64, page, pageSize int) ([]models.WarehouseOperation, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	operations, totalCount, err := s.warehouseRepo.GetOperations(itemID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get warehouse operations: %w", err)
	}
	return operations, totalCount, nil
}
