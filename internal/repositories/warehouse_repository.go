package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// WarehouseRepository defines the interface for warehouse item and operation
// log database access. Quantity mutations go through AdjustQuantity, which is
// guarded so the stored quantity can never become negative; callers that need
// a check-then-adjust sequence lock the row first with GetItemForUpdate.
type WarehouseRepository interface {
	CreateItem(executor SQLExecutor, item *models.WarehouseItem) (int64, error)
	GetItemByID(executor SQLExecutor, itemID int64) (*models.WarehouseItem, error)
	GetItemForUpdate(executor SQLExecutor, itemID int64) (*models.WarehouseItem, error)
	GetItems(page, pageSize int) ([]models.WarehouseItem, int, error)
	AdjustQuantity(executor SQLExecutor, itemID int64, delta decimal.Decimal) (decimal.Decimal, error)
	LowStockItems() ([]models.WarehouseItem, error)
	TotalValue() (decimal.Decimal, error)
	CreateOperation(executor SQLExecutor, op *models.WarehouseOperation) (int64, error)
	GetOperations(itemID *int64, page, pageSize int) ([]models.WarehouseOperation, int, error)
}

type warehouseRepository struct {
	db *sql.DB
}

// NewWarehouseRepository creates a new instance of WarehouseRepository.
func NewWarehouseRepository(db *sql.DB) WarehouseRepository {
	return &warehouseRepository{db: db}
}

const warehouseItemColumns = `id, name, category, unit, quantity, min_quantity, unit_price, supplier, last_updated, created_at`

func scanWarehouseItem(row interface{ Scan(dest ...interface{}) error }, item *models.WarehouseItem) error {
	return row.Scan(
		&item.ID, &item.Name, &item.Category, &item.Unit, &item.Quantity,
		&item.MinQuantity, &item.UnitPrice, &item.Supplier, &item.LastUpdated, &item.CreatedAt,
	)
}

func (r *warehouseRepository) CreateItem(executor SQLExecutor, item *models.WarehouseItem) (int64, error) {
	query := `INSERT INTO warehouse_items (name, category, unit, quantity, min_quantity, unit_price, supplier, last_updated, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		item.Name, item.Category, item.Unit, item.Quantity, item.MinQuantity,
		item.UnitPrice, item.Supplier, currentTime, currentTime,
	).Scan(&item.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: warehouse item '%s' already exists (constraint: %s)", ErrDuplicateKey, item.Name, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating warehouse item: %v", ErrDatabaseError, err)
	}
	item.LastUpdated = currentTime
	item.CreatedAt = currentTime
	return item.ID, nil
}

func (r *warehouseRepository) GetItemByID(executor SQLExecutor, itemID int64) (*models.WarehouseItem, error) {
	item := &models.WarehouseItem{}
	query := `SELECT ` + warehouseItemColumns + ` FROM warehouse_items WHERE id = $1`
	err := scanWarehouseItem(executor.QueryRow(query, itemID), item)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting warehouse item %d: %v", ErrDatabaseError, itemID, err)
	}
	return item, nil
}

// GetItemForUpdate reads an item under a row lock. It must run inside a
// transaction; the lock is held until that transaction ends, which is what
// makes a subsequent check-then-adjust sequence indivisible per item.
func (r *warehouseRepository) GetItemForUpdate(executor SQLExecutor, itemID int64) (*models.WarehouseItem, error) {
	item := &models.WarehouseItem{}
	query := `SELECT ` + warehouseItemColumns + ` FROM warehouse_items WHERE id = $1 FOR UPDATE`
	err := scanWarehouseItem(executor.QueryRow(query, itemID), item)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking warehouse item %d: %v", ErrDatabaseError, itemID, err)
	}
	return item, nil
}

func (r *warehouseRepository) GetItems(page, pageSize int) ([]models.WarehouseItem, int, error) {
	items := []models.WarehouseItem{}
	totalCount := 0

	query := `SELECT ` + warehouseItemColumns + `, COUNT(*) OVER() AS total_count
	          FROM warehouse_items ORDER BY name LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting warehouse items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.WarehouseItem
		if err := rows.Scan(
			&item.ID, &item.Name, &item.Category, &item.Unit, &item.Quantity,
			&item.MinQuantity, &item.UnitPrice, &item.Supplier, &item.LastUpdated, &item.CreatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning warehouse item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating warehouse items: %v", ErrDatabaseError, err)
	}
	return items, totalCount, nil
}

// AdjustQuantity applies a signed delta to an item's quantity and refreshes
// last_updated. The WHERE guard rejects any delta that would leave the
// quantity negative, returning ErrInsufficientQuantity in that case.
func (r *warehouseRepository) AdjustQuantity(executor SQLExecutor, itemID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	var newQuantity decimal.Decimal
	query := `UPDATE warehouse_items
	          SET quantity = quantity + $1, last_updated = $2
	          WHERE id = $3 AND quantity + $1 >= 0
	          RETURNING quantity`
	err := executor.QueryRow(query, delta, time.Now(), itemID).Scan(&newQuantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, lookupErr := r.GetItemByID(r.db, itemID); errors.Is(lookupErr, ErrNotFound) {
				return decimal.Zero, ErrNotFound
			}
			return decimal.Zero, fmt.Errorf("%w: item %d, delta %s", ErrInsufficientQuantity, itemID, delta)
		}
		return decimal.Zero, fmt.Errorf("%w: adjusting quantity for item %d: %v", ErrDatabaseError, itemID, err)
	}
	return newQuantity, nil
}

func (r *warehouseRepository) LowStockItems() ([]models.WarehouseItem, error) {
	items := []models.WarehouseItem{}
	query := `SELECT ` + warehouseItemColumns + ` FROM warehouse_items
	          WHERE quantity <= min_quantity ORDER BY name`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: getting low stock items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.WarehouseItem
		if err := scanWarehouseItem(rows, &item); err != nil {
			return nil, fmt.Errorf("%w: scanning low stock item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating low stock items: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *warehouseRepository) TotalValue() (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(quantity * unit_price), 0) FROM warehouse_items`
	if err := r.db.QueryRow(query).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("%w: computing total warehouse value: %v", ErrDatabaseError, err)
	}
	return total, nil
}

// CreateOperation appends one audit record to the operation log. The log is
// append-only: there are no update or delete queries for this table anywhere
// in the codebase.
func (r *warehouseRepository) CreateOperation(executor SQLExecutor, op *models.WarehouseOperation) (int64, error) {
	query := `INSERT INTO warehouse_operations (item_id, kind, quantity, unit, order_id, notes, actor, occurred_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	if op.OccurredAt.IsZero() {
		op.OccurredAt = time.Now()
	}

	var orderID sql.NullInt64
	if op.OrderID != nil {
		orderID = sql.NullInt64{Int64: *op.OrderID, Valid: true}
	}

	err := executor.QueryRow(query,
		op.ItemID, op.Kind, op.Quantity, op.Unit, orderID, op.Notes, op.Actor, op.OccurredAt,
	).Scan(&op.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating warehouse operation: %v", ErrDatabaseError, err)
	}
	return op.ID, nil
}

func (r *warehouseRepository) GetOperations(itemID *int64, page, pageSize int) ([]models.WarehouseOperation, int, error) {
	operations := []models.WarehouseOperation{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    wo.id, wo.item_id, wo.kind, wo.quantity, wo.unit, wo.order_id, wo.notes, wo.actor, wo.occurred_at,
	    wi.name AS item_name,
	    COUNT(*) OVER() AS total_count
	  FROM warehouse_operations wo
	  JOIN warehouse_items wi ON wo.item_id = wi.id`)

	var args []interface{}
	argCount := 1
	if itemID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" WHERE wo.item_id = $%d", argCount))
		args = append(args, *itemID)
		argCount++
	}

	// Newest first: operations are displayed as a reverse-chronological trail.
	queryBuilder.WriteString(" ORDER BY wo.occurred_at DESC, wo.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting warehouse operations: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var op models.WarehouseOperation
		var orderID sql.NullInt64
		if err := rows.Scan(
			&op.ID, &op.ItemID, &op.Kind, &op.Quantity, &op.Unit, &orderID,
			&op.Notes, &op.Actor, &op.OccurredAt, &op.ItemName, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning warehouse operation: %v", ErrDatabaseError, err)
		}
		if orderID.Valid {
			op.OrderID = &orderID.Int64
		}
		operations = append(operations, op)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating warehouse operations: %v", ErrDatabaseError, err)
	}
	return operations, totalCount, nil
}
