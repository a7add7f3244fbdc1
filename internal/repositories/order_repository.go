package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"

	"github.com/shopspring/decimal"
)

// OrderRepository defines the interface for order and order-line database
// access. Read methods used inside reservation transactions take an
// SQLExecutor so they observe the transaction's own writes.
type OrderRepository interface {
	CreateOrder(executor SQLExecutor, order *models.Order) (int64, error)
	GetOrderByID(executor SQLExecutor, orderID int64) (*models.Order, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, int, error)
	GetOrderLines(executor SQLExecutor, orderID int64) ([]models.OrderLine, error)
	GetLineByID(executor SQLExecutor, lineID int64) (*models.OrderLine, error)
	GetLineByDish(executor SQLExecutor, orderID, dishID int64) (*models.OrderLine, error)
	CreateLine(executor SQLExecutor, line *models.OrderLine) (int64, error)
	UpdateLine(executor SQLExecutor, line *models.OrderLine) error
	DeleteLine(executor SQLExecutor, lineID int64) error
	UpdateOrderStatus(executor SQLExecutor, orderID int64, status string) error
	UpdateOrderTotal(executor SQLExecutor, orderID int64, total decimal.Decimal) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateOrder(executor SQLExecutor, order *models.Order) (int64, error) {
	query := `INSERT INTO orders (table_number, status, total_amount, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		order.TableNumber, order.Status, order.TotalAmount, order.CreatedBy, currentTime, currentTime,
	).Scan(&order.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating order: %v", ErrDatabaseError, err)
	}
	order.CreatedAt = currentTime
	order.UpdatedAt = currentTime
	return order.ID, nil
}

func (r *orderRepository) GetOrderByID(executor SQLExecutor, orderID int64) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT id, table_number, status, total_amount, created_by, created_at, updated_at
	          FROM orders WHERE id = $1`
	err := executor.QueryRow(query, orderID).Scan(
		&order.ID, &order.TableNumber, &order.Status, &order.TotalAmount,
		&order.CreatedBy, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order %d: %v", ErrDatabaseError, orderID, err)
	}
	return order, nil
}

func (r *orderRepository) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, table_number, status, total_amount, created_by, created_at, updated_at,
	    COUNT(*) OVER() AS total_count
	  FROM orders`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.TableNumber != nil {
		conditions = append(conditions, fmt.Sprintf("table_number = $%d", argCount))
		args = append(args, *filters.TableNumber)
		argCount++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY created_at DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var order models.Order
		if err := rows.Scan(
			&order.ID, &order.TableNumber, &order.Status, &order.TotalAmount,
			&order.CreatedBy, &order.CreatedAt, &order.UpdatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, order)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating orders: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

const orderLineColumns = `id, order_id, dish_id, dish_name, unit_price, quantity, subtotal, notes`

func scanOrderLine(row interface{ Scan(dest ...interface{}) error }, line *models.OrderLine) error {
	return row.Scan(
		&line.ID, &line.OrderID, &line.DishID, &line.DishName,
		&line.UnitPrice, &line.Quantity, &line.Subtotal, &line.Notes,
	)
}

func (r *orderRepository) GetOrderLines(executor SQLExecutor, orderID int64) ([]models.OrderLine, error) {
	lines := []models.OrderLine{}
	query := `SELECT ` + orderLineColumns + ` FROM order_lines WHERE order_id = $1 ORDER BY id`
	rows, err := executor.Query(query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting order lines for order %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var line models.OrderLine
		if err := scanOrderLine(rows, &line); err != nil {
			return nil, fmt.Errorf("%w: scanning order line: %v", ErrDatabaseError, err)
		}
		lines = append(lines, line)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order lines: %v", ErrDatabaseError, err)
	}
	return lines, nil
}

func (r *orderRepository) GetLineByID(executor SQLExecutor, lineID int64) (*models.OrderLine, error) {
	line := &models.OrderLine{}
	query := `SELECT ` + orderLineColumns + ` FROM order_lines WHERE id = $1`
	if err := scanOrderLine(executor.QueryRow(query, lineID), line); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order line %d: %v", ErrDatabaseError, lineID, err)
	}
	return line, nil
}

// GetLineByDish finds the existing line for a dish on an order, used to merge
// repeated additions of the same dish into one line.
func (r *orderRepository) GetLineByDish(executor SQLExecutor, orderID, dishID int64) (*models.OrderLine, error) {
	line := &models.OrderLine{}
	query := `SELECT ` + orderLineColumns + ` FROM order_lines WHERE order_id = $1 AND dish_id = $2`
	if err := scanOrderLine(executor.QueryRow(query, orderID, dishID), line); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order line for dish %d: %v", ErrDatabaseError, dishID, err)
	}
	return line, nil
}

func (r *orderRepository) CreateLine(executor SQLExecutor, line *models.OrderLine) (int64, error) {
	query := `INSERT INTO order_lines (order_id, dish_id, dish_name, unit_price, quantity, subtotal, notes)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	err := executor.QueryRow(query,
		line.OrderID, line.DishID, line.DishName, line.UnitPrice, line.Quantity, line.Subtotal, line.Notes,
	).Scan(&line.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating order line: %v", ErrDatabaseError, err)
	}
	return line.ID, nil
}

func (r *orderRepository) UpdateLine(executor SQLExecutor, line *models.OrderLine) error {
	query := `UPDATE order_lines SET quantity = $1, subtotal = $2, notes = $3 WHERE id = $4`
	result, err := executor.Exec(query, line.Quantity, line.Subtotal, line.Notes, line.ID)
	if err != nil {
		return fmt.Errorf("%w: updating order line %d: %v", ErrDatabaseError, line.ID, err)
	}
	return requireAffected(result, "updating order line")
}

func (r *orderRepository) DeleteLine(executor SQLExecutor, lineID int64) error {
	result, err := executor.Exec(`DELETE FROM order_lines WHERE id = $1`, lineID)
	if err != nil {
		return fmt.Errorf("%w: deleting order line %d: %v", ErrDatabaseError, lineID, err)
	}
	return requireAffected(result, "deleting order line")
}

func (r *orderRepository) UpdateOrderStatus(executor SQLExecutor, orderID int64, status string) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, status, time.Now(), orderID)
	if err != nil {
		return fmt.Errorf("%w: updating status for order %d: %v", ErrDatabaseError, orderID, err)
	}
	return requireAffected(result, "updating order status")
}

func (r *orderRepository) UpdateOrderTotal(executor SQLExecutor, orderID int64, total decimal.Decimal) error {
	query := `UPDATE orders SET total_amount = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, total, time.Now(), orderID)
	if err != nil {
		return fmt.Errorf("%w: updating total for order %d: %v", ErrDatabaseError, orderID, err)
	}
	return requireAffected(result, "updating order total")
}

func requireAffected(result sql.Result, action string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDatabaseError, action, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
