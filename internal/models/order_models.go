package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the aggregate of lines sold to one table. TotalAmount is derived:
// it is always recomputed as the sum of line subtotals and never settable on
// its own.
type Order struct {
	ID          int64           `json:"id" db:"id"`
	TableNumber string          `json:"table_number" db:"table_number"`
	Status      string          `json:"status" db:"status"`
	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`
	Lines       []OrderLine     `json:"lines"`
	CreatedBy   string          `json:"created_by" db:"created_by"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderLine is one dish position on an order. Name and unit price are
// snapshots taken when the line was first added; lines merge by dish, so
// adding the same dish again bumps the quantity instead of creating a
// duplicate row.
type OrderLine struct {
	ID        int64           `json:"id" db:"id"`
	OrderID   int64           `json:"order_id" db:"order_id"`
	DishID    int64           `json:"dish_id" db:"dish_id"`
	DishName  string          `json:"dish_name" db:"dish_name"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal" db:"subtotal"`
	Notes     *string         `json:"notes,omitempty" db:"notes"`
}

// OrderFilters defines the available filters for querying orders.
// This struct is used by both the service and repository layers.
type OrderFilters struct {
	TableNumber *string `form:"table_number"`
	Status      *string `form:"status"`
	Page        int     `form:"page"`
	PageSize    int     `form:"page_size"`
}
