package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Warehouse item categories.
const (
	CategoryMeat       = "meat"
	CategoryFish       = "fish"
	CategoryVegetables = "vegetables"
	CategoryDairy      = "dairy"
	CategoryCereals    = "cereals"
	CategoryAlcohol    = "alcohol"
	CategoryOther      = "other"
)

// Units of measure for warehouse items and recipe ingredients.
const (
	UnitKilogram = "kg"
	UnitGram     = "g"
	UnitLitre    = "l"
	UnitPiece    = "pcs"
	UnitPack     = "pack"
)

// Operation kinds recorded in the warehouse operation log.
const (
	OperationIncoming = "incoming"
	OperationOutgoing = "outgoing"
	OperationWriteOff = "write_off"
)

// WarehouseItem is a single raw-ingredient record. Quantity is mutated only
// through the ledger's increment/decrement operations and never drops below
// zero. MinQuantity is a reorder threshold; it flags low stock but never
// blocks a sale.
type WarehouseItem struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"name" db:"name" binding:"required"`
	Category    string          `json:"category" db:"category"`
	Unit        string          `json:"unit" db:"unit" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" db:"quantity"`
	MinQuantity decimal.Decimal `json:"min_quantity" db:"min_quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
	Supplier    *string         `json:"supplier,omitempty" db:"supplier"`
	LastUpdated time.Time       `json:"last_updated" db:"last_updated"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// WarehouseOperation is an immutable audit record of one stock mutation.
// Quantity is signed: incoming operations are positive, outgoing and
// write-off operations negative, so summing all deltas for an item from its
// starting quantity reproduces the current quantity. Rows are append-only.
type WarehouseOperation struct {
	ID       int64           `json:"id" db:"id"`
	ItemID   int64           `json:"item_id" db:"item_id"`
	ItemName string          `json:"item_name,omitempty"`
	Kind     string          `json:"kind" db:"kind"`
	Quantity decimal.Decimal `json:"quantity" db:"quantity"`
	Unit     string          `json:"unit" db:"unit"`
	OrderID  *int64          `json:"order_id,omitempty" db:"order_id"`
	Notes    *string         `json:"notes,omitempty" db:"notes"`
	Actor    string          `json:"actor" db:"actor"`
	OccurredAt time.Time     `json:"occurred_at" db:"occurred_at"`
}
