package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem is a sellable dish as published by the menu catalog. The catalog
// is authored elsewhere; this backend only reads it when resolving order
// lines and recipes.
type MenuItem struct {
	ID        int64           `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Category  string          `json:"category" db:"category"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Available bool            `json:"available" db:"available"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
