package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del inventario.
type Product struct {
	ID        string
	Name      string
	Price     decimal.Decimal // >= 0
	Stock     int             // >= 0
	CreatedAt time.Time
	UpdatedAt time.Time
}
