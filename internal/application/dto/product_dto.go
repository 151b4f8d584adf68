package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. Price se valida en el use case
// porque decimal.Decimal no es un tipo que el validador entienda.
type CreateProductRequest struct {
	Name  string           `json:"name" validate:"required,max=255"`
	Price *decimal.Decimal `json:"price"`
	Stock *int             `json:"stock" validate:"required,gte=0"`
}

// UpdateProductRequest actualización parcial.
type UpdateProductRequest struct {
	Name  *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Price *decimal.Decimal `json:"price"`
	Stock *int             `json:"stock" validate:"omitempty,gte=0"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
