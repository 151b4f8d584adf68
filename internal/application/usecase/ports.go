package usecase

import (
	"context"
	"time"

	"github.com/jhoicas/gestion-api/internal/domain/entity"
	"github.com/jhoicas/gestion-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción con repositorios atados a ella.
// Garantiza que el alta/edición de un usuario y la sincronización de sus roles sean atómicas.
type TxRunner interface {
	Run(ctx context.Context, fn func(users repository.UserRepository, roles repository.RoleRepository) error) error
}

// ProductReportGenerator genera el reporte de stock en PDF.
type ProductReportGenerator interface {
	GenerateStockReport(ctx context.Context, products []*entity.Product, requestedBy string, at time.Time) ([]byte, error)
}
