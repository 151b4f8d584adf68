package repository

import (
	"context"

	"github.com/jhoicas/gestion-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
// Las lecturas devuelven (nil, nil) si no existe y cargan Roles en la misma consulta.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// FindByIdentifier busca en las columnas candidatas existentes, en orden de prioridad.
	FindByIdentifier(ctx context.Context, identifier string) (*entity.User, error)
	// ExistsByIdentifier y ExistsByEmail ignoran el usuario excludeID (vacío = ninguno).
	ExistsByIdentifier(ctx context.Context, identifier, excludeID string) (bool, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Update(ctx context.Context, user *entity.User) error
	List(ctx context.Context) ([]*entity.User, error)
	// Delete devuelve domain.ErrNotFound si el usuario no existe.
	Delete(ctx context.Context, id string) error
}
