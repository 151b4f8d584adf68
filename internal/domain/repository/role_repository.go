package repository

import (
	"context"

	"github.com/jhoicas/gestion-api/internal/domain/entity"
)

// RoleRepository define el puerto de persistencia para Role y la relación user_role.
type RoleRepository interface {
	Create(ctx context.Context, role *entity.Role) error
	GetByName(ctx context.Context, name string) (*entity.Role, error)
	List(ctx context.Context) ([]*entity.Role, error)
	// SyncUserRoles reemplaza todos los roles del usuario. Debe ejecutarse dentro de una transacción.
	SyncUserRoles(ctx context.Context, userID string, roleIDs []string) error
	// AttachUserRole agrega un rol sin tocar los demás; no falla si ya lo tiene.
	AttachUserRole(ctx context.Context, userID, roleID string) error
}
