package auth

import (
	"github.com/jhoicas/gestion-api/internal/domain"
	"github.com/jhoicas/gestion-api/internal/domain/entity"
)

// Policy decide si un usuario autenticado puede ejecutar una operación.
// Todos los handlers la consumen a través del middleware RequireRole.
type Policy interface {
	// Authorize devuelve nil, domain.ErrUnauthorized (user nil) o domain.ErrForbidden.
	Authorize(user *entity.User, required ...string) error
}

var _ Policy = (*RolePolicy)(nil)

// RolePolicy autoriza por intersección entre los roles del usuario y los requeridos.
type RolePolicy struct {
	roleSystem bool
}

// NewRolePolicy construye la política. roleSystem=false activa el fallback legado.
func NewRolePolicy(roleSystem bool) *RolePolicy {
	return &RolePolicy{roleSystem: roleSystem}
}

// Authorize implementa Policy.
func (p *RolePolicy) Authorize(user *entity.User, required ...string) error {
	if user == nil {
		return domain.ErrUnauthorized
	}
	if len(required) == 0 {
		return nil
	}
	roles := user.Roles
	if !p.roleSystem {
		roles = legacyRoles(user)
	}
	for _, want := range required {
		for _, have := range roles {
			if have == want {
				return nil
			}
		}
	}
	return domain.ErrForbidden
}

// legacyRoles compatibilidad con instalaciones sin tablas de roles: el usuario
// cuyo identificador es "admin" es administrador. Eliminar cuando todas las
// instalaciones tengan roles asignados.
func legacyRoles(user *entity.User) []string {
	if user.Username == entity.RoleAdmin {
		return []string{entity.RoleAdmin}
	}
	return nil
}
