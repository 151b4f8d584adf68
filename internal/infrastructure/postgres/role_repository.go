package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/gestion-api/internal/domain/entity"
	"github.com/jhoicas/gestion-api/internal/domain/repository"
)

var _ repository.RoleRepository = (*RoleRepo)(nil)

// errNoRoleTables la base no tiene roles/user_role (instalación legada).
var errNoRoleTables = errors.New("sistema de roles no disponible: faltan las tablas roles/user_role")

// RoleRepo implementación del puerto RoleRepository sobre PostgreSQL (usable con pool o tx).
// Sin tablas de roles se comporta como un catálogo vacío.
type RoleRepo struct {
	q       Querier
	enabled bool
}

// NewRoleRepository construye el adaptador de persistencia para roles.
func NewRoleRepository(q Querier, schema UserSchema) *RoleRepo {
	return &RoleRepo{q: q, enabled: schema.RoleTables}
}

// Create persiste un nuevo rol. El nombre es único.
func (r *RoleRepo) Create(ctx context.Context, role *entity.Role) error {
	if !r.enabled {
		return errNoRoleTables
	}
	_, err := r.q.Exec(ctx, `INSERT INTO roles (id, name, created_at) VALUES ($1, $2, $3)`,
		role.ID, role.Name, role.CreatedAt)
	if err != nil {
		if verr := uniqueViolationError(err, "name"); verr != nil {
			return verr
		}
		return fmt.Errorf("insert role: %w", err)
	}
	return nil
}

// GetByName obtiene un rol por nombre exacto.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (*entity.Role, error) {
	if !r.enabled {
		return nil, nil
	}
	var role entity.Role
	err := r.q.QueryRow(ctx, `SELECT id, name, created_at FROM roles WHERE name = $1`, name).
		Scan(&role.ID, &role.Name, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get role by name: %w", err)
	}
	return &role, nil
}

// List lista los roles ordenados por nombre.
func (r *RoleRepo) List(ctx context.Context) ([]*entity.Role, error) {
	if !r.enabled {
		return []*entity.Role{}, nil
	}
	rows, err := r.q.Query(ctx, `SELECT id, name, created_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()
	list := []*entity.Role{}
	for rows.Next() {
		var role entity.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		list = append(list, &role)
	}
	return list, rows.Err()
}

// SyncUserRoles deja al usuario exactamente con roleIDs. Es una sola sentencia, por lo que
// un lector concurrente ve el conjunto anterior o el nuevo.
func (r *RoleRepo) SyncUserRoles(ctx context.Context, userID string, roleIDs []string) error {
	if !r.enabled {
		if len(roleIDs) == 0 {
			return nil
		}
		return errNoRoleTables
	}
	if roleIDs == nil {
		roleIDs = []string{}
	}
	query := `
		WITH removed AS (
			DELETE FROM user_role
			WHERE user_id = $1 AND NOT (role_id = ANY($2::text[]::uuid[]))
		)
		INSERT INTO user_role (user_id, role_id)
		SELECT $1, unnest($2::text[]::uuid[])
		ON CONFLICT (user_id, role_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, query, userID, roleIDs); err != nil {
		return fmt.Errorf("sync user roles: %w", err)
	}
	return nil
}

// AttachUserRole agrega un rol al usuario sin quitar los existentes. Idempotente.
func (r *RoleRepo) AttachUserRole(ctx context.Context, userID, roleID string) error {
	if !r.enabled {
		return errNoRoleTables
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO user_role (user_id, role_id) VALUES ($1, $2)
		ON CONFLICT (user_id, role_id) DO NOTHING`, userID, roleID)
	if err != nil {
		return fmt.Errorf("attach user role: %w", err)
	}
	return nil
}
