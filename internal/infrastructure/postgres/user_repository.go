package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/gestion-api/internal/domain"
	"github.com/jhoicas/gestion-api/internal/domain/entity"
	"github.com/jhoicas/gestion-api/internal/domain/identity"
	"github.com/jhoicas/gestion-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL (usable con pool o tx).
// Las consultas se arman según el UserSchema descubierto al arrancar.
type UserRepo struct {
	q      Querier
	schema UserSchema
	sel    string
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier, schema UserSchema) *UserRepo {
	sel := fmt.Sprintf(`
		SELECT u.id, %s, u.name, u.email, u.password_hash, u.active, u.created_at, u.updated_at, %s
		FROM users u`, schema.identifierExpr("u"), schema.rolesExpr("u"))
	return &UserRepo{q: q, schema: schema, sel: sel}
}

// Create persiste un nuevo usuario.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	args := []any{user.ID, user.Name, user.Email, user.PasswordHash, user.Active, user.CreatedAt, user.UpdatedAt}
	if col := r.schema.WriteColumn(); col != "" {
		query = fmt.Sprintf(`
		INSERT INTO users (id, name, email, password_hash, active, created_at, updated_at, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, pgx.Identifier{col}.Sanitize())
		args = append(args, nullIfEmpty(user.Username))
	}
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		if verr := uniqueViolationError(err, identity.ColumnEmail); verr != nil {
			return verr
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID obtiene un usuario por ID con sus roles.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if !validID(id) {
		return nil, nil
	}
	u, err := scanUser(r.q.QueryRow(ctx, r.sel+` WHERE u.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// FindByIdentifier prueba las columnas candidatas en orden; gana la primera que coincide.
func (r *UserRepo) FindByIdentifier(ctx context.Context, identifier string) (*entity.User, error) {
	if identifier == "" {
		return nil, nil
	}
	for _, col := range identity.LookupOrder(r.schema.Columns) {
		query := fmt.Sprintf(`%s WHERE %s::text = $1 ORDER BY u.created_at LIMIT 1`,
			r.sel, pgx.Identifier{"u", col}.Sanitize())
		u, err := scanUser(r.q.QueryRow(ctx, query, identifier))
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("find user by %s: %w", col, err)
		}
	}
	return nil, nil
}

// ExistsByIdentifier informa si otro usuario (distinto de excludeID) usa el identificador
// en cualquiera de las columnas candidatas.
func (r *UserRepo) ExistsByIdentifier(ctx context.Context, identifier, excludeID string) (bool, error) {
	for _, col := range identity.LookupOrder(r.schema.Columns) {
		taken, err := r.exists(ctx, col, identifier, excludeID)
		if err != nil || taken {
			return taken, err
		}
	}
	return false, nil
}

// ExistsByEmail informa si otro usuario (distinto de excludeID) usa el email.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return r.exists(ctx, identity.ColumnEmail, email, excludeID)
}

func (r *UserRepo) exists(ctx context.Context, col, value, excludeID string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM users WHERE %s::text = $1 AND id::text <> $2)`,
		pgx.Identifier{col}.Sanitize())
	var taken bool
	if err := r.q.QueryRow(ctx, query, value, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("check user %s: %w", col, err)
	}
	return taken, nil
}

// Update actualiza los datos del usuario (los roles se sincronizan aparte).
func (r *UserRepo) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users SET name = $2, email = $3, password_hash = $4, active = $5, updated_at = $6
		WHERE id = $1`
	args := []any{user.ID, user.Name, user.Email, user.PasswordHash, user.Active, user.UpdatedAt}
	if col := r.schema.WriteColumn(); col != "" {
		query = fmt.Sprintf(`
		UPDATE users SET name = $2, email = $3, password_hash = $4, active = $5, updated_at = $6, %s = $7
		WHERE id = $1`, pgx.Identifier{col}.Sanitize())
		args = append(args, nullIfEmpty(user.Username))
	}
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		if verr := uniqueViolationError(err, identity.ColumnEmail); verr != nil {
			return verr
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista todos los usuarios por fecha de creación.
func (r *UserRepo) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.q.Query(ctx, r.sel+` ORDER BY u.created_at, u.id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	list := []*entity.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// Delete elimina un usuario por ID. user_role y access_tokens caen por ON DELETE CASCADE.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	var ident *string
	err := row.Scan(&u.ID, &ident, &u.Name, &u.Email, &u.PasswordHash, &u.Active, &u.CreatedAt, &u.UpdatedAt, &u.Roles)
	if err != nil {
		return nil, err
	}
	if ident != nil {
		u.Username = *ident
	}
	if u.Roles == nil {
		u.Roles = []string{}
	}
	return &u, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
