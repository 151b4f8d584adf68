package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/gestion-api/internal/domain/identity"
)

// UserSchema describe la tabla users tal como existe en la base. Se descubre una sola vez
// al arrancar y no cambia durante la vida del proceso.
type UserSchema struct {
	// Columns columnas identificador candidatas presentes en users.
	Columns []string
	// RoleTables true si existen roles y user_role.
	RoleTables bool
}

// DefaultUserSchema esquema creado por las migraciones propias.
func DefaultUserSchema() UserSchema {
	return UserSchema{Columns: []string{identity.ColumnUsername, identity.ColumnEmail}, RoleTables: true}
}

// LoadUserSchema consulta information_schema para saber qué columnas identificador existen
// y si el sistema de roles está disponible.
func LoadUserSchema(ctx context.Context, q Querier) (UserSchema, error) {
	var s UserSchema
	rows, err := q.Query(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = 'users' AND column_name = ANY($1)`,
		identity.Candidates(),
	)
	if err != nil {
		return s, fmt.Errorf("leer columnas de users: %w", err)
	}
	cols, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return s, fmt.Errorf("leer columnas de users: %w", err)
	}
	s.Columns = identity.LookupOrder(cols)

	var n int
	err = q.QueryRow(ctx, `
		SELECT count(*) FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name IN ('roles', 'user_role')`,
	).Scan(&n)
	if err != nil {
		return s, fmt.Errorf("detectar tablas de roles: %w", err)
	}
	s.RoleTables = n == 2
	return s, nil
}

// WriteColumn columna donde se persiste el identificador; "" si solo existe email.
func (s UserSchema) WriteColumn() string {
	return identity.WriteColumn(s.Columns)
}

// identifierExpr expresión SQL que resuelve el identificador: primera candidata no nula.
func (s UserSchema) identifierExpr(alias string) string {
	cols := identity.LookupOrder(s.Columns)
	if len(cols) == 0 {
		return "NULL::text"
	}
	parts := make([]string, 0, len(cols))
	for _, c := range cols {
		parts = append(parts, fmt.Sprintf("NULLIF(%s::text, '')", pgx.Identifier{alias, c}.Sanitize()))
	}
	return "COALESCE(" + strings.Join(parts, ", ") + ")"
}

// rolesExpr subconsulta con los nombres de rol del usuario, ordenados.
func (s UserSchema) rolesExpr(alias string) string {
	if !s.RoleTables {
		return "'{}'::text[]"
	}
	return fmt.Sprintf(`ARRAY(SELECT r.name FROM user_role ur JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = %s ORDER BY r.name)`, pgx.Identifier{alias, "id"}.Sanitize())
}
