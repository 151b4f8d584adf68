package postgres

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/gestion-api/internal/domain"
	"github.com/jhoicas/gestion-api/internal/domain/entity"
	"github.com/jhoicas/gestion-api/internal/domain/identity"
)

// call sentencia recibida por scriptedQuerier.
type call struct {
	sql  string
	args []any
}

// scriptedQuerier registra cada sentencia y responde en orden con rows/execs.
type scriptedQuerier struct {
	calls []call
	rows  []scriptedRow
	execs []execResult
}

type execResult struct {
	tag string
	err error
}

func (q *scriptedQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.calls = append(q.calls, call{sql, args})
	if len(q.execs) == 0 {
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	res := q.execs[0]
	q.execs = q.execs[1:]
	return pgconn.NewCommandTag(res.tag), res.err
}

func (q *scriptedQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.calls = append(q.calls, call{sql, args})
	return nil, errors.New("Query no esperado")
}

func (q *scriptedQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.calls = append(q.calls, call{sql, args})
	if len(q.rows) == 0 {
		return scriptedRow{err: pgx.ErrNoRows}
	}
	row := q.rows[0]
	q.rows = q.rows[1:]
	return row
}

// scriptedRow copia vals en los destinos de Scan, por posición.
type scriptedRow struct {
	vals []any
	err  error
}

func (r scriptedRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.vals) {
		return errors.New("cantidad de columnas distinta")
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.vals[i]))
	}
	return nil
}

func userRowVals(id, ident, email string, roles []string) []any {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return []any{id, &ident, "Nombre", email, "hash", true, now, now, roles}
}

func TestUserRepo_FindByIdentifier_PruebaColumnasEnOrden(t *testing.T) {
	schema := UserSchema{Columns: []string{identity.ColumnEmail, identity.ColumnUsername}, RoleTables: true}
	q := &scriptedQuerier{rows: []scriptedRow{
		{err: pgx.ErrNoRows},
		{vals: userRowVals("u1", "ana", "ana@example.com", []string{"admin"})},
	}}
	repo := NewUserRepository(q, schema)

	u, err := repo.FindByIdentifier(context.Background(), "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "ana", u.Username)
	assert.Equal(t, []string{"admin"}, u.Roles)

	require.Len(t, q.calls, 2)
	assert.Contains(t, q.calls[0].sql, `WHERE "u"."username"::text = $1`)
	assert.Contains(t, q.calls[1].sql, `WHERE "u"."email"::text = $1`)
	for _, c := range q.calls {
		assert.Equal(t, []any{"ana@example.com"}, c.args)
		assert.Contains(t, c.sql, schema.identifierExpr("u"), "el SELECT resuelve el identificador con COALESCE")
		assert.Contains(t, c.sql, "ORDER BY u.created_at LIMIT 1")
	}
}

func TestUserRepo_FindByIdentifier_SinCoincidencia(t *testing.T) {
	q := &scriptedQuerier{}
	repo := NewUserRepository(q, UserSchema{Columns: []string{identity.ColumnUsuario, identity.ColumnEmail}})

	u, err := repo.FindByIdentifier(context.Background(), "nadie")
	require.NoError(t, err)
	assert.Nil(t, u)
	require.Len(t, q.calls, 2)
	assert.Contains(t, q.calls[0].sql, `"u"."usuario"::text = $1`)
	assert.Contains(t, q.calls[0].sql, "'{}'::text[]", "sin tablas de roles no hay subconsulta")

	u, err = repo.FindByIdentifier(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Len(t, q.calls, 2, "identificador vacío no consulta")
}

func TestUserRepo_FindByIdentifier_ErrorDeBaseSeCorta(t *testing.T) {
	q := &scriptedQuerier{rows: []scriptedRow{{err: errors.New("conexión perdida")}}}
	repo := NewUserRepository(q, DefaultUserSchema())

	_, err := repo.FindByIdentifier(context.Background(), "ana")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "find user by username")
	assert.Len(t, q.calls, 1)
}

func TestUserRepo_Create_EscribeIdentificadorONull(t *testing.T) {
	q := &scriptedQuerier{}
	repo := NewUserRepository(q, DefaultUserSchema())
	user := &entity.User{ID: "u1", Name: "Ana", Email: "ana@example.com", PasswordHash: "hash", Active: true}

	require.NoError(t, repo.Create(context.Background(), user))
	require.Len(t, q.calls, 1)
	assert.Contains(t, q.calls[0].sql, `"username")`)
	assert.Len(t, q.calls[0].args, 8)
	assert.Nil(t, q.calls[0].args[7], "username vacío se guarda como NULL")

	emailOnly := &scriptedQuerier{}
	require.NoError(t, NewUserRepository(emailOnly, UserSchema{Columns: []string{identity.ColumnEmail}}).
		Create(context.Background(), user))
	assert.Len(t, emailOnly.calls[0].args, 7)
}

func TestUserRepo_Create_UnicidadEsErrorDeValidacion(t *testing.T) {
	q := &scriptedQuerier{execs: []execResult{{err: &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}}}}
	repo := NewUserRepository(q, DefaultUserSchema())

	err := repo.Create(context.Background(), &entity.User{ID: "u1", Username: "ana", Email: "a@example.com"})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, identity.ColumnUsername)
}

func TestUserRepo_Update_SinFilasEsNoEncontrado(t *testing.T) {
	q := &scriptedQuerier{execs: []execResult{{tag: "UPDATE 0"}}}
	repo := NewUserRepository(q, DefaultUserSchema())

	err := repo.Update(context.Background(), &entity.User{ID: "u1", Email: "a@example.com"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRoleRepo_SyncUserRoles_UnaSentencia(t *testing.T) {
	q := &scriptedQuerier{}
	repo := NewRoleRepository(q, DefaultUserSchema())
	ctx := context.Background()

	require.NoError(t, repo.SyncUserRoles(ctx, "u1", []string{"r1", "r2"}))
	require.Len(t, q.calls, 1)
	sql := q.calls[0].sql
	assert.True(t, strings.Contains(sql, "WITH removed AS") && strings.Contains(sql, "DELETE FROM user_role"),
		"borrado e inserción van en la misma sentencia")
	assert.Contains(t, sql, "ON CONFLICT (user_id, role_id) DO NOTHING")
	assert.Equal(t, []any{"u1", []string{"r1", "r2"}}, q.calls[0].args)

	require.NoError(t, repo.SyncUserRoles(ctx, "u1", nil))
	assert.Equal(t, []any{"u1", []string{}}, q.calls[1].args, "nil se envía como arreglo vacío y quita todos")
}

func TestRoleRepo_SinTablasDeRoles(t *testing.T) {
	q := &scriptedQuerier{}
	repo := NewRoleRepository(q, UserSchema{Columns: []string{identity.ColumnEmail}})
	ctx := context.Background()

	assert.NoError(t, repo.SyncUserRoles(ctx, "u1", nil))
	assert.ErrorIs(t, repo.SyncUserRoles(ctx, "u1", []string{"r1"}), errNoRoleTables)
	assert.ErrorIs(t, repo.AttachUserRole(ctx, "u1", "r1"), errNoRoleTables)
	role, err := repo.GetByName(ctx, "admin")
	require.NoError(t, err)
	assert.Nil(t, role)
	assert.Empty(t, q.calls)
}
