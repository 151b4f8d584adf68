package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/gestion-api/internal/domain/entity"
	"github.com/jhoicas/gestion-api/internal/infrastructure/migrate"
	"github.com/jhoicas/gestion-api/internal/infrastructure/postgres"
	"github.com/jhoicas/gestion-api/pkg/logger"
)

// openTestPool conecta a TEST_DATABASE_URL y aplica las migraciones embebidas.
// Sin la variable el test se omite.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()

	db, err := migrate.Open(dsn)
	require.NoError(t, err)
	defer db.Close()
	_, err = migrate.New(db, nil, logger.Nop()).Up(ctx)
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestIntegration_UserRepoContraPostgres(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()

	schema, err := postgres.LoadUserSchema(ctx, pool)
	require.NoError(t, err)
	require.True(t, schema.RoleTables)

	users := postgres.NewUserRepository(pool, schema)
	roles := postgres.NewRoleRepository(pool, schema)

	suffix := uuid.NewString()[:8]
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := &entity.User{
		ID: uuid.NewString(), Username: "ana-" + suffix, Name: "Ana", Email: "ana-" + suffix + "@example.com",
		PasswordHash: "hash", Active: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, users.Create(ctx, user))
	t.Cleanup(func() { _ = users.Delete(context.Background(), user.ID) })

	for _, identifier := range []string{user.Username, user.Email} {
		got, err := users.FindByIdentifier(ctx, identifier)
		require.NoError(t, err, identifier)
		require.NotNil(t, got, identifier)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, user.Username, got.Username)
		assert.Empty(t, got.Roles)
	}

	missing, err := users.FindByIdentifier(ctx, "nadie-"+suffix)
	require.NoError(t, err)
	assert.Nil(t, missing)

	var ids []string
	for _, name := range []string{"a-" + suffix, "b-" + suffix, "c-" + suffix} {
		role := &entity.Role{ID: uuid.NewString(), Name: name, CreatedAt: now}
		require.NoError(t, roles.Create(ctx, role))
		ids = append(ids, role.ID)
		t.Cleanup(func() { _, _ = pool.Exec(context.Background(), `DELETE FROM roles WHERE id = $1`, role.ID) })
	}

	require.NoError(t, roles.SyncUserRoles(ctx, user.ID, ids[:2]))
	got, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-" + suffix, "b-" + suffix}, got.Roles)

	require.NoError(t, roles.SyncUserRoles(ctx, user.ID, ids[1:]))
	got, err = users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b-" + suffix, "c-" + suffix}, got.Roles)

	require.NoError(t, roles.SyncUserRoles(ctx, user.ID, nil))
	got, err = users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Roles)
}

func TestIntegration_UsuarioSinUsernameSeResuelvePorEmail(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	schema, err := postgres.LoadUserSchema(ctx, pool)
	require.NoError(t, err)
	users := postgres.NewUserRepository(pool, schema)

	email := "legacy-" + uuid.NewString()[:8] + "@example.com"
	now := time.Now().UTC()
	user := &entity.User{ID: uuid.NewString(), Name: "Legacy", Email: email, PasswordHash: "hash", Active: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, users.Create(ctx, user))
	t.Cleanup(func() { _ = users.Delete(context.Background(), user.ID) })

	got, err := users.FindByIdentifier(ctx, email)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, email, got.Username, "con username NULL el identificador cae al email")
}
