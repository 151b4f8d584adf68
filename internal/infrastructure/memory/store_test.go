package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/gestion-api/internal/domain"
	"github.com/jhoicas/gestion-api/internal/domain/entity"
	"github.com/jhoicas/gestion-api/internal/domain/identity"
	"github.com/jhoicas/gestion-api/internal/domain/repository"
	"github.com/jhoicas/gestion-api/internal/infrastructure/memory"
)

func newUser(id, username, email string) *entity.User {
	return &entity.User{ID: id, Username: username, Email: email, Name: username, Active: true, CreatedAt: time.Now()}
}

func TestUserRepo_UnicidadDeIdentificadorYEmail(t *testing.T) {
	ctx := context.Background()
	users := memory.NewStore().Users()

	require.NoError(t, users.Create(ctx, newUser("1", "ana", "ana@example.com")))

	err := users.Create(ctx, newUser("2", "ana", "otra@example.com"))
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "username")

	err = users.Create(ctx, newUser("3", "otra", "ana@example.com"))
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "email")

	list, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUserRepo_FindByIdentifier_PrioridadDeColumnas(t *testing.T) {
	ctx := context.Background()
	users := memory.NewStore().Users()
	require.NoError(t, users.Create(ctx, newUser("1", "ana", "ana@example.com")))

	byUsername, err := users.FindByIdentifier(ctx, "ana")
	require.NoError(t, err)
	require.NotNil(t, byUsername)
	assert.Equal(t, "1", byUsername.ID)

	byEmail, err := users.FindByIdentifier(ctx, "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, "ana", byEmail.Username, "el identificador resuelto es username")

	missing, err := users.FindByIdentifier(ctx, "nadie")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepo_SoloEmail(t *testing.T) {
	ctx := context.Background()
	users := memory.NewStore(memory.WithColumns(identity.ColumnEmail)).Users()
	require.NoError(t, users.Create(ctx, newUser("1", "ignorado", "legacy@example.com")))

	u, err := users.FindByIdentifier(ctx, "legacy@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "legacy@example.com", u.Username)

	u, err = users.FindByIdentifier(ctx, "ignorado")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestStore_Run_RestauraAnteError(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	boom := errors.New("boom")

	err := store.Run(ctx, func(users repository.UserRepository, roles repository.RoleRepository) error {
		require.NoError(t, users.Create(ctx, newUser("1", "ana", "ana@example.com")))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	u, err := store.Users().GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, u, "el alta debe deshacerse")
}

func TestStore_Run_RollbackConservaEscriturasAjenas(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Users().Create(ctx, newUser("prev", "eva", "eva@example.com")))
	require.NoError(t, store.Roles().Create(ctx, &entity.Role{ID: "r1", Name: "admin"}))
	boom := errors.New("boom")

	err := store.Run(ctx, func(users repository.UserRepository, roles repository.RoleRepository) error {
		require.NoError(t, users.Create(ctx, newUser("1", "ana", "ana@example.com")))
		require.NoError(t, roles.SyncUserRoles(ctx, "1", []string{"r1"}))
		require.NoError(t, users.Delete(ctx, "prev"))

		// Alta fuera de la transacción mientras ésta sigue abierta.
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Users().Create(ctx, newUser("other", "otro", "otro@example.com")))
		}()
		wg.Wait()
		return boom
	})
	assert.ErrorIs(t, err, boom)

	other, err := store.Users().GetByID(ctx, "other")
	require.NoError(t, err)
	require.NotNil(t, other, "el rollback no debe borrar escrituras de otras operaciones")
	assert.Equal(t, "otro", other.Username)

	u, err := store.Users().GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, u)

	prev, err := store.Users().GetByID(ctx, "prev")
	require.NoError(t, err)
	assert.NotNil(t, prev, "el borrado dentro de la transacción se deshace")
}

func TestUserRepo_DeleteEnCascada(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Users().Create(ctx, newUser("1", "ana", "ana@example.com")))
	require.NoError(t, store.Roles().Create(ctx, &entity.Role{ID: "r1", Name: "admin"}))
	require.NoError(t, store.Roles().AttachUserRole(ctx, "1", "r1"))
	require.NoError(t, store.Tokens().Create(ctx, &entity.AccessToken{ID: "t1", UserID: "1"}))

	u, err := store.Users().GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, u.Roles)

	require.NoError(t, store.Users().Delete(ctx, "1"))
	tok, err := store.Tokens().GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, tok)

	assert.ErrorIs(t, store.Users().Delete(ctx, "1"), domain.ErrNotFound)
}

func TestRoleRepo_SyncReemplazaTodo(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Users().Create(ctx, newUser("1", "ana", "ana@example.com")))
	for id, name := range map[string]string{"r1": "admin", "r2": "empleado", "r3": "cliente"} {
		require.NoError(t, store.Roles().Create(ctx, &entity.Role{ID: id, Name: name}))
	}

	require.NoError(t, store.Roles().SyncUserRoles(ctx, "1", []string{"r1", "r2"}))
	require.NoError(t, store.Roles().SyncUserRoles(ctx, "1", []string{"r3"}))

	u, err := store.Users().GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"cliente"}, u.Roles)

	roles, err := store.Roles().List(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 3)
	assert.Equal(t, "admin", roles[0].Name)

	err = store.Roles().Create(ctx, &entity.Role{ID: "r4", Name: "admin"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
