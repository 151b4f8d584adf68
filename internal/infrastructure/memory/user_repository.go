package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/gestion-api/internal/domain"
	"github.com/jhoicas/gestion-api/internal/domain/entity"
	"github.com/jhoicas/gestion-api/internal/domain/identity"
	"github.com/jhoicas/gestion-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación en memoria de UserRepository.
type UserRepo struct {
	s    *Store
	undo *undoLog // nil fuera de una transacción
}

// Create persiste un nuevo usuario. Identificador y email deben ser únicos.
func (r *UserRepo) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row := r.newRow(user)
	if err := r.checkUnique(row, ""); err != nil {
		return err
	}
	r.undo.user(r.s, user.ID)
	r.s.users[user.ID] = row
	return nil
}

// GetByID obtiene un usuario por ID con sus roles.
func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	row, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return r.toEntity(row), nil
}

// FindByIdentifier recorre las columnas candidatas existentes en orden de prioridad.
func (r *UserRepo) FindByIdentifier(_ context.Context, identifier string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, col := range identity.LookupOrder(r.s.columns) {
		if row := r.findBy(col, identifier, ""); row != nil {
			return r.toEntity(row), nil
		}
	}
	return nil, nil
}

// ExistsByIdentifier informa si algún otro usuario usa el identificador.
func (r *UserRepo) ExistsByIdentifier(_ context.Context, identifier, excludeID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, col := range identity.LookupOrder(r.s.columns) {
		if r.findBy(col, identifier, excludeID) != nil {
			return true, nil
		}
	}
	return false, nil
}

// ExistsByEmail informa si algún otro usuario usa el email.
func (r *UserRepo) ExistsByEmail(_ context.Context, email, excludeID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.findBy(identity.ColumnEmail, email, excludeID) != nil, nil
}

// Update reemplaza los datos del usuario (no toca roles).
func (r *UserRepo) Update(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return domain.ErrNotFound
	}
	row := r.newRow(user)
	if err := r.checkUnique(row, user.ID); err != nil {
		return err
	}
	r.undo.user(r.s, user.ID)
	r.s.users[user.ID] = row
	return nil
}

// List devuelve todos los usuarios por fecha de creación.
func (r *UserRepo) List(_ context.Context) ([]*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := make([]*entity.User, 0, len(r.s.users))
	for _, row := range r.s.users {
		list = append(list, r.toEntity(row))
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

// Delete elimina el usuario con sus roles y tokens.
func (r *UserRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return domain.ErrNotFound
	}
	r.undo.user(r.s, id)
	r.undo.userRole(r.s, id)
	delete(r.s.users, id)
	delete(r.s.userRoles, id)
	for tid, t := range r.s.tokens {
		if t.UserID == id {
			r.undo.token(r.s, tid)
			delete(r.s.tokens, tid)
		}
	}
	return nil
}

func (r *UserRepo) newRow(user *entity.User) *userRow {
	row := &userRow{user: *user, ident: make(map[string]*string)}
	row.user.Roles = nil
	email := user.Email
	row.ident[identity.ColumnEmail] = &email
	if col := identity.WriteColumn(r.s.columns); col != "" && user.Username != "" {
		username := user.Username
		row.ident[col] = &username
	}
	return row
}

func (r *UserRepo) checkUnique(row *userRow, excludeID string) error {
	if col := identity.WriteColumn(r.s.columns); col != "" {
		if v := row.ident[col]; v != nil && r.findBy(col, *v, excludeID) != nil {
			return domain.NewValidationError(identity.ColumnUsername, "el identificador ya está registrado")
		}
	}
	if r.findBy(identity.ColumnEmail, row.user.Email, excludeID) != nil {
		return domain.NewValidationError(identity.ColumnEmail, "el email ya está registrado")
	}
	return nil
}

// findBy requiere el lock tomado.
func (r *UserRepo) findBy(col, value, excludeID string) *userRow {
	if value == "" {
		return nil
	}
	for id, row := range r.s.users {
		if id == excludeID {
			continue
		}
		if v := row.ident[col]; v != nil && *v == value {
			return row
		}
	}
	return nil
}

// toEntity requiere el lock tomado.
func (r *UserRepo) toEntity(row *userRow) *entity.User {
	u := row.user
	u.Username = identity.Resolve(row.ident)
	u.Roles = []string{}
	for roleID := range r.s.userRoles[u.ID] {
		if role, ok := r.s.roles[roleID]; ok {
			u.Roles = append(u.Roles, role.Name)
		}
	}
	sort.Strings(u.Roles)
	return &u
}
