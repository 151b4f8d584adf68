package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/gestion-api/internal/domain"
	"github.com/jhoicas/gestion-api/internal/domain/entity"
	"github.com/jhoicas/gestion-api/internal/domain/repository"
)

var _ repository.RoleRepository = (*RoleRepo)(nil)

// RoleRepo implementación en memoria de RoleRepository.
type RoleRepo struct {
	s    *Store
	undo *undoLog // nil fuera de una transacción
}

// Create persiste un rol con nombre único.
func (r *RoleRepo) Create(_ context.Context, role *entity.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.roles {
		if existing.Name == role.Name {
			return domain.NewValidationError("name", "el rol ya existe")
		}
	}
	cp := *role
	r.undo.role(r.s, role.ID)
	r.s.roles[role.ID] = &cp
	return nil
}

// GetByName obtiene un rol por nombre.
func (r *RoleRepo) GetByName(_ context.Context, name string) (*entity.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, role := range r.s.roles {
		if role.Name == name {
			cp := *role
			return &cp, nil
		}
	}
	return nil, nil
}

// List devuelve los roles ordenados por nombre.
func (r *RoleRepo) List(_ context.Context) ([]*entity.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := make([]*entity.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		cp := *role
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// SyncUserRoles reemplaza el conjunto completo bajo un único lock.
func (r *RoleRepo) SyncUserRoles(_ context.Context, userID string, roleIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set := make(map[string]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		if _, ok := r.s.roles[id]; ok {
			set[id] = struct{}{}
		}
	}
	r.undo.userRole(r.s, userID)
	r.s.userRoles[userID] = set
	return nil
}

// AttachUserRole agrega el rol sin tocar los demás.
func (r *RoleRepo) AttachUserRole(_ context.Context, userID, roleID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.roles[roleID]; !ok {
		return domain.ErrNotFound
	}
	r.undo.userRole(r.s, userID)
	set, ok := r.s.userRoles[userID]
	if !ok {
		set = make(map[string]struct{})
		r.s.userRoles[userID] = set
	}
	set[roleID] = struct{}{}
	return nil
}
