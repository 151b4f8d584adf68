package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/gestion-api/internal/application/dto"
	"github.com/jhoicas/gestion-api/internal/application/validation"
	"github.com/jhoicas/gestion-api/internal/domain"
	"github.com/jhoicas/gestion-api/internal/domain/entity"
	"github.com/jhoicas/gestion-api/internal/domain/repository"
)

// NormalizeRoleName recorta espacios y pasa a minúsculas (reglas Unicode) para que
// "Admin" y "admin" sean el mismo rol.
func NormalizeRoleName(name string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(name))
}

// RoleUseCase casos de uso de roles.
type RoleUseCase struct {
	repo repository.RoleRepository
}

// NewRoleUseCase construye el caso de uso.
func NewRoleUseCase(repo repository.RoleRepository) *RoleUseCase {
	return &RoleUseCase{repo: repo}
}

// List devuelve los roles ordenados por nombre.
func (uc *RoleUseCase) List(ctx context.Context) ([]dto.RoleResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RoleResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toRoleResponse(r))
	}
	return out, nil
}

// Create crea un rol con nombre único.
func (uc *RoleUseCase) Create(ctx context.Context, in dto.CreateRoleRequest) (*dto.RoleResponse, error) {
	in.Name = NormalizeRoleName(in.Name)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetByName(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.NewValidationError("name", "el rol ya existe")
	}
	role := &entity.Role{ID: uuid.New().String(), Name: in.Name, CreatedAt: time.Now()}
	if err := uc.repo.Create(ctx, role); err != nil {
		return nil, err
	}
	out := toRoleResponse(role)
	return &out, nil
}

// resolveRoleIDs traduce nombres a IDs; los nombres desconocidos se reportan en el campo roles.
func resolveRoleIDs(ctx context.Context, repo repository.RoleRepository, names []string, verr *domain.ValidationError) ([]string, error) {
	ids := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name := NormalizeRoleName(raw)
		if _, dup := seen[name]; dup || name == "" {
			continue
		}
		seen[name] = struct{}{}
		role, err := repo.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if role == nil {
			verr.Add("roles", "el rol '"+name+"' no existe")
			continue
		}
		ids = append(ids, role.ID)
	}
	return ids, nil
}

func toRoleResponse(r *entity.Role) dto.RoleResponse {
	return dto.RoleResponse{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt}
}
