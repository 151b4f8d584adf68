// Package seed carga los datos base: roles del sistema y el usuario administrador.
// Todas las operaciones son idempotentes.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/gestion-api/internal/domain/entity"
	"github.com/jhoicas/gestion-api/internal/domain/repository"
	"github.com/jhoicas/gestion-api/pkg/logger"
)

// DefaultRoles roles creados por SeedRoles.
var DefaultRoles = []string{entity.RoleAdmin, entity.RoleEmpleado, entity.RoleCliente}

// AdminUser datos del administrador inicial.
type AdminUser struct {
	Username string
	Email    string
	Name     string
	Password string
}

// Seeder crea roles y administrador si no existen.
type Seeder struct {
	users repository.UserRepository
	roles repository.RoleRepository
	log   *logger.Logger
}

// New construye el seeder. log puede ser nil.
func New(users repository.UserRepository, roles repository.RoleRepository, log *logger.Logger) *Seeder {
	if log == nil {
		log = logger.Nop()
	}
	return &Seeder{users: users, roles: roles, log: log.Component("seed")}
}

// SeedRoles crea los roles que falten y devuelve los IDs por nombre.
func (s *Seeder) SeedRoles(ctx context.Context) (map[string]string, error) {
	ids := make(map[string]string, len(DefaultRoles))
	for _, name := range DefaultRoles {
		role, err := s.roles.GetByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("buscar rol %s: %w", name, err)
		}
		if role == nil {
			role = &entity.Role{ID: uuid.New().String(), Name: name, CreatedAt: time.Now()}
			if err := s.roles.Create(ctx, role); err != nil {
				return nil, fmt.Errorf("crear rol %s: %w", name, err)
			}
			s.log.Info().Str("role", name).Msg("rol creado")
		}
		ids[name] = role.ID
	}
	return ids, nil
}

// SeedAdmin crea el administrador si no existe y le adjunta el rol admin sin quitar
// los roles que ya tuviera.
func (s *Seeder) SeedAdmin(ctx context.Context, admin AdminUser, adminRoleID string) (*entity.User, error) {
	user, err := s.users.FindByIdentifier(ctx, admin.Email)
	if err != nil {
		return nil, fmt.Errorf("buscar admin: %w", err)
	}
	if user == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		now := time.Now()
		user = &entity.User{
			ID:           uuid.New().String(),
			Username:     admin.Username,
			Name:         admin.Name,
			Email:        admin.Email,
			PasswordHash: string(hash),
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("crear admin: %w", err)
		}
		s.log.Info().Str("email", admin.Email).Msg("usuario administrador creado")
	}
	if adminRoleID != "" && !user.HasRole(entity.RoleAdmin) {
		if err := s.roles.AttachUserRole(ctx, user.ID, adminRoleID); err != nil {
			return nil, fmt.Errorf("asignar rol admin: %w", err)
		}
	}
	return s.users.GetByID(ctx, user.ID)
}

// Run ejecuta todos los seeders en orden.
func (s *Seeder) Run(ctx context.Context, admin AdminUser) error {
	ids, err := s.SeedRoles(ctx)
	if err != nil {
		return err
	}
	if _, err := s.SeedAdmin(ctx, admin, ids[entity.RoleAdmin]); err != nil {
		return err
	}
	return nil
}
