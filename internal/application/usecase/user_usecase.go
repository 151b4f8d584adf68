package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/gestion-api/internal/application/dto"
	"github.com/jhoicas/gestion-api/internal/application/validation"
	"github.com/jhoicas/gestion-api/internal/domain"
	"github.com/jhoicas/gestion-api/internal/domain/entity"
	"github.com/jhoicas/gestion-api/internal/domain/repository"
)

// UserUseCase administración de usuarios. Toda validación ocurre antes de escribir;
// el usuario y sus roles se persisten en una sola transacción.
type UserUseCase struct {
	users  repository.UserRepository
	roles  repository.RoleRepository
	tokens repository.AccessTokenRepository
	tx     TxRunner
}

// NewUserUseCase construye el caso de uso con los puertos de persistencia.
func NewUserUseCase(users repository.UserRepository, roles repository.RoleRepository, tokens repository.AccessTokenRepository, tx TxRunner) *UserUseCase {
	return &UserUseCase{users: users, roles: roles, tokens: tokens, tx: tx}
}

// List devuelve todos los usuarios (sin password).
func (uc *UserUseCase) List(ctx context.Context) ([]dto.UserResponse, error) {
	list, err := uc.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		out = append(out, *entityToUserResponse(u))
	}
	return out, nil
}

// GetByID obtiene un usuario por ID.
func (uc *UserUseCase) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return entityToUserResponse(user), nil
}

// Create da de alta un usuario activo (salvo indicación) con los roles pedidos.
func (uc *UserUseCase) Create(ctx context.Context, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	verr := validation.Collect(&in)
	if err := uc.checkUnique(ctx, in.Username, in.Email, "", verr); err != nil {
		return nil, err
	}
	roleIDs, err := resolveRoleIDs(ctx, uc.roles, in.Roles, verr)
	if err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	now := time.Now()
	user := &entity.User{
		ID:           uuid.New().String(),
		Username:     in.Username,
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: string(hash),
		Active:       active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = uc.tx.Run(ctx, func(users repository.UserRepository, roles repository.RoleRepository) error {
		if err := users.Create(ctx, user); err != nil {
			return err
		}
		return roles.SyncUserRoles(ctx, user.ID, roleIDs)
	})
	if err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, user.ID)
}

// Update aplica una actualización parcial. Password vacío u omitido conserva el hash;
// Roles presente reemplaza el conjunto completo.
func (uc *UserUseCase) Update(ctx context.Context, id string, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}

	verr := validation.Collect(&in)
	var newUsername, newEmail string
	if in.Username != nil {
		newUsername = strings.TrimSpace(*in.Username)
	}
	if in.Email != nil {
		newEmail = strings.TrimSpace(*in.Email)
	}
	if err := uc.checkUnique(ctx, newUsername, newEmail, id, verr); err != nil {
		return nil, err
	}
	var roleIDs []string
	if in.Roles != nil {
		if roleIDs, err = resolveRoleIDs(ctx, uc.roles, in.Roles, verr); err != nil {
			return nil, err
		}
	}
	// Solo en blanco conserva el hash; si no, se guarda tal cual llega, como en el alta y el login.
	password := ""
	if in.Password != nil && strings.TrimSpace(*in.Password) != "" {
		password = *in.Password
		if utf8.RuneCountInString(password) < validation.MinPasswordLength {
			verr.Add("password", fmt.Sprintf("debe tener al menos %d caracteres", validation.MinPasswordLength))
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if newUsername != "" {
		user.Username = newUsername
	}
	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if newEmail != "" {
		user.Email = newEmail
	}
	if in.Active != nil {
		user.Active = *in.Active
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	user.UpdatedAt = time.Now()

	err = uc.tx.Run(ctx, func(users repository.UserRepository, roles repository.RoleRepository) error {
		if err := users.Update(ctx, user); err != nil {
			return err
		}
		if in.Roles == nil {
			return nil
		}
		return roles.SyncUserRoles(ctx, user.ID, roleIDs)
	})
	if err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, id)
}

// Delete elimina el usuario y revoca sus tokens.
func (uc *UserUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.tokens.DeleteByUser(ctx, id); err != nil {
		return err
	}
	return uc.users.Delete(ctx, id)
}

func (uc *UserUseCase) checkUnique(ctx context.Context, username, email, excludeID string, verr *domain.ValidationError) error {
	if username != "" {
		taken, err := uc.users.ExistsByIdentifier(ctx, username, excludeID)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("username", "el identificador ya está registrado")
		}
	}
	if email != "" {
		taken, err := uc.users.ExistsByEmail(ctx, email, excludeID)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("email", "el email ya está registrado")
		}
	}
	return nil
}

func entityToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return &dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Email:     u.Email,
		Active:    u.Active,
		Roles:     roles,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
