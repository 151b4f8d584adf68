package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/gestion-api/internal/application/dto"
	"github.com/jhoicas/gestion-api/internal/application/validation"
	"github.com/jhoicas/gestion-api/internal/domain"
	"github.com/jhoicas/gestion-api/internal/domain/entity"
	"github.com/jhoicas/gestion-api/internal/domain/repository"
	"github.com/jhoicas/gestion-api/pkg/jwt"
)

// JWTConfig configuración para la firma de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int // 0 = sin expiración
	Issuer     string
}

// hash contra el que se compara cuando el usuario no existe, para que el tiempo de
// respuesta no revele si el identificador está registrado.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), bcrypt.DefaultCost)

// AuthUseCase registro, login, logout y resolución del usuario actual.
type AuthUseCase struct {
	userRepo  repository.UserRepository
	tokenRepo repository.AccessTokenRepository
	cache     SessionCache
	jwtCfg    JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth. cache puede ser nil.
func NewAuthUseCase(userRepo repository.UserRepository, tokenRepo repository.AccessTokenRepository, cache SessionCache, jwtCfg JWTConfig) *AuthUseCase {
	if cache == nil {
		cache = noopCache{}
	}
	return &AuthUseCase{userRepo: userRepo, tokenRepo: tokenRepo, cache: cache, jwtCfg: jwtCfg}
}

// Register crea un usuario activo y emite su primer token.
func (uc *AuthUseCase) Register(ctx context.Context, in dto.RegisterRequest) (*dto.LoginResponse, error) {
	verr := validation.Collect(&in)
	login := in.Login()
	email := strings.TrimSpace(in.Email)

	field := "identifier"
	if strings.TrimSpace(in.Identifier) == "" && strings.TrimSpace(in.Username) != "" {
		field = "username"
	}
	if login == "" {
		if _, reported := verr.Fields[field]; !reported {
			verr.Add(field, "el campo es obligatorio")
		}
	} else {
		taken, err := uc.userRepo.ExistsByIdentifier(ctx, login, "")
		if err != nil {
			return nil, err
		}
		if taken {
			verr.Add(field, "el identificador ya está registrado")
		}
	}
	if email != "" {
		taken, err := uc.userRepo.ExistsByEmail(ctx, email, "")
		if err != nil {
			return nil, err
		}
		if taken {
			verr.Add("email", "el email ya está registrado")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now()
	user := &entity.User{
		ID:           uuid.New().String(),
		Username:     login,
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: string(hash),
		Active:       true,
		Roles:        []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	token, err := uc.issueToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{Token: token, User: *toUserResponse(user)}, nil
}

// Login verifica identificador/password y emite un token nuevo. Los tokens previos siguen vigentes.
// Usuario inexistente, password incorrecto y cuenta inactiva devuelven el mismo error.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	user, err := uc.userRepo.FindByIdentifier(ctx, in.Login())
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(in.Password))
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if !user.Active {
		return nil, domain.ErrUnauthorized
	}
	token, err := uc.issueToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{Token: token, User: *toUserResponse(user)}, nil
}

// ResolveCurrentUser devuelve el dueño del token o nil si el token es inválido, fue revocado
// o el usuario ya no está activo. La fila de access_tokens se consulta siempre; la caché solo
// corta antes los tokens marcados como revocados. Solo devuelve error ante fallos del store.
func (uc *AuthUseCase) ResolveCurrentUser(ctx context.Context, rawToken string) (*entity.User, error) {
	claims, err := jwt.Parse(uc.jwtCfg.Secret, rawToken)
	if err != nil {
		return nil, nil
	}

	if revoked, err := uc.cache.IsRevoked(ctx, claims.ID); err == nil && revoked {
		return nil, nil
	}
	tok, err := uc.tokenRepo.GetByID(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if tok == nil || tok.UserID != claims.UserID {
		return nil, nil
	}

	user, err := uc.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, nil
	}
	return user, nil
}

// Logout revoca el token. Es idempotente: tokens desconocidos, revocados o mal formados no son error.
func (uc *AuthUseCase) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	claims, err := jwt.Parse(uc.jwtCfg.Secret, rawToken)
	if err != nil {
		return nil
	}
	if err := uc.tokenRepo.Delete(ctx, claims.ID); err != nil {
		return err
	}
	// La fila ya no existe: si la marca falla el token se rechaza igual en la base.
	_ = uc.cache.MarkRevoked(ctx, claims.ID)
	return nil
}

// Me devuelve el perfil del usuario autenticado.
func (uc *AuthUseCase) Me(user *entity.User) *dto.UserResponse {
	return toUserResponse(user)
}

func (uc *AuthUseCase) issueToken(ctx context.Context, userID string) (string, error) {
	tok := &entity.AccessToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      "api",
		CreatedAt: time.Now(),
	}
	if err := uc.tokenRepo.Create(ctx, tok); err != nil {
		return "", err
	}
	signed, err := jwt.Generate(uc.jwtCfg.Secret, tok.ID, userID, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		_ = uc.tokenRepo.Delete(ctx, tok.ID)
		return "", err
	}
	return signed, nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
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
