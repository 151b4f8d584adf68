package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/gestion-api/internal/application/dto"
	"github.com/jhoicas/gestion-api/internal/domain/entity"
	"github.com/jhoicas/gestion-api/pkg/logger"
)

// Locals keys para el usuario autenticado y su token en Fiber.
const (
	LocalUser  = "user"
	LocalToken = "token"
)

// userResolver es lo que el middleware necesita del caso de uso de auth.
type userResolver interface {
	ResolveCurrentUser(ctx context.Context, rawToken string) (*entity.User, error)
}

// AuthMiddleware valida el Bearer Token contra access_tokens y carga el usuario en c.Locals.
// Tokens revocados, falsificados o de usuarios inactivos responden 401.
func AuthMiddleware(resolver userResolver, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, code, msg := bearerToken(c)
		if code != "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: code, Message: msg})
		}
		user, err := resolver.ResolveCurrentUser(c.UserContext(), tokenString)
		if err != nil {
			return writeError(c, log, err)
		}
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o revocado"})
		}
		c.Locals(LocalUser, user)
		c.Locals(LocalToken, tokenString)
		return c.Next()
	}
}

// bearerToken extrae el token del header Authorization. Si falta o está mal formado
// devuelve el código y mensaje de error.
func bearerToken(c *fiber.Ctx) (token, code, msg string) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", "MISSING_TOKEN", "Authorization header requerido"
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", "INVALID_TOKEN", "formato: Bearer <token>"
	}
	token = strings.TrimSpace(parts[1])
	if token == "" {
		return "", "MISSING_TOKEN", "token vacío"
	}
	return token, "", ""
}

// GetUser devuelve el usuario autenticado (después de AuthMiddleware) o nil.
func GetUser(c *fiber.Ctx) *entity.User {
	u, _ := c.Locals(LocalUser).(*entity.User)
	return u
}

// GetToken devuelve el token crudo del request autenticado.
func GetToken(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalToken).(string)
	return s
}
