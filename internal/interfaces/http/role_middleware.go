package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/gestion-api/internal/application/auth"
	"github.com/jhoicas/gestion-api/internal/application/dto"
	"github.com/jhoicas/gestion-api/internal/domain"
)

// RequireRole devuelve un middleware que autoriza con la política de roles.
// Debe usarse DESPUÉS de AuthMiddleware (necesita LocalUser).
//
// Comportamiento:
//   - 401 Unauthorized → no hay usuario autenticado en el contexto.
//   - 403 Forbidden    → el usuario no tiene ninguno de los roles.
//   - Sin roles → basta con estar autenticado.
func RequireRole(policy auth.Policy, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := policy.Authorize(GetUser(c), roles...)
		switch {
		case err == nil:
			return c.Next()
		case errors.Is(err, domain.ErrUnauthorized):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "no autenticado",
			})
		default:
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "no tiene permisos para esta acción",
			})
		}
	}
}
