package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/gestion-api/internal/application/auth"
	"github.com/jhoicas/gestion-api/internal/application/usecase"
	"github.com/jhoicas/gestion-api/internal/domain/entity"
	"github.com/jhoicas/gestion-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	UserUC    *usecase.UserUseCase
	RoleUC    *usecase.RoleUseCase
	ProductUC *usecase.ProductUseCase
	Policy    auth.Policy
	Log       *logger.Logger
	// Health verifica dependencias externas (DB); nil = siempre ok.
	Health func(ctx context.Context) error
	// StaticDir sirve el frontend si no está vacío.
	StaticDir string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	app.Get("/health", healthHandler(deps.Health, log.Component("health")))

	api := app.Group("/api")
	authn := AuthMiddleware(deps.AuthUC, log)

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC, log)
	api.Post("/login", authHandler.Login)
	api.Post("/register", authHandler.Register)
	api.Post("/logout", authHandler.Logout)
	api.Get("/me", authn, authHandler.Me)

	// Usuarios y roles (admin)
	adminOnly := RequireRole(deps.Policy, entity.RoleAdmin)
	users := api.Group("/users", authn, adminOnly)
	userHandler := NewUserHandler(deps.UserUC, log)
	users.Get("/", userHandler.List)
	users.Post("/", userHandler.Create)
	users.Get("/:id", userHandler.GetByID)
	users.Put("/:id", userHandler.Update)
	users.Delete("/:id", userHandler.Delete)

	roles := api.Group("/roles", authn, adminOnly)
	roleHandler := NewRoleHandler(deps.RoleUC, log)
	roles.Get("/", roleHandler.List)
	roles.Post("/", roleHandler.Create)

	// Productos: lectura para cualquier autenticado, escritura admin|empleado
	staff := RequireRole(deps.Policy, entity.RoleAdmin, entity.RoleEmpleado)
	productos := api.Group("/productos", authn)
	productHandler := NewProductHandler(deps.ProductUC, log)
	productos.Get("/", productHandler.List)
	productos.Get("/reporte", staff, productHandler.StockReport)
	productos.Get("/:id", productHandler.GetByID)
	productos.Post("/", staff, productHandler.Create)
	productos.Put("/:id", staff, productHandler.Update)
	productos.Delete("/:id", staff, productHandler.Delete)

	if deps.StaticDir != "" {
		app.Static("/", deps.StaticDir, fiber.Static{Index: "index.html"})
	}
}

// healthHandler solo expone el estado; el detalle del fallo queda en el log.
func healthHandler(check func(ctx context.Context) error, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				log.Error().Err(err).Msg("health check fallido")
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
