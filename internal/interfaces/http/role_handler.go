package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/gestion-api/internal/application/dto"
	"github.com/jhoicas/gestion-api/internal/application/usecase"
	"github.com/jhoicas/gestion-api/pkg/logger"
)

// RoleHandler catálogo de roles (solo admin).
type RoleHandler struct {
	uc  *usecase.RoleUseCase
	log *logger.Logger
}

// NewRoleHandler construye el handler.
func NewRoleHandler(uc *usecase.RoleUseCase, log *logger.Logger) *RoleHandler {
	return &RoleHandler{uc: uc, log: log}
}

// List godoc
// @Summary      Listar roles
// @Tags         roles
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.RoleResponse
// @Router       /api/roles [get]
func (h *RoleHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear rol
// @Tags         roles
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateRoleRequest  true  "Nombre del rol"
// @Success      201   {object}  dto.RoleResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/roles [post]
func (h *RoleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateRoleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
