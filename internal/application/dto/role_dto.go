package dto

import "time"

// CreateRoleRequest alta de rol.
type CreateRoleRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

// RoleResponse salida de un rol.
type RoleResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
