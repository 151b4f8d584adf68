package dto

import "time"

// CreateUserRequest alta de usuario por un administrador (password en texto, se hashea en use case).
type CreateUserRequest struct {
	Username string   `json:"username" validate:"required,max=100"`
	Name     string   `json:"name" validate:"required,max=200"`
	Email    string   `json:"email" validate:"required,email,max=255"`
	Password string   `json:"password" validate:"required,min=3"`
	Active   *bool    `json:"active"`
	Roles    []string `json:"roles" validate:"omitempty,dive,required"`
}

// UpdateUserRequest actualización parcial. Password vacío u omitido conserva el hash.
// Roles != nil reemplaza todos los roles del usuario.
type UpdateUserRequest struct {
	Username *string  `json:"username" validate:"omitempty,min=1,max=100"`
	Name     *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Email    *string  `json:"email" validate:"omitempty,email,max=255"`
	Password *string  `json:"password"`
	Active   *bool    `json:"active"`
	Roles    []string `json:"roles" validate:"omitempty,dive,required"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
