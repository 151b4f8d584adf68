package dto

import "strings"

// LoginRequest acepta identifier o su alias histórico username.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required_without=Username"`
	Username   string `json:"username"`
	Password   string `json:"password" validate:"required"`
}

// Login devuelve el identificador informado, sin espacios.
func (r LoginRequest) Login() string {
	if s := strings.TrimSpace(r.Identifier); s != "" {
		return s
	}
	return strings.TrimSpace(r.Username)
}

// RegisterRequest entrada para el registro público.
type RegisterRequest struct {
	Identifier string `json:"identifier" validate:"required_without=Username,max=100"`
	Username   string `json:"username" validate:"max=100"`
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email" validate:"required,email,max=255"`
	Password   string `json:"password" validate:"required,min=3"`
}

// Login devuelve el identificador informado, sin espacios.
func (r RegisterRequest) Login() string {
	return LoginRequest{Identifier: r.Identifier, Username: r.Username}.Login()
}

// LoginResponse token + usuario.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
