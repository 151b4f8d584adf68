package entity

import "time"

// Roles sembrados por defecto.
const (
	RoleAdmin    = "admin"
	RoleEmpleado = "empleado"
	RoleCliente  = "cliente"
)

// User representa un usuario del sistema.
type User struct {
	ID           string
	Username     string // identificador resuelto (username, user, usuario o email)
	Name         string
	Email        string
	PasswordHash string // bcrypt hash, nunca se serializa
	Active       bool
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole informa si el usuario tiene el rol indicado.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}
