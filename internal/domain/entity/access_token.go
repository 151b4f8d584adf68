package entity

import "time"

// AccessToken sesión emitida en login/registro. El ID viaja como jti en el bearer token.
type AccessToken struct {
	ID        string
	UserID    string
	Name      string
	CreatedAt time.Time
}
