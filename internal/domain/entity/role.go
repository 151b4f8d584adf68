package entity

import "time"

// Role grupo de permisos con nombre único.
type Role struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
