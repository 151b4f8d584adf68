package repository

import (
	"context"

	"github.com/jhoicas/gestion-api/internal/domain/entity"
)

// AccessTokenRepository persistencia de sesiones emitidas.
type AccessTokenRepository interface {
	Create(ctx context.Context, token *entity.AccessToken) error
	GetByID(ctx context.Context, id string) (*entity.AccessToken, error)
	// Delete es idempotente.
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
}
