package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/gestion-api/internal/domain/entity"
	"github.com/jhoicas/gestion-api/internal/domain/repository"
)

var _ repository.AccessTokenRepository = (*TokenRepo)(nil)

// TokenRepo implementación del puerto AccessTokenRepository sobre PostgreSQL.
type TokenRepo struct {
	q Querier
}

// NewTokenRepository construye el adaptador de persistencia para access tokens.
func NewTokenRepository(q Querier) *TokenRepo {
	return &TokenRepo{q: q}
}

// Create persiste un token emitido.
func (r *TokenRepo) Create(ctx context.Context, token *entity.AccessToken) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO access_tokens (id, user_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		token.ID, token.UserID, token.Name, token.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert access token: %w", err)
	}
	return nil
}

// GetByID obtiene un token vigente; nil si fue revocado o nunca existió.
func (r *TokenRepo) GetByID(ctx context.Context, id string) (*entity.AccessToken, error) {
	if !validID(id) {
		return nil, nil
	}
	var t entity.AccessToken
	err := r.q.QueryRow(ctx, `SELECT id, user_id, name, created_at FROM access_tokens WHERE id = $1`, id).
		Scan(&t.ID, &t.UserID, &t.Name, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get access token: %w", err)
	}
	return &t, nil
}

// Delete revoca un token. Borrar uno inexistente no es error.
func (r *TokenRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return nil
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM access_tokens WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete access token: %w", err)
	}
	return nil
}

// DeleteByUser revoca todos los tokens del usuario.
func (r *TokenRepo) DeleteByUser(ctx context.Context, userID string) error {
	if !validID(userID) {
		return nil
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM access_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete access tokens by user: %w", err)
	}
	return nil
}
