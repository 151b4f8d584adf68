package memory

import (
	"context"

	"github.com/jhoicas/gestion-api/internal/domain"
	"github.com/jhoicas/gestion-api/internal/domain/entity"
	"github.com/jhoicas/gestion-api/internal/domain/repository"
)

var _ repository.AccessTokenRepository = (*TokenRepo)(nil)

// TokenRepo implementación en memoria de AccessTokenRepository.
type TokenRepo struct {
	s *Store
}

// Create persiste un token; el usuario debe existir.
func (r *TokenRepo) Create(_ context.Context, token *entity.AccessToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[token.UserID]; !ok {
		return domain.ErrNotFound
	}
	cp := *token
	r.s.tokens[token.ID] = &cp
	return nil
}

// GetByID obtiene un token por ID.
func (r *TokenRepo) GetByID(_ context.Context, id string) (*entity.AccessToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tokens[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

// Delete elimina el token si existe.
func (r *TokenRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.tokens, id)
	return nil
}

// DeleteByUser revoca todos los tokens del usuario.
func (r *TokenRepo) DeleteByUser(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, t := range r.s.tokens {
		if t.UserID == userID {
			delete(r.s.tokens, id)
		}
	}
	return nil
}
