package auth

import "context"

// SessionCache caché opcional de tokens revocados. Solo adelanta el rechazo de tokens ya
// cerrados: la fila de access_tokens decide siempre, así que un fallo de la caché no cambia
// el resultado de la autenticación.
type SessionCache interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	MarkRevoked(ctx context.Context, tokenID string) error
}

type noopCache struct{}

func (noopCache) IsRevoked(context.Context, string) (bool, error) { return false, nil }
func (noopCache) MarkRevoked(context.Context, string) error       { return nil }
