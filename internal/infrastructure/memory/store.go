// Package memory implementa los repositorios en memoria. Se usa con STORE_DRIVER=memory
// (demos locales sin PostgreSQL) y en los tests de casos de uso y HTTP.
//
// Replica las restricciones del esquema SQL: identificador, email y nombre de rol únicos,
// borrado en cascada de user_role y access_tokens.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/gestion-api/internal/domain/entity"
	"github.com/jhoicas/gestion-api/internal/domain/identity"
	"github.com/jhoicas/gestion-api/internal/domain/repository"
)

// Store estado compartido por todos los repositorios en memoria.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	columns   []string // columnas identificador "existentes"
	users     map[string]*userRow
	roles     map[string]*entity.Role
	userRoles map[string]map[string]struct{} // user_id -> role_id
	products  map[string]*entity.Product
	tokens    map[string]*entity.AccessToken
}

// userRow fila inmutable: las escrituras reemplazan el puntero.
type userRow struct {
	user  entity.User
	ident map[string]*string
}

// Option configura el Store.
type Option func(*Store)

// WithColumns define qué columnas identificador existen en la tabla users simulada.
// Por defecto username y email.
func WithColumns(cols ...string) Option {
	return func(s *Store) { s.columns = cols }
}

// NewStore crea un store vacío.
func NewStore(opts ...Option) *Store {
	s := &Store{
		columns:   []string{identity.ColumnUsername, identity.ColumnEmail},
		users:     make(map[string]*userRow),
		roles:     make(map[string]*entity.Role),
		userRoles: make(map[string]map[string]struct{}),
		products:  make(map[string]*entity.Product),
		tokens:    make(map[string]*entity.AccessToken),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Users devuelve el repositorio de usuarios.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Roles devuelve el repositorio de roles.
func (s *Store) Roles() *RoleRepo { return &RoleRepo{s: s} }

// Products devuelve el repositorio de productos.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Tokens devuelve el repositorio de access tokens.
func (s *Store) Tokens() *TokenRepo { return &TokenRepo{s: s} }

// Run ejecuta fn de forma serializada respecto de otras transacciones. Si fn devuelve
// error se deshacen solo las claves que escribió la transacción.
func (s *Store) Run(ctx context.Context, fn func(users repository.UserRepository, roles repository.RoleRepository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	undo := newUndoLog()
	if err := fn(&UserRepo{s: s, undo: undo}, &RoleRepo{s: s, undo: undo}); err != nil {
		undo.rollback(s)
		return err
	}
	return nil
}
