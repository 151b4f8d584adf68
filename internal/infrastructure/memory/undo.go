package memory

import "github.com/jhoicas/gestion-api/internal/domain/entity"

// undoLog guarda el valor previo de cada clave que escribe una transacción. El rollback
// restaura solo esas claves y deja intactas las escrituras de otras operaciones.
// Los métodos de registro requieren el lock tomado; sobre un log nil no hacen nada.
type undoLog struct {
	users     map[string]*userRow // nil = la clave no existía
	roles     map[string]*entity.Role
	userRoles map[string]map[string]struct{}
	tokens    map[string]*entity.AccessToken
}

func newUndoLog() *undoLog {
	return &undoLog{
		users:     make(map[string]*userRow),
		roles:     make(map[string]*entity.Role),
		userRoles: make(map[string]map[string]struct{}),
		tokens:    make(map[string]*entity.AccessToken),
	}
}

func (l *undoLog) user(s *Store, id string) {
	if l == nil {
		return
	}
	if _, seen := l.users[id]; !seen {
		l.users[id] = s.users[id]
	}
}

func (l *undoLog) role(s *Store, id string) {
	if l == nil {
		return
	}
	if _, seen := l.roles[id]; !seen {
		l.roles[id] = s.roles[id]
	}
}

func (l *undoLog) userRole(s *Store, userID string) {
	if l == nil {
		return
	}
	if _, seen := l.userRoles[userID]; seen {
		return
	}
	set, ok := s.userRoles[userID]
	if !ok {
		l.userRoles[userID] = nil
		return
	}
	cp := make(map[string]struct{}, len(set))
	for r := range set {
		cp[r] = struct{}{}
	}
	l.userRoles[userID] = cp
}

func (l *undoLog) token(s *Store, id string) {
	if l == nil {
		return
	}
	if _, seen := l.tokens[id]; !seen {
		l.tokens[id] = s.tokens[id]
	}
}

func (l *undoLog) rollback(s *Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, row := range l.users {
		if row == nil {
			delete(s.users, id)
		} else {
			s.users[id] = row
		}
	}
	for id, role := range l.roles {
		if role == nil {
			delete(s.roles, id)
		} else {
			s.roles[id] = role
		}
	}
	for id, set := range l.userRoles {
		if set == nil {
			delete(s.userRoles, id)
		} else {
			s.userRoles[id] = set
		}
	}
	for id, tok := range l.tokens {
		if tok == nil {
			delete(s.tokens, id)
		} else {
			s.tokens[id] = tok
		}
	}
}
