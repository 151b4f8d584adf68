package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/jhoicas/gestion-api/pkg/logger"
)

const (
	hasUsernameColumn = `SELECT EXISTS(SELECT 1 FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = 'users' AND column_name = 'username')`
	addUsernameColumn = `ALTER TABLE users ADD COLUMN username VARCHAR(100) NULL`
	selectUserEmails  = `SELECT id::text, email FROM users ORDER BY id`
	setUsername       = `UPDATE users SET username = $1 WHERE id::text = $2`
	uniqueUsername    = `CREATE UNIQUE INDEX IF NOT EXISTS users_username_key ON users (username)`
)

// BackfillUsernames agrega users.username cuando falta y lo rellena con la parte local del
// email (o "user<id>"), agregando sufijos 1, 2, ... hasta que sea único. Después intenta
// crear el índice único; si no puede, lo registra y sigue. Devuelve cuántos usuarios rellenó.
func BackfillUsernames(ctx context.Context, db *sql.DB, log *logger.Logger) (int, error) {
	if log == nil {
		log = logger.Nop()
	}
	var exists bool
	if err := db.QueryRowContext(ctx, hasUsernameColumn).Scan(&exists); err != nil {
		return 0, fmt.Errorf("detectar users.username: %w", err)
	}
	if exists {
		return 0, nil
	}

	filled, err := addAndFill(ctx, db)
	if err != nil {
		return 0, err
	}
	log.Info().Int("users", filled).Msg("columna username agregada y rellenada")

	if _, err := db.ExecContext(ctx, uniqueUsername); err != nil {
		log.Warn().Err(err).Msg("no se pudo crear el índice único de username")
	}
	return filled, nil
}

func addAndFill(ctx context.Context, db *sql.DB) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin backfill: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, addUsernameColumn); err != nil {
		return 0, fmt.Errorf("agregar users.username: %w", err)
	}

	type row struct{ id, email string }
	var users []row
	rows, err := tx.QueryContext(ctx, selectUserEmails)
	if err != nil {
		return 0, fmt.Errorf("leer usuarios: %w", err)
	}
	for rows.Next() {
		var r row
		var email sql.NullString
		if err := rows.Scan(&r.id, &email); err != nil {
			rows.Close()
			return 0, fmt.Errorf("leer usuarios: %w", err)
		}
		r.email = email.String
		users = append(users, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("leer usuarios: %w", err)
	}
	rows.Close()

	taken := make(map[string]struct{}, len(users))
	for _, u := range users {
		username := uniqueUsernameFor(baseUsername(u.id, u.email), taken)
		if _, err := tx.ExecContext(ctx, setUsername, username, u.id); err != nil {
			return 0, fmt.Errorf("rellenar username de %s: %w", u.id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit backfill: %w", err)
	}
	return len(users), nil
}

// baseUsername parte local del email, o "user<id>" si no hay email.
func baseUsername(id, email string) string {
	if local, _, _ := strings.Cut(strings.TrimSpace(email), "@"); local != "" {
		return local
	}
	return "user" + id
}

// uniqueUsernameFor agrega sufijos numéricos hasta encontrar un valor libre y lo reserva.
func uniqueUsernameFor(base string, taken map[string]struct{}) string {
	candidate := base
	for i := 1; ; i++ {
		if _, dup := taken[candidate]; !dup {
			taken[candidate] = struct{}{}
			return candidate
		}
		candidate = base + strconv.Itoa(i)
	}
}
