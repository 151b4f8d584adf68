// Package migrate aplica las migraciones SQL embebidas y el relleno de username para bases
// que venían con login solo por email. Usa database/sql con el driver stdlib de pgx.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // driver "pgx"

	"github.com/jhoicas/gestion-api/pkg/logger"
)

//go:embed migrations/*.sql
var embedded embed.FS

// Migrations devuelve las migraciones embebidas (archivos NNNN_nombre.sql).
func Migrations() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

const (
	createVersionsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (version VARCHAR(255) PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT now())`
	selectVersions      = `SELECT version FROM schema_migrations`
	insertVersion       = `INSERT INTO schema_migrations (version) VALUES ($1)`
)

// Open abre una conexión database/sql con el driver pgx.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("abrir base: %w", err)
	}
	return db, nil
}

// Migrator aplica en orden las migraciones que falten, cada una en su transacción.
type Migrator struct {
	db   *sql.DB
	fsys fs.FS
	log  *logger.Logger
}

// New construye el migrador. fsys nil usa las migraciones embebidas.
func New(db *sql.DB, fsys fs.FS, log *logger.Logger) *Migrator {
	if fsys == nil {
		fsys = Migrations()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Migrator{db: db, fsys: fsys, log: log.Component("migrate")}
}

// Up aplica las migraciones pendientes y devuelve sus versiones.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	if _, err := m.db.ExecContext(ctx, createVersionsTable); err != nil {
		return nil, fmt.Errorf("crear schema_migrations: %w", err)
	}
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}
	files, err := fs.Glob(m.fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("listar migraciones: %w", err)
	}
	sort.Strings(files)

	var done []string
	for _, file := range files {
		version := strings.TrimSuffix(path.Base(file), ".sql")
		if _, ok := applied[version]; ok {
			continue
		}
		body, err := fs.ReadFile(m.fsys, file)
		if err != nil {
			return done, fmt.Errorf("leer %s: %w", file, err)
		}
		if err := m.apply(ctx, version, string(body)); err != nil {
			return done, err
		}
		m.log.Info().Str("version", version).Msg("migración aplicada")
		done = append(done, version)
	}
	return done, nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[string]struct{}, error) {
	rows, err := m.db.QueryContext(ctx, selectVersions)
	if err != nil {
		return nil, fmt.Errorf("leer schema_migrations: %w", err)
	}
	defer rows.Close()
	applied := make(map[string]struct{})
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("leer schema_migrations: %w", err)
		}
		applied[v] = struct{}{}
	}
	return applied, rows.Err()
}

func (m *Migrator) apply(ctx context.Context, version, body string) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, body); err != nil {
		return fmt.Errorf("migración %s: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, insertVersion, version); err != nil {
		return fmt.Errorf("registrar %s: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", version, err)
	}
	return nil
}
