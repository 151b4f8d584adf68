// migrate aplica las migraciones SQL embebidas y rellena users.username en bases que
// venían con login solo por email.
//
// Uso: go run ./cmd/migrate
// Lee la conexión de DATABASE_URL o DB_* (igual que la API).
package main

import (
	"context"
	"time"

	"github.com/jhoicas/gestion-api/internal/infrastructure/migrate"
	"github.com/jhoicas/gestion-api/pkg/config"
	"github.com/jhoicas/gestion-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := migrate.Open(cfg.DB.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("abrir base")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}

	applied, err := migrate.New(db, nil, log).Up(ctx)
	if err != nil {
		log.Fatal().Err(err).Strs("applied", applied).Msg("aplicar migraciones")
	}
	filled, err := migrate.BackfillUsernames(ctx, db, log)
	if err != nil {
		log.Fatal().Err(err).Msg("rellenar username")
	}

	log.Info().
		Int("migrations", len(applied)).
		Int("usernames", filled).
		Msg("base actualizada")
}
