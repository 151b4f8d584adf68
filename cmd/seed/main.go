// seed crea los roles base (admin, empleado, cliente) y el usuario administrador.
// Es idempotente: se puede ejecutar en cada despliegue.
//
// Uso: go run ./cmd/seed
// El administrador se toma de SEED_ADMIN_USERNAME, SEED_ADMIN_EMAIL, SEED_ADMIN_NAME y
// SEED_ADMIN_PASSWORD.
package main

import (
	"context"
	"time"

	"github.com/jhoicas/gestion-api/internal/application/seed"
	"github.com/jhoicas/gestion-api/internal/infrastructure/postgres"
	"github.com/jhoicas/gestion-api/pkg/config"
	"github.com/jhoicas/gestion-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	schema, err := postgres.LoadUserSchema(ctx, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("leer esquema de users")
	}
	if !schema.RoleTables {
		log.Fatal().Msg("faltan las tablas roles/user_role; ejecute primero go run ./cmd/migrate")
	}

	s := seed.New(postgres.NewUserRepository(pool, schema), postgres.NewRoleRepository(pool, schema), log)
	if err := s.Run(ctx, seed.AdminUser{
		Username: cfg.Seed.AdminUsername,
		Email:    cfg.Seed.AdminEmail,
		Name:     cfg.Seed.AdminName,
		Password: cfg.Seed.AdminPassword,
	}); err != nil {
		log.Fatal().Err(err).Msg("seed")
	}
	log.Info().Msg("seed completado")
}
