// @title                       Gestión API
// @version                     1.0
// @description                 Usuarios, roles, productos y tokens de acceso.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/gestion-api/docs"
	"github.com/jhoicas/gestion-api/internal/application/auth"
	"github.com/jhoicas/gestion-api/internal/application/seed"
	"github.com/jhoicas/gestion-api/internal/application/usecase"
	"github.com/jhoicas/gestion-api/internal/domain/repository"
	"github.com/jhoicas/gestion-api/internal/infrastructure/cache"
	"github.com/jhoicas/gestion-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/gestion-api/internal/infrastructure/pdf"
	"github.com/jhoicas/gestion-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/gestion-api/internal/interfaces/http"
	"github.com/jhoicas/gestion-api/pkg/config"
	"github.com/jhoicas/gestion-api/pkg/logger"
)

// stores repositorios del driver elegido.
type stores struct {
	users    repository.UserRepository
	roles    repository.RoleRepository
	products repository.ProductRepository
	tokens   repository.AccessTokenRepository
	tx       usecase.TxRunner
	// roleTables informa si el almacenamiento tiene roles/user_role.
	roleTables bool
	health     func(ctx context.Context) error
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.StoreDriver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.close()

	roleSystem := resolveRoleSystem(cfg.Auth.RoleSystem, st.roleTables)
	if cfg.Auth.RoleSystem == "true" && !st.roleTables {
		log.Warn().Msg("AUTH_ROLE_SYSTEM=true pero faltan las tablas roles/user_role; nadie tendrá roles")
	}
	log.Info().Bool("role_system", roleSystem).Msg("autorización por roles")

	// Caché de sesiones opcional: si Redis no responde se sigue sin caché.
	var sessionCache auth.SessionCache
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible, se continúa sin caché de sesiones")
		} else {
			defer rdb.Close()
			sessionCache = cache.NewRedisSessionCache(rdb, cfg.Redis.TTL)
			log.Info().Str("addr", cfg.Redis.Addr).Msg("caché de sesiones en Redis")
		}
	}

	authUC := auth.NewAuthUseCase(st.users, st.tokens, sessionCache, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	userUC := usecase.NewUserUseCase(st.users, st.roles, st.tokens, st.tx)
	roleUC := usecase.NewRoleUseCase(st.roles)
	productUC := usecase.NewProductUseCase(st.products, infrapdf.NewMarotoReportGenerator(cfg.App.Name))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.App.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.App.SwaggerFile,
			Path:     "docs",
			Title:    cfg.App.Name,
		}))
	} else {
		log.Warn().Str("file", cfg.App.SwaggerFile).Msg("swagger.json no encontrado, /docs deshabilitado")
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		UserUC:    userUC,
		RoleUC:    roleUC,
		ProductUC: productUC,
		Policy:    auth.NewRolePolicy(roleSystem),
		Log:       log,
		Health:    st.health,
		StaticDir: cfg.App.StaticDir,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	if cfg.App.StoreDriver == "memory" {
		return openMemory(ctx, cfg, log)
	}

	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		return nil, err
	}
	schema, err := postgres.LoadUserSchema(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	log.Info().
		Strs("identifier_columns", schema.Columns).
		Bool("role_tables", schema.RoleTables).
		Msg("esquema de users detectado")

	return &stores{
		users:      postgres.NewUserRepository(pool, schema),
		roles:      postgres.NewRoleRepository(pool, schema),
		products:   postgres.NewProductRepository(pool),
		tokens:     postgres.NewTokenRepository(pool),
		tx:         postgres.NewTxRunner(pool, schema),
		roleTables: schema.RoleTables,
		health:     pool.Ping,
		close:      pool.Close,
	}, nil
}

// openMemory arma el store en memoria y siembra roles y administrador para que la demo
// sea usable sin pasos previos.
func openMemory(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	store := memory.NewStore()
	err := seed.New(store.Users(), store.Roles(), log).Run(ctx, seed.AdminUser{
		Username: cfg.Seed.AdminUsername,
		Email:    cfg.Seed.AdminEmail,
		Name:     cfg.Seed.AdminName,
		Password: cfg.Seed.AdminPassword,
	})
	if err != nil {
		return nil, err
	}
	log.Warn().Msg("STORE_DRIVER=memory: los datos se pierden al reiniciar")
	return &stores{
		users:      store.Users(),
		roles:      store.Roles(),
		products:   store.Products(),
		tokens:     store.Tokens(),
		tx:         store,
		roleTables: true,
		close:      func() {},
	}, nil
}

// resolveRoleSystem "auto" sigue a la detección de tablas; "true"/"false" fuerzan.
func resolveRoleSystem(setting string, roleTables bool) bool {
	switch setting {
	case "true":
		return true
	case "false":
		return false
	default:
		return roleTables
	}
}
