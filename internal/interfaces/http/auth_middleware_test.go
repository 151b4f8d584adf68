package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/gestion-api/internal/application/auth"
	"github.com/jhoicas/gestion-api/internal/application/seed"
	"github.com/jhoicas/gestion-api/internal/application/usecase"
	"github.com/jhoicas/gestion-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/gestion-api/internal/interfaces/http"
	"github.com/jhoicas/gestion-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const testJWTSecret = "test-secret-key-for-unit-tests"

type testEnv struct {
	app   *fiber.App
	store *memory.Store
}

// appOption ajusta las dependencias del router antes de montarlo.
type appOption func(*apphttp.RouterDeps)

// buildTestApp arma la API completa sobre el store en memoria, con los roles base y el
// administrador sembrados (admin / admin123).
func buildTestApp(t *testing.T, roleSystem bool, opts ...appOption) *testEnv {
	t.Helper()
	store := memory.NewStore()
	log := logger.Nop()

	if roleSystem {
		err := seed.New(store.Users(), store.Roles(), log).Run(context.Background(), seed.AdminUser{
			Username: "admin", Email: "admin@admin.com", Name: "Administrador", Password: "admin123",
		})
		require.NoError(t, err)
	}

	authUC := auth.NewAuthUseCase(store.Users(), store.Tokens(), nil, auth.JWTConfig{Secret: testJWTSecret})
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(log)})
	deps := apphttp.RouterDeps{
		AuthUC:    authUC,
		UserUC:    usecase.NewUserUseCase(store.Users(), store.Roles(), store.Tokens(), store),
		RoleUC:    usecase.NewRoleUseCase(store.Roles()),
		ProductUC: usecase.NewProductUseCase(store.Products(), nil),
		Policy:    auth.NewRolePolicy(roleSystem),
		Log:       log,
	}
	for _, o := range opts {
		o(&deps)
	}
	apphttp.Router(app, deps)
	return &testEnv{app: app, store: store}
}

// do lanza una petición con body JSON opcional y devuelve status y body decodificado.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	if len(raw) > 0 && raw[0] == '[' {
		var list []any
		require.NoError(t, json.Unmarshal(raw, &list))
		out["items"] = list
	}
	return resp.StatusCode, out
}

func (e *testEnv) login(t *testing.T, identifier, password string) string {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"identifier": identifier, "password": password,
	})
	require.Equal(t, http.StatusOK, status, "login de %s: %v", identifier, body)
	return body["token"].(string)
}

// ──────────────────────────────────────────────────────────────────────────────
// AuthMiddleware
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_SinHeader_Retorna401(t *testing.T) {
	env := buildTestApp(t, true)
	status, body := env.do(t, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "MISSING_TOKEN", body["code"])
}

func TestAuthMiddleware_FormatoInvalido_Retorna401(t *testing.T) {
	env := buildTestApp(t, true)
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_TokenFalsificado_Retorna401(t *testing.T) {
	env := buildTestApp(t, true)
	status, body := env.do(t, http.MethodGet, "/api/me", "token.invalido.aqui", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_TOKEN", body["code"])
}

func TestAuthMiddleware_MeDevuelvePerfil(t *testing.T) {
	env := buildTestApp(t, true)
	token := env.login(t, "admin", "admin123")

	status, body := env.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "admin", body["username"])
	assert.Equal(t, []any{"admin"}, body["roles"])
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "password_hash")
}

// ──────────────────────────────────────────────────────────────────────────────
// Login / logout
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin_CredencialesInvalidas_Retorna401(t *testing.T) {
	env := buildTestApp(t, true)
	status, body := env.do(t, http.MethodPost, "/api/login", "", map[string]string{"identifier": "admin", "password": "mal"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "credenciales inválidas", body["message"])

	status, _ = env.do(t, http.MethodPost, "/api/login", "", map[string]string{"identifier": "nadie", "password": "admin123"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLogin_CamposFaltantes_Retorna422(t *testing.T) {
	env := buildTestApp(t, true)
	status, body := env.do(t, http.MethodPost, "/api/login", "", map[string]string{})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "identifier")
	assert.Contains(t, errs, "password")
}

func TestLogout_DosVecesRetorna200(t *testing.T) {
	env := buildTestApp(t, true)
	token := env.login(t, "admin", "admin123")

	status, _ := env.do(t, http.MethodPost, "/api/logout", token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, http.MethodPost, "/api/logout", token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, http.MethodPost, "/api/logout", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status, "el token revocado ya no autentica")
}

func TestRegister_CreaUsuarioYToken(t *testing.T) {
	env := buildTestApp(t, true)
	status, body := env.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"identifier": "nuevo", "name": "Nuevo", "email": "nuevo@example.com", "password": "abc",
	})
	require.Equal(t, http.StatusCreated, status, "%v", body)
	assert.NotEmpty(t, body["token"])

	status, body = env.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"identifier": "nuevo", "name": "Otro", "email": "nuevo@example.com", "password": "abc",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "identifier")
	assert.Contains(t, errs, "email")
}

// ──────────────────────────────────────────────────────────────────────────────
// RequireRole
// ──────────────────────────────────────────────────────────────────────────────

func TestRequireRole_EmpleadoGestionaProductosPeroNoUsuarios(t *testing.T) {
	env := buildTestApp(t, true)
	admin := env.login(t, "admin", "admin123")

	status, body := env.do(t, http.MethodPost, "/api/users", admin, map[string]any{
		"username": "alice", "name": "Alice", "email": "alice@example.com", "password": "secret",
		"roles": []string{"empleado"},
	})
	require.Equal(t, http.StatusCreated, status, "%v", body)
	assert.Equal(t, []any{"empleado"}, body["roles"])

	alice := env.login(t, "alice", "secret")

	status, body = env.do(t, http.MethodPost, "/api/productos", alice, map[string]any{
		"name": "Martillo", "price": "12.50", "stock": 3,
	})
	require.Equal(t, http.StatusCreated, status, "%v", body)
	productID := body["id"].(string)

	status, _ = env.do(t, http.MethodPut, "/api/productos/"+productID, alice, map[string]any{"stock": 5})
	assert.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodGet, "/api/users", alice, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["code"])

	status, _ = env.do(t, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status, "sin token es 401, no 403")
}

func TestRequireRole_PromocionAAdminHabilitaAltaDeUsuarios(t *testing.T) {
	env := buildTestApp(t, true)
	admin := env.login(t, "admin", "admin123")

	status, body := env.do(t, http.MethodPost, "/api/users", admin, map[string]any{
		"username": "gabi", "name": "Gabi", "email": "gabi@example.com", "password": "secret",
		"roles": []string{"empleado"},
	})
	require.Equal(t, http.StatusCreated, status, "%v", body)
	id := body["id"].(string)
	gabi := env.login(t, "gabi", "secret")

	nuevo := map[string]any{"username": "hugo", "name": "Hugo", "email": "hugo@example.com", "password": "secret"}
	status, body = env.do(t, http.MethodPost, "/api/users", gabi, nuevo)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["code"])

	status, body = env.do(t, http.MethodPut, "/api/users/"+id, admin, map[string]any{"roles": []string{"admin"}})
	require.Equal(t, http.StatusOK, status, "%v", body)
	assert.Equal(t, []any{"admin"}, body["roles"])

	// Mismo token: los roles se leen en cada petición.
	status, body = env.do(t, http.MethodPost, "/api/users", gabi, nuevo)
	require.Equal(t, http.StatusCreated, status, "%v", body)
	assert.Equal(t, "hugo", body["username"])
}

func TestRequireRole_ClienteSoloLee(t *testing.T) {
	env := buildTestApp(t, true)
	status, body := env.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"identifier": "carlos", "name": "Carlos", "email": "carlos@example.com", "password": "abc",
	})
	require.Equal(t, http.StatusCreated, status)
	token := body["token"].(string)

	status, body = env.do(t, http.MethodGet, "/api/productos", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["items"])

	status, _ = env.do(t, http.MethodPost, "/api/productos", token, map[string]any{"name": "X", "price": "1", "stock": 1})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(t, http.MethodGet, "/api/productos/reporte", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestRequireRole_FallbackLegadoSinSistemaDeRoles(t *testing.T) {
	env := buildTestApp(t, false)
	for _, identifier := range []string{"admin", "otro"} {
		status, _ := env.do(t, http.MethodPost, "/api/register", "", map[string]string{
			"identifier": identifier, "name": identifier, "email": identifier + "@example.com", "password": "abc",
		})
		require.Equal(t, http.StatusCreated, status)
	}

	status, _ := env.do(t, http.MethodGet, "/api/users", env.login(t, "admin", "abc"), nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, http.MethodGet, "/api/users", env.login(t, "otro", "abc"), nil)
	assert.Equal(t, http.StatusForbidden, status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Controladores
// ──────────────────────────────────────────────────────────────────────────────

func TestUsers_EliminarInexistente_Retorna404(t *testing.T) {
	env := buildTestApp(t, true)
	admin := env.login(t, "admin", "admin123")

	status, body := env.do(t, http.MethodDelete, "/api/users/no-existe", admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestUsers_ActualizarSinPasswordConservaLogin(t *testing.T) {
	env := buildTestApp(t, true)
	admin := env.login(t, "admin", "admin123")
	status, body := env.do(t, http.MethodPost, "/api/users", admin, map[string]any{
		"username": "bea", "name": "Bea", "email": "bea@example.com", "password": "secret",
	})
	require.Equal(t, http.StatusCreated, status)
	id := body["id"].(string)

	status, body = env.do(t, http.MethodPut, "/api/users/"+id, admin, map[string]any{"name": "Beatriz", "password": ""})
	require.Equal(t, http.StatusOK, status, "%v", body)
	assert.Equal(t, "Beatriz", body["name"])

	env.login(t, "bea", "secret")
}

func TestRoles_CrearYListar(t *testing.T) {
	env := buildTestApp(t, true)
	admin := env.login(t, "admin", "admin123")

	status, body := env.do(t, http.MethodPost, "/api/roles", admin, map[string]string{"name": "Supervisor"})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "supervisor", body["name"])

	status, _ = env.do(t, http.MethodPost, "/api/roles", admin, map[string]string{"name": "supervisor"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, body = env.do(t, http.MethodGet, "/api/roles", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["items"], 4)
}

func TestProductos_ValidacionYNoEncontrado(t *testing.T) {
	env := buildTestApp(t, true)
	admin := env.login(t, "admin", "admin123")

	status, body := env.do(t, http.MethodPost, "/api/productos", admin, map[string]any{"name": "", "price": "-1"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	errs := body["errors"].(map[string]any)
	for _, f := range []string{"name", "price", "stock"} {
		assert.Contains(t, errs, f)
	}

	status, _ = env.do(t, http.MethodGet, "/api/productos/no-existe", admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHealth(t *testing.T) {
	env := buildTestApp(t, true)
	status, body := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestHealth_DegradadoNoExponeElError(t *testing.T) {
	var buf bytes.Buffer
	env := buildTestApp(t, true, func(d *apphttp.RouterDeps) {
		d.Log = logger.New(logger.Config{Env: "production", Level: "info", Output: &buf})
		d.Health = func(context.Context) error {
			return errors.New("dial tcp 10.0.0.5:5432: connection refused")
		}
	})

	status, body := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, map[string]any{"status": "degraded"}, body)
	assert.Contains(t, buf.String(), "connection refused", "el detalle queda en el log")
}

func TestRutaInexistente_Retorna404JSON(t *testing.T) {
	env := buildTestApp(t, true)
	status, body := env.do(t, http.MethodGet, "/api/no-existe", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])
}
