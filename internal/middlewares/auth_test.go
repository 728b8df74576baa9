package middlewares

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/jobers/backend/internal/middlewares/sessions"
	"github.com/jobers/backend/internal/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessionVerifier struct {
	alive   map[string]bool
	touched []string
}

func (f *fakeSessionVerifier) Exists(ctx context.Context, connectionID string, token string) (bool, error) {
	return f.alive[token], nil
}

func (f *fakeSessionVerifier) UpdateActivity(ctx context.Context, connectionID string, token string) (bool, error) {
	f.touched = append(f.touched, token)
	return true, nil
}

type fakeApiKeyValidator struct {
	keys map[string]*users.ApiKeyOwner
}

func (f *fakeApiKeyValidator) ValidateApiKey(ctx context.Context, connectionID string, apiKey string) (*users.ApiKeyOwner, error) {
	owner, ok := f.keys[apiKey]
	if !ok {
		return nil, users.ErrApiKeyInvalid
	}
	return owner, nil
}

func newGuardTestApp(verifier *fakeSessionVerifier, validator *fakeApiKeyValidator) *fiber.App {
	guard := NewAuthGuard(verifier, validator)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(sessions.New(sessions.Config{
		Storage:    memory.New(),
		CookieName: "session_id",
	}))
	app.Post("/seed", func(ctx *fiber.Ctx) error {
		session := sessions.Get(ctx)
		session.Save(sessions.SessionData{
			UserID:       7,
			Username:     "ana",
			Rol:          "usuario",
			SessionToken: "tok-alive",
		})
		return ctx.SendStatus(fiber.StatusOK)
	})
	app.Get("/me", guard.LoginRequired, func(ctx *fiber.Ctx) error {
		principal := GetPrincipal(ctx)
		return ctx.JSON(fiber.Map{"username": principal.Username, "viaApiKey": principal.ViaApiKey})
	})
	app.Get("/admin", guard.LoginRequired, guard.AdminRequired, func(ctx *fiber.Ctx) error {
		return ctx.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestLoginRequiredRejectsAnonymous(t *testing.T) {
	app := newGuardTestApp(&fakeSessionVerifier{}, &fakeApiKeyValidator{})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLoginRequiredAcceptsLiveSession(t *testing.T) {
	verifier := &fakeSessionVerifier{alive: map[string]bool{"tok-alive": true}}
	app := newGuardTestApp(verifier, &fakeApiKeyValidator{})

	seedResp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/seed", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, seedResp.StatusCode)

	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	for _, cookie := range seedResp.Cookies() {
		req.AddCookie(cookie)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"tok-alive"}, verifier.touched)
}

func TestLoginRequiredRejectsKilledSession(t *testing.T) {
	verifier := &fakeSessionVerifier{alive: map[string]bool{}}
	app := newGuardTestApp(verifier, &fakeApiKeyValidator{})

	seedResp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/seed", nil))
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	for _, cookie := range seedResp.Cookies() {
		req.AddCookie(cookie)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, verifier.touched)
}

func TestLoginRequiredAcceptsApiKey(t *testing.T) {
	validator := &fakeApiKeyValidator{keys: map[string]*users.ApiKeyOwner{
		"clave-valida": {UserID: 9, Username: "integracion", Rol: "usuario"},
	}}
	app := newGuardTestApp(&fakeSessionVerifier{}, validator)

	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set("X-API-Key", "clave-valida")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set("X-API-Key", "clave-mala")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRequiredChecksRole(t *testing.T) {
	validator := &fakeApiKeyValidator{keys: map[string]*users.ApiKeyOwner{
		"clave-usuario": {UserID: 9, Username: "integracion", Rol: "usuario"},
		"clave-admin":   {UserID: 3, Username: "jefe", Rol: "administrador"},
	}}
	app := newGuardTestApp(&fakeSessionVerifier{}, validator)

	req := httptest.NewRequest(fiber.MethodGet, "/admin", nil)
	req.Header.Set("X-API-Key", "clave-usuario")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodGet, "/admin", nil)
	req.Header.Set("X-API-Key", "clave-admin")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
