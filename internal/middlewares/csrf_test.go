package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/jobers/backend/internal/middlewares/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCSRFTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(sessions.New(sessions.Config{
		Storage:    memory.New(),
		CookieName: "session_id",
	}))
	app.Post("/seed", func(ctx *fiber.Ctx) error {
		session := sessions.Get(ctx)
		session.Save(sessions.SessionData{
			UserID:    7,
			Username:  "ana",
			CSRFToken: "tok123",
		})
		return ctx.SendStatus(fiber.StatusOK)
	})
	app.Post("/protected", CSRFProtect, func(ctx *fiber.Ctx) error {
		return ctx.SendStatus(fiber.StatusOK)
	})
	app.Get("/read", CSRFProtect, func(ctx *fiber.Ctx) error {
		return ctx.SendStatus(fiber.StatusOK)
	})
	return app
}

func seedSession(t *testing.T, app *fiber.App) *http.Cookie {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/seed", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "session_id" {
			return cookie
		}
	}
	t.Fatal("session cookie not issued")
	return nil
}

func TestCSRFProtectAcceptsMatchingToken(t *testing.T) {
	app := newCSRFTestApp()
	cookie := seedSession(t, app)

	req := httptest.NewRequest(fiber.MethodPost, "/protected", nil)
	req.AddCookie(cookie)
	req.Header.Set("X-CSRF-Token", "tok123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCSRFProtectRejectsMissingOrWrongToken(t *testing.T) {
	app := newCSRFTestApp()
	cookie := seedSession(t, app)

	req := httptest.NewRequest(fiber.MethodPost, "/protected", nil)
	req.AddCookie(cookie)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodPost, "/protected", nil)
	req.AddCookie(cookie)
	req.Header.Set("X-CSRF-Token", "otro")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestCSRFProtectSkipsReads(t *testing.T) {
	app := newCSRFTestApp()

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/read", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCSRFProtectSkipsApiKeyRequests(t *testing.T) {
	app := newCSRFTestApp()

	req := httptest.NewRequest(fiber.MethodPost, "/protected", nil)
	req.Header.Set("X-API-Key", "clave")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
