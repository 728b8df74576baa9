package middlewares

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/jobers/backend/internal/middlewares/sessions"
)

const csrfHeaderName = "X-CSRF-Token"

// VerifyCSRF compares the X-CSRF-Token header against the token issued at
// login. Requests authenticated with an API key carry no cookie session and
// are exempt.
func VerifyCSRF(ctx *fiber.Ctx) bool {
	if ctx.Get(apiKeyHeaderName) != "" {
		return true
	}
	session := sessions.Get(ctx)
	token := ctx.Get(csrfHeaderName)
	if token == "" || session.CSRFToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(session.CSRFToken)) == 1
}

// CSRFProtect rejects mutating requests that fail the CSRF check.
func CSRFProtect(ctx *fiber.Ctx) error {
	switch ctx.Method() {
	case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
		return ctx.Next()
	}
	if !VerifyCSRF(ctx) {
		return fiber.NewError(fiber.StatusForbidden, "Token CSRF invalido")
	}
	return ctx.Next()
}
