package middlewares

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/jobers/backend/internal/middlewares/sessions"
	"github.com/jobers/backend/internal/users"
)

const (
	apiKeyHeaderName = "X-API-Key"
	authContextKey   = "auth"
)

// Principal is the authenticated identity of the current request, resolved
// from either the cookie session or an api key.
type Principal struct {
	UserID       uint
	Username     string
	FullName     string
	Rol          string
	EmpresaID    string
	ConnectionID string
	SessionToken string
	ViaApiKey    bool
}

func (p *Principal) IsAdministrador() bool {
	return p.Rol == "administrador" || p.Rol == "superusuario"
}

func (p *Principal) IsSuperusuario() bool {
	return p.Rol == "superusuario"
}

func GetPrincipal(ctx *fiber.Ctx) *Principal {
	principal, _ := ctx.Locals(authContextKey).(*Principal)
	return principal
}

func SetPrincipal(ctx *fiber.Ctx, principal *Principal) {
	ctx.Locals(authContextKey, principal)
}

type SessionVerifier interface {
	Exists(ctx context.Context, connectionID string, token string) (bool, error)
	UpdateActivity(ctx context.Context, connectionID string, token string) (bool, error)
}

type ApiKeyValidator interface {
	ValidateApiKey(ctx context.Context, connectionID string, apiKey string) (*users.ApiKeyOwner, error)
}

type AuthGuard struct {
	registry SessionVerifier
	apiKeys  ApiKeyValidator
}

func NewAuthGuard(registry SessionVerifier, apiKeys ApiKeyValidator) *AuthGuard {
	return &AuthGuard{
		registry: registry,
		apiKeys:  apiKeys,
	}
}

func (g *AuthGuard) authenticateApiKey(ctx *fiber.Ctx, apiKey string) error {
	owner, err := g.apiKeys.ValidateApiKey(ctx.Context(), "", apiKey)
	if err != nil {
		if err == users.ErrApiKeyInvalid {
			return fiber.NewError(fiber.StatusUnauthorized, "API key invalida")
		}
		return err
	}
	SetPrincipal(ctx, &Principal{
		UserID:    owner.UserID,
		Username:  owner.Username,
		FullName:  owner.FullName,
		Rol:       owner.Rol,
		EmpresaID: owner.EmpresaID,
		ViaApiKey: true,
	})
	return ctx.Next()
}

func (g *AuthGuard) authenticateSession(ctx *fiber.Ctx) error {
	session := sessions.Get(ctx)
	if !session.IsLoggedIn() {
		return fiber.NewError(fiber.StatusUnauthorized, "Autenticacion requerida")
	}

	data := session.SessionData
	exists, err := g.registry.Exists(ctx.Context(), data.ConnectionID, data.SessionToken)
	if err != nil {
		return err
	}
	if !exists {
		// killed remotely or swept as expired
		if err := session.Destroy(); err != nil {
			slog.Error("Could not destroy stale session", "error", err)
		}
		return fiber.NewError(fiber.StatusUnauthorized, "La sesion ha expirado")
	}
	if _, err := g.registry.UpdateActivity(ctx.Context(), data.ConnectionID, data.SessionToken); err != nil {
		slog.Error("Could not update session activity", "error", err)
	}

	SetPrincipal(ctx, &Principal{
		UserID:       data.UserID,
		Username:     data.Username,
		FullName:     data.FullName,
		Rol:          data.Rol,
		EmpresaID:    data.EmpresaID,
		ConnectionID: data.ConnectionID,
		SessionToken: data.SessionToken,
	})
	return ctx.Next()
}

// LoginRequired admits requests carrying either a valid api key or an
// authenticated cookie session backed by a live user_sessions row.
func (g *AuthGuard) LoginRequired(ctx *fiber.Ctx) error {
	if apiKey := ctx.Get(apiKeyHeaderName); apiKey != "" {
		return g.authenticateApiKey(ctx, apiKey)
	}
	return g.authenticateSession(ctx)
}

func (g *AuthGuard) AdminRequired(ctx *fiber.Ctx) error {
	principal := GetPrincipal(ctx)
	if principal == nil || !principal.IsAdministrador() {
		return fiber.NewError(fiber.StatusForbidden, "Permisos insuficientes")
	}
	return ctx.Next()
}
