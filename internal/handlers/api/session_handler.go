package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/jobers/backend/internal/audit"
	"github.com/jobers/backend/internal/middlewares"
	"github.com/spf13/cast"
)

type SessionHandler struct {
	registry SessionRegistry
	auditor  AuditRecorder
}

func NewSessionHandler(registry SessionRegistry, auditor AuditRecorder) *SessionHandler {
	return &SessionHandler{
		registry: registry,
		auditor:  auditor,
	}
}

// scopeEmpresa limits non-superusers to their own tenant.
func scopeEmpresa(principal *middlewares.Principal) string {
	if principal.IsSuperusuario() {
		return ""
	}
	return principal.EmpresaID
}

func (h *SessionHandler) sweepExpired(ctx *fiber.Ctx, connectionID string) {
	purged, err := h.registry.CleanupExpired(ctx.Context(), connectionID)
	if err != nil {
		slog.Error("Could not sweep expired sessions", "error", err)
		return
	}
	if purged > 0 {
		slog.Debug("Swept expired sessions", "count", purged)
	}
}

func (h *SessionHandler) GetSessions(ctx *fiber.Ctx) error {
	principal := middlewares.GetPrincipal(ctx)
	h.sweepExpired(ctx, principal.ConnectionID)

	views, err := h.registry.ListActive(ctx.Context(), principal.ConnectionID, scopeEmpresa(principal))
	if err != nil {
		return err
	}
	return jsonOK(ctx, fiber.Map{
		"sesiones": views,
		"total":    len(views),
	})
}

func (h *SessionHandler) GetSessionCount(ctx *fiber.Ctx) error {
	principal := middlewares.GetPrincipal(ctx)

	count, err := h.registry.CountActive(ctx.Context(), principal.ConnectionID, scopeEmpresa(principal))
	if err != nil {
		return err
	}
	return jsonOK(ctx, fiber.Map{"total": count})
}

func (h *SessionHandler) DeleteSession(ctx *fiber.Ctx) error {
	principal := middlewares.GetPrincipal(ctx)
	sessionID := cast.ToUint(ctx.Params("id"))
	if sessionID == 0 {
		return jsonError(ctx, fiber.StatusBadRequest, "ID de sesion invalido")
	}

	deleted, err := h.registry.DeleteByID(ctx.Context(), principal.ConnectionID, sessionID)
	if err != nil {
		return err
	}
	if !deleted {
		return jsonError(ctx, fiber.StatusNotFound, "Sesion no encontrada")
	}

	h.auditor.Record(ctx.Context(), audit.Entry{
		Accion:       audit.ActionSessionKill,
		UserID:       &principal.UserID,
		Username:     principal.Username,
		EmpresaID:    principal.EmpresaID,
		ConnectionID: principal.ConnectionID,
		Recurso:      "sesion",
		RecursoID:    cast.ToString(sessionID),
		IPAddress:    middlewares.ClientIP(ctx),
		UserAgent:    string(ctx.Request().Header.UserAgent()),
	})
	return jsonOK(ctx, fiber.Map{"message": "Sesion cerrada"})
}

func (h *SessionHandler) DeleteUserSessions(ctx *fiber.Ctx) error {
	principal := middlewares.GetPrincipal(ctx)
	userID := cast.ToUint(ctx.Params("userID"))
	if userID == 0 {
		return jsonError(ctx, fiber.StatusBadRequest, "ID de usuario invalido")
	}

	deleted, err := h.registry.DeleteByUserID(ctx.Context(), principal.ConnectionID, userID)
	if err != nil {
		return err
	}

	h.auditor.Record(ctx.Context(), audit.Entry{
		Accion:       audit.ActionSessionKill,
		UserID:       &principal.UserID,
		Username:     principal.Username,
		EmpresaID:    principal.EmpresaID,
		ConnectionID: principal.ConnectionID,
		Recurso:      "usuario",
		RecursoID:    cast.ToString(userID),
		IPAddress:    middlewares.ClientIP(ctx),
		UserAgent:    string(ctx.Request().Header.UserAgent()),
		Detalles:     fiber.Map{"sesiones_cerradas": deleted},
	})
	return jsonOK(ctx, fiber.Map{"cerradas": deleted})
}

func (h *SessionHandler) DeleteAllExceptCurrent(ctx *fiber.Ctx) error {
	principal := middlewares.GetPrincipal(ctx)
	if principal.SessionToken == "" {
		return jsonError(ctx, fiber.StatusBadRequest, "La operacion requiere una sesion de navegador")
	}

	deleted, err := h.registry.DeleteAllExcept(ctx.Context(), principal.ConnectionID, principal.SessionToken, scopeEmpresa(principal))
	if err != nil {
		return err
	}

	h.auditor.Record(ctx.Context(), audit.Entry{
		Accion:       audit.ActionSessionKillAll,
		UserID:       &principal.UserID,
		Username:     principal.Username,
		EmpresaID:    principal.EmpresaID,
		ConnectionID: principal.ConnectionID,
		IPAddress:    middlewares.ClientIP(ctx),
		UserAgent:    string(ctx.Request().Header.UserAgent()),
		Detalles:     fiber.Map{"sesiones_cerradas": deleted},
	})
	return jsonOK(ctx, fiber.Map{"cerradas": deleted})
}
