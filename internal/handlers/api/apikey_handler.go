package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jobers/backend/internal/audit"
	"github.com/jobers/backend/internal/middlewares"
	"github.com/jobers/backend/model"
	"github.com/spf13/cast"
)

type ApiKeyHandler struct {
	userService UserService
	auditor     AuditRecorder
}

func NewApiKeyHandler(userService UserService, auditor AuditRecorder) *ApiKeyHandler {
	return &ApiKeyHandler{
		userService: userService,
		auditor:     auditor,
	}
}

type apiKeyResponse struct {
	ID        uint      `json:"id"`
	Nombre    string    `json:"nombre"`
	Activo    bool      `json:"activo"`
	CreatedAt time.Time `json:"created_at"`
}

func newApiKeyResponse(key *model.ApiKey) apiKeyResponse {
	return apiKeyResponse{
		ID:        key.ID,
		Nombre:    key.Nombre,
		Activo:    key.Activo,
		CreatedAt: key.CreatedAt,
	}
}

func (h *ApiKeyHandler) GetApiKeys(ctx *fiber.Ctx) error {
	principal := middlewares.GetPrincipal(ctx)
	keys, err := h.userService.ListApiKeys(ctx.Context(), principal.ConnectionID, principal.UserID)
	if err != nil {
		return err
	}
	responses := make([]apiKeyResponse, 0, len(keys))
	for idx := range keys {
		responses = append(responses, newApiKeyResponse(&keys[idx]))
	}
	return jsonOK(ctx, fiber.Map{"api_keys": responses})
}

type createApiKeyRequest struct {
	Nombre string `json:"nombre"`
}

func (h *ApiKeyHandler) PostApiKey(ctx *fiber.Ctx) error {
	principal := middlewares.GetPrincipal(ctx)
	var req createApiKeyRequest
	if err := ctx.BodyParser(&req); err != nil || req.Nombre == "" {
		return jsonError(ctx, fiber.StatusBadRequest, "El nombre de la clave es obligatorio")
	}

	key, err := h.userService.CreateApiKey(ctx.Context(), principal.ConnectionID, principal.UserID, req.Nombre)
	if err != nil {
		return err
	}

	h.auditor.Record(ctx.Context(), audit.Entry{
		Accion:       audit.ActionApiKeyCreate,
		UserID:       &principal.UserID,
		Username:     principal.Username,
		EmpresaID:    principal.EmpresaID,
		ConnectionID: principal.ConnectionID,
		Recurso:      "api_key",
		RecursoID:    cast.ToString(key.ID),
		IPAddress:    middlewares.ClientIP(ctx),
		UserAgent:    string(ctx.Request().Header.UserAgent()),
		Detalles:     fiber.Map{"nombre": key.Nombre},
	})

	// the raw key is only returned once, at creation
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"api_key": key.ApiKey,
		"key":     newApiKeyResponse(key),
	})
}

func (h *ApiKeyHandler) DeleteApiKey(ctx *fiber.Ctx) error {
	principal := middlewares.GetPrincipal(ctx)
	keyID := cast.ToUint(ctx.Params("id"))
	if keyID == 0 {
		return jsonError(ctx, fiber.StatusBadRequest, "ID de clave invalido")
	}

	deleted, err := h.userService.DeleteApiKey(ctx.Context(), principal.ConnectionID, principal.UserID, keyID)
	if err != nil {
		return err
	}
	if !deleted {
		return jsonError(ctx, fiber.StatusNotFound, "Clave no encontrada")
	}

	h.auditor.Record(ctx.Context(), audit.Entry{
		Accion:       audit.ActionApiKeyDelete,
		UserID:       &principal.UserID,
		Username:     principal.Username,
		EmpresaID:    principal.EmpresaID,
		ConnectionID: principal.ConnectionID,
		Recurso:      "api_key",
		RecursoID:    cast.ToString(keyID),
		IPAddress:    middlewares.ClientIP(ctx),
		UserAgent:    string(ctx.Request().Header.UserAgent()),
	})
	return jsonOK(ctx, fiber.Map{"message": "Clave eliminada"})
}
