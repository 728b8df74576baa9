package api

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jobers/backend/internal/audit"
	"github.com/jobers/backend/internal/middlewares"
	"github.com/jobers/backend/model"
	"github.com/jobers/backend/params"
	"github.com/spf13/cast"
)

const dateLayout = "2006-01-02"

type AuditHandler struct {
	auditor AuditRecorder
}

func NewAuditHandler(auditor AuditRecorder) *AuditHandler {
	return &AuditHandler{
		auditor: auditor,
	}
}

type auditLogResponse struct {
	ID        uint64          `json:"id"`
	Fecha     time.Time       `json:"fecha"`
	UserID    *uint           `json:"user_id"`
	Username  string          `json:"username"`
	EmpresaID string          `json:"empresa_id"`
	Accion    string          `json:"accion"`
	Recurso   string          `json:"recurso,omitempty"`
	RecursoID string          `json:"recurso_id,omitempty"`
	IPAddress string          `json:"ip_address"`
	UserAgent string          `json:"user_agent,omitempty"`
	Detalles  json.RawMessage `json:"detalles,omitempty"`
	Resultado string          `json:"resultado"`
}

func newAuditLogResponse(row *model.AuditLog) auditLogResponse {
	resp := auditLogResponse{
		ID:        row.ID,
		Fecha:     row.Fecha,
		UserID:    row.UserID,
		Username:  row.Username,
		EmpresaID: row.EmpresaID,
		Accion:    row.Accion,
		Recurso:   row.Recurso,
		RecursoID: row.RecursoID,
		IPAddress: row.IPAddress,
		UserAgent: row.UserAgent,
		Resultado: row.Resultado,
	}
	if json.Valid([]byte(row.Detalles)) {
		resp.Detalles = json.RawMessage(row.Detalles)
	}
	return resp
}

func parseFilter(ctx *fiber.Ctx, principal *middlewares.Principal) (audit.Filter, error) {
	filter := audit.Filter{
		UserID:    cast.ToUint(ctx.Query("user_id")),
		Username:  ctx.Query("username"),
		Accion:    ctx.Query("accion"),
		Resultado: ctx.Query("resultado"),
	}
	if principal.IsSuperusuario() {
		filter.EmpresaID = ctx.Query("empresa_id")
	} else {
		filter.EmpresaID = principal.EmpresaID
	}
	if raw := ctx.Query("fecha_desde"); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			return filter, fiber.NewError(fiber.StatusBadRequest, "fecha_desde invalida, use YYYY-MM-DD")
		}
		filter.FechaDesde = parsed
	}
	if raw := ctx.Query("fecha_hasta"); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			return filter, fiber.NewError(fiber.StatusBadRequest, "fecha_hasta invalida, use YYYY-MM-DD")
		}
		filter.FechaHasta = parsed
	}
	return filter, nil
}

func (h *AuditHandler) GetAuditLogs(ctx *fiber.Ctx) error {
	principal := middlewares.GetPrincipal(ctx)
	filter, err := parseFilter(ctx, principal)
	if err != nil {
		return err
	}

	limit := cast.ToInt(ctx.Query("limit"))
	if limit <= 0 {
		limit = params.DefaultAuditPageSize
	} else if limit > params.MaxAuditPageSize {
		limit = params.MaxAuditPageSize
	}
	offset := cast.ToInt(ctx.Query("offset"))
	if offset < 0 {
		offset = 0
	}

	rows, err := h.auditor.Query(ctx.Context(), principal.ConnectionID, filter, limit, offset)
	if err != nil {
		return err
	}
	total, err := h.auditor.Count(ctx.Context(), principal.ConnectionID, filter)
	if err != nil {
		return err
	}

	logs := make([]auditLogResponse, 0, len(rows))
	for idx := range rows {
		logs = append(logs, newAuditLogResponse(&rows[idx]))
	}
	return jsonOK(ctx, fiber.Map{
		"logs":   logs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *AuditHandler) GetSummary(ctx *fiber.Ctx) error {
	principal := middlewares.GetPrincipal(ctx)

	dias := cast.ToInt(ctx.Query("dias"))
	if dias <= 0 {
		dias = params.DefaultSummaryDays
	} else if dias > params.MaxSummaryWindowDays {
		dias = params.MaxSummaryWindowDays
	}
	empresaID := principal.EmpresaID
	if principal.IsSuperusuario() {
		empresaID = ctx.Query("empresa_id")
	}

	porAccion, err := h.auditor.ActionsSummary(ctx.Context(), principal.ConnectionID, empresaID, dias)
	if err != nil {
		return err
	}
	porResultado, err := h.auditor.ResultsSummary(ctx.Context(), principal.ConnectionID, empresaID, dias)
	if err != nil {
		return err
	}
	return jsonOK(ctx, fiber.Map{
		"dias":          dias,
		"por_accion":    porAccion,
		"por_resultado": porResultado,
	})
}

func (h *AuditHandler) GetActions(ctx *fiber.Ctx) error {
	return jsonOK(ctx, fiber.Map{"acciones": audit.AllActions()})
}

func (h *AuditHandler) DeleteOldLogs(ctx *fiber.Ctx) error {
	principal := middlewares.GetPrincipal(ctx)

	dias := cast.ToInt(ctx.Query("dias"))
	if dias == 0 {
		dias = params.DefaultCleanupDays
	}
	if dias < params.MinAuditCleanupDays {
		return jsonError(ctx, fiber.StatusBadRequest, "El minimo es 30 dias")
	}

	deleted, err := h.auditor.CleanupOld(ctx.Context(), principal.ConnectionID, dias)
	if err != nil {
		return err
	}

	h.auditor.Record(ctx.Context(), audit.Entry{
		Accion:       audit.ActionConfigChange,
		UserID:       &principal.UserID,
		Username:     principal.Username,
		EmpresaID:    principal.EmpresaID,
		ConnectionID: principal.ConnectionID,
		Recurso:      "audit_log",
		IPAddress:    middlewares.ClientIP(ctx),
		UserAgent:    string(ctx.Request().Header.UserAgent()),
		Detalles:     fiber.Map{"dias": dias, "eliminados": deleted},
	})
	return jsonOK(ctx, fiber.Map{
		"eliminados": deleted,
		"dias":       dias,
	})
}
