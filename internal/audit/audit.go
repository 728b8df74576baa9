// Package audit records security and business relevant actions in the
// tenant database. Records are immutable: inserted once, bulk-deleted by the
// retention job, never updated. Recording is non-fatal to the action being
// described; callers use Record and carry on when the insert fails.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jobers/backend/internal/tenants"
	"github.com/jobers/backend/model"
	"github.com/valyala/bytebufferpool"
	"gorm.io/gorm"
)

// Maximum persisted lengths. Oversized input is silently truncated rather
// than rejected so a verbose user agent can never fail the audited action.
const (
	maxUsernameLen  = 100
	maxEmpresaIDLen = 5
	maxAccionLen    = 50
	maxRecursoLen   = 100
	maxIPAddressLen = 45
	maxUserAgentLen = 1000
	maxResultadoLen = 20
)

// Entry describes one event to record. Detalles is an arbitrary structured
// payload serialized to the JSON text column.
type Entry struct {
	Accion       string
	UserID       *uint
	Username     string
	EmpresaID    string
	ConnectionID string
	Recurso      string
	RecursoID    string
	IPAddress    string
	UserAgent    string
	Detalles     interface{}
	Resultado    string // defaults to SUCCESS
}

type Recorder struct {
	tenants *tenants.Registry
}

func NewRecorder(tenants *tenants.Registry) *Recorder {
	return &Recorder{tenants: tenants}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func marshalDetalles(detalles interface{}) (string, error) {
	if detalles == nil {
		return "", nil
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := json.NewEncoder(buf).Encode(detalles); err != nil {
		return "", err
	}
	// Encode appends a newline
	b := buf.Bytes()
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
	}
	return string(b), nil
}

// Log inserts one immutable record and returns its id.
func (r *Recorder) Log(ctx context.Context, entry Entry) (uint64, error) {
	db, err := r.tenants.DB(ctx, entry.ConnectionID)
	if err != nil {
		return 0, err
	}

	detalles, err := marshalDetalles(entry.Detalles)
	if err != nil {
		return 0, err
	}

	resultado := entry.Resultado
	if resultado == "" {
		resultado = ResultSuccess
	}

	row := model.AuditLog{
		UserID:    entry.UserID,
		Username:  truncate(entry.Username, maxUsernameLen),
		EmpresaID: truncate(entry.EmpresaID, maxEmpresaIDLen),
		Accion:    truncate(entry.Accion, maxAccionLen),
		Recurso:   truncate(entry.Recurso, maxRecursoLen),
		RecursoID: truncate(entry.RecursoID, maxRecursoLen),
		IPAddress: truncate(entry.IPAddress, maxIPAddressLen),
		UserAgent: truncate(entry.UserAgent, maxUserAgentLen),
		Detalles:  detalles,
		Resultado: truncate(resultado, maxResultadoLen),
	}
	if err := db.Create(&row).Error; err != nil {
		return 0, err
	}
	return row.ID, nil
}

// Record logs the entry and swallows any failure. Audit gaps are a tolerated
// failure mode; the audited action must never be blocked by its own log.
func (r *Recorder) Record(ctx context.Context, entry Entry) uint64 {
	id, err := r.Log(ctx, entry)
	if err != nil {
		slog.Error("Could not record audit event", "accion", entry.Accion, "error", err)
		return 0
	}
	return id
}

// Query returns matching records newest-first. Ties on fecha break by
// descending id so offset paging stays deterministic under concurrent
// inserts.
func (r *Recorder) Query(ctx context.Context, connectionID string, filter Filter, limit, offset int) ([]model.AuditLog, error) {
	db, err := r.tenants.DB(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	var logs []model.AuditLog
	err = db.Model(&model.AuditLog{}).
		Scopes(filter.Scope).
		Order("fecha DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	return logs, err
}

// Count counts records matching the filter, for pagination.
func (r *Recorder) Count(ctx context.Context, connectionID string, filter Filter) (int64, error) {
	db, err := r.tenants.DB(ctx, connectionID)
	if err != nil {
		return 0, err
	}
	var count int64
	err = db.Model(&model.AuditLog{}).Scopes(filter.Scope).Count(&count).Error
	return count, err
}

// ActionCount is one row of the per-action dashboard summary.
type ActionCount struct {
	Accion string `json:"accion"`
	Count  int64  `json:"count"`
}

// ResultCount is one row of the per-result dashboard summary.
type ResultCount struct {
	Resultado string `json:"resultado"`
	Count     int64  `json:"count"`
}

func (r *Recorder) summaryQuery(ctx context.Context, connectionID, empresaID string, windowDays int) (*gorm.DB, error) {
	db, err := r.tenants.DB(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	query := db.Model(&model.AuditLog{}).
		Where("fecha >= ?", time.Now().AddDate(0, 0, -windowDays))
	if empresaID != "" {
		query = query.Where("empresa_id = ?", empresaID)
	}
	return query, nil
}

// ActionsSummary aggregates record counts per action over a trailing window.
func (r *Recorder) ActionsSummary(ctx context.Context, connectionID, empresaID string, windowDays int) ([]ActionCount, error) {
	query, err := r.summaryQuery(ctx, connectionID, empresaID, windowDays)
	if err != nil {
		return nil, err
	}
	var rows []ActionCount
	err = query.Select("accion, COUNT(*) AS count").
		Group("accion").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

// ResultsSummary aggregates record counts per result over a trailing window.
func (r *Recorder) ResultsSummary(ctx context.Context, connectionID, empresaID string, windowDays int) ([]ResultCount, error) {
	query, err := r.summaryQuery(ctx, connectionID, empresaID, windowDays)
	if err != nil {
		return nil, err
	}
	var rows []ResultCount
	err = query.Select("resultado, COUNT(*) AS count").
		Group("resultado").
		Scan(&rows).Error
	return rows, err
}

// CleanupOld irreversibly deletes records older than the cutoff. The
// comparison is strict: a record exactly at the boundary is retained. The
// 30-day safety floor is enforced at the HTTP boundary, not here.
func (r *Recorder) CleanupOld(ctx context.Context, connectionID string, olderThanDays int) (int64, error) {
	db, err := r.tenants.DB(ctx, connectionID)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	res := db.Where("fecha < ?", cutoff).Delete(&model.AuditLog{})
	return res.RowsAffected, res.Error
}
