package model

import "time"

// AuditLog is an append-only record of a security or business relevant
// action. Rows are never updated, only inserted and bulk-deleted by age.
type AuditLog struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Fecha     time.Time `gorm:"autoCreateTime;index"` // server-assigned event time
	UserID    *uint     `gorm:"index"`
	Username  string    `gorm:"size:100;index"` // snapshot of username at event time
	EmpresaID string    `gorm:"size:5;index"`
	Accion    string    `gorm:"size:50;not null;index"` // one of the audit.Action* constants
	Recurso   string    `gorm:"size:100"`               // affected resource kind, e.g. "user", "propuesta"
	RecursoID string    `gorm:"size:100"`
	IPAddress string    `gorm:"size:45"`
	UserAgent string    `gorm:"size:1000"`
	Detalles  string    `gorm:"type:text"` // opaque JSON payload
	Resultado string    `gorm:"size:20;not null;default:SUCCESS"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}
