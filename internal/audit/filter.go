package audit

import (
	"time"

	"gorm.io/gorm"
)

// Filter is the fixed set of predicate fields an audit query can combine.
// Every set field maps to one parameterized AND clause; zero values are
// skipped. Date bounds are inclusive whole days.
type Filter struct {
	EmpresaID  string
	UserID     uint
	Username   string // substring match
	Accion     string
	FechaDesde time.Time // civil date; time-of-day ignored
	FechaHasta time.Time
	Resultado  string
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func dayEnd(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

// Scope applies the filter predicates to a query. Usable with db.Scopes.
func (f Filter) Scope(db *gorm.DB) *gorm.DB {
	if f.EmpresaID != "" {
		db = db.Where("empresa_id = ?", f.EmpresaID)
	}
	if f.UserID != 0 {
		db = db.Where("user_id = ?", f.UserID)
	}
	if f.Username != "" {
		db = db.Where("username LIKE ?", "%"+f.Username+"%")
	}
	if f.Accion != "" {
		db = db.Where("accion = ?", f.Accion)
	}
	if !f.FechaDesde.IsZero() {
		db = db.Where("fecha >= ?", dayStart(f.FechaDesde))
	}
	if !f.FechaHasta.IsZero() {
		db = db.Where("fecha <= ?", dayEnd(f.FechaHasta))
	}
	if f.Resultado != "" {
		db = db.Where("resultado = ?", f.Resultado)
	}
	return db
}
