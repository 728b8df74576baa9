// Package sessions tracks live logins in the tenant database. One row per
// authenticated browser session, keyed by an opaque 64-hex-char token;
// deleting the row is the only revocation mechanism.
package sessions

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jobers/backend/internal/common"
	"github.com/jobers/backend/internal/tenants"
	"github.com/jobers/backend/model"
	"github.com/jobers/backend/params"
)

// View is one active session joined with user identity fields for
// administrative display.
type View struct {
	ID           uint      `json:"id"`
	UserID       uint      `json:"user_id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	Rol          string    `json:"rol"`
	EmpresaID    string    `json:"empresa_id"`
	IPAddress    string    `json:"ip_address"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// Registry manages session rows. Sessions expire by inactivity with a
// role-dependent idle threshold; the sweep runs on demand, not on a timer.
type Registry struct {
	tenants      *tenants.Registry
	roleTimeouts map[string]time.Duration
}

func NewRegistry(tenants *tenants.Registry, roleTimeouts map[string]time.Duration) *Registry {
	return &Registry{
		tenants:      tenants,
		roleTimeouts: roleTimeouts,
	}
}

// RoleTimeout returns the idle threshold for a role, falling back to the
// most restrictive configured threshold for unknown roles.
func (r *Registry) RoleTimeout(rol string) time.Duration {
	if timeout, ok := r.roleTimeouts[rol]; ok {
		return timeout
	}
	return r.roleTimeouts[model.RolUsuario]
}

// Create inserts a new session row and returns its token.
func (r *Registry) Create(ctx context.Context, connectionID string, userID uint, empresaID string, ipAddress string) (string, error) {
	db, err := r.tenants.DB(ctx, connectionID)
	if err != nil {
		return "", err
	}
	token, err := common.GenerateToken(params.SessionTokenBytes)
	if err != nil {
		return "", err
	}
	session := model.UserSession{
		SessionToken: token,
		UserID:       userID,
		EmpresaID:    empresaID,
		IPAddress:    ipAddress,
	}
	if err := db.Create(&session).Error; err != nil {
		return "", err
	}
	return token, nil
}

// Delete removes a session by token. Returns false when no row matched;
// deleting an unknown token is not an error.
func (r *Registry) Delete(ctx context.Context, connectionID string, token string) (bool, error) {
	db, err := r.tenants.DB(ctx, connectionID)
	if err != nil {
		return false, err
	}
	res := db.Where("session_token = ?", token).Delete(&model.UserSession{})
	return res.RowsAffected > 0, res.Error
}

// DeleteByID removes a session by row id, used by the admin kill endpoint.
func (r *Registry) DeleteByID(ctx context.Context, connectionID string, sessionID uint) (bool, error) {
	db, err := r.tenants.DB(ctx, connectionID)
	if err != nil {
		return false, err
	}
	res := db.Where("id = ?", sessionID).Delete(&model.UserSession{})
	return res.RowsAffected > 0, res.Error
}

// DeleteByUserID removes every session of one user and returns the count.
func (r *Registry) DeleteByUserID(ctx context.Context, connectionID string, userID uint) (int64, error) {
	db, err := r.tenants.DB(ctx, connectionID)
	if err != nil {
		return 0, err
	}
	res := db.Where("user_id = ?", userID).Delete(&model.UserSession{})
	return res.RowsAffected, res.Error
}

// DeleteAllExcept removes every session but the given one, scoped to a
// tenant when empresaID is non-empty.
func (r *Registry) DeleteAllExcept(ctx context.Context, connectionID string, currentToken string, empresaID string) (int64, error) {
	db, err := r.tenants.DB(ctx, connectionID)
	if err != nil {
		return 0, err
	}
	query := db.Where("session_token <> ?", currentToken)
	if empresaID != "" {
		query = query.Where("empresa_id = ?", empresaID)
	}
	res := query.Delete(&model.UserSession{})
	return res.RowsAffected, res.Error
}

// UpdateActivity touches last_activity, called opportunistically on
// authenticated requests as a liveness heartbeat.
func (r *Registry) UpdateActivity(ctx context.Context, connectionID string, token string) (bool, error) {
	db, err := r.tenants.DB(ctx, connectionID)
	if err != nil {
		return false, err
	}
	res := db.Model(&model.UserSession{}).
		Where("session_token = ?", token).
		Update("last_activity", time.Now())
	return res.RowsAffected > 0, res.Error
}

// Exists checks whether a token identifies a live session without loading
// the full record.
func (r *Registry) Exists(ctx context.Context, connectionID string, token string) (bool, error) {
	db, err := r.tenants.DB(ctx, connectionID)
	if err != nil {
		return false, err
	}
	var count int64
	err = db.Model(&model.UserSession{}).Where("session_token = ?", token).Count(&count).Error
	return count > 0, err
}

// ListActive returns active sessions joined with user identity, most
// recently active first. empresaID scopes the listing when non-empty.
func (r *Registry) ListActive(ctx context.Context, connectionID string, empresaID string) ([]View, error) {
	db, err := r.tenants.DB(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	query := db.Table("user_sessions s").
		Select("s.id, s.user_id, u.username, u.full_name, u.rol, s.empresa_id, s.ip_address, s.created_at, s.last_activity").
		Joins("INNER JOIN users u ON s.user_id = u.id")
	if empresaID != "" {
		query = query.Where("s.empresa_id = ?", empresaID)
	}
	var views []View
	err = query.Order("s.last_activity DESC").Scan(&views).Error
	return views, err
}

// CountActive counts active sessions, tenant-scoped when empresaID is set.
func (r *Registry) CountActive(ctx context.Context, connectionID string, empresaID string) (int64, error) {
	db, err := r.tenants.DB(ctx, connectionID)
	if err != nil {
		return 0, err
	}
	query := db.Model(&model.UserSession{})
	if empresaID != "" {
		query = query.Where("empresa_id = ?", empresaID)
	}
	var count int64
	err = query.Count(&count).Error
	return count, err
}

// CleanupExpired deletes sessions idle beyond their user's role threshold.
// The comparison is strict: a session exactly at the threshold survives.
func (r *Registry) CleanupExpired(ctx context.Context, connectionID string) (int64, error) {
	db, err := r.tenants.DB(ctx, connectionID)
	if err != nil {
		return 0, err
	}

	roles := make([]string, 0, len(r.roleTimeouts))
	for rol := range r.roleTimeouts {
		roles = append(roles, rol)
	}
	sort.Strings(roles)

	now := time.Now()
	conds := make([]string, 0, len(roles))
	args := make([]interface{}, 0, 2*len(roles))
	for _, rol := range roles {
		conds = append(conds, "(u.rol = ? AND s.last_activity < ?)")
		args = append(args, rol, now.Add(-r.roleTimeouts[rol]))
	}

	// MySQL multi-table delete; a WHERE id IN (subquery on the same table)
	// is rejected with error 1093.
	sql := fmt.Sprintf(
		"DELETE s FROM user_sessions s INNER JOIN users u ON s.user_id = u.id WHERE %s",
		strings.Join(conds, " OR "),
	)
	res := db.Exec(sql, args...)
	return res.RowsAffected, res.Error
}
