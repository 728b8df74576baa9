package api

import (
	"context"
	"time"

	"github.com/jobers/backend/internal/audit"
	"github.com/jobers/backend/internal/geoip"
	"github.com/jobers/backend/internal/sessions"
	"github.com/jobers/backend/internal/users"
	"github.com/jobers/backend/model"
)

type UserService interface {
	GetUserByID(ctx context.Context, connectionID string, userID uint) (*model.User, error)
	Authenticate(ctx context.Context, connectionID string, username, password string) (*model.User, error)
	ChangePassword(ctx context.Context, connectionID string, userID uint, newPassword string) error
	RegisterUser(ctx context.Context, opts users.CreateUserOptions) (*model.PendingUser, string, error)
	VerifyEmail(ctx context.Context, tokenStr string) (*model.User, error)
	CreateApiKey(ctx context.Context, connectionID string, userID uint, nombre string) (*model.ApiKey, error)
	ListApiKeys(ctx context.Context, connectionID string, userID uint) ([]model.ApiKey, error)
	DeleteApiKey(ctx context.Context, connectionID string, userID, keyID uint) (bool, error)
}

type SessionRegistry interface {
	RoleTimeout(rol string) time.Duration
	Create(ctx context.Context, connectionID string, userID uint, empresaID string, ipAddress string) (string, error)
	Delete(ctx context.Context, connectionID string, token string) (bool, error)
	DeleteByID(ctx context.Context, connectionID string, sessionID uint) (bool, error)
	DeleteByUserID(ctx context.Context, connectionID string, userID uint) (int64, error)
	DeleteAllExcept(ctx context.Context, connectionID string, currentToken string, empresaID string) (int64, error)
	ListActive(ctx context.Context, connectionID string, empresaID string) ([]sessions.View, error)
	CountActive(ctx context.Context, connectionID string, empresaID string) (int64, error)
	CleanupExpired(ctx context.Context, connectionID string) (int64, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) uint64
	Query(ctx context.Context, connectionID string, filter audit.Filter, limit, offset int) ([]model.AuditLog, error)
	Count(ctx context.Context, connectionID string, filter audit.Filter) (int64, error)
	ActionsSummary(ctx context.Context, connectionID, empresaID string, windowDays int) ([]audit.ActionCount, error)
	ResultsSummary(ctx context.Context, connectionID, empresaID string, windowDays int) ([]audit.ResultCount, error)
	CleanupOld(ctx context.Context, connectionID string, olderThanDays int) (int64, error)
}

type GeoResolver interface {
	Lookup(ctx context.Context, ip string) *geoip.Location
}
