package api

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jobers/backend/internal/audit"
	"github.com/jobers/backend/internal/geoip"
	"github.com/jobers/backend/internal/middlewares"
	"github.com/jobers/backend/internal/sessions"
	"github.com/jobers/backend/internal/users"
	"github.com/jobers/backend/model"
)

type fakeAuditRecorder struct {
	mu         sync.Mutex
	recorded   []audit.Entry
	rows       []model.AuditLog
	total      int64
	lastFilter audit.Filter
	lastLimit  int
	lastOffset int
	lastWindow int
	cleanupRan bool
}

func (f *fakeAuditRecorder) Record(ctx context.Context, entry audit.Entry) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, entry)
	return uint64(len(f.recorded))
}

func (f *fakeAuditRecorder) Query(ctx context.Context, connectionID string, filter audit.Filter, limit, offset int) ([]model.AuditLog, error) {
	f.lastFilter = filter
	f.lastLimit = limit
	f.lastOffset = offset
	return f.rows, nil
}

func (f *fakeAuditRecorder) Count(ctx context.Context, connectionID string, filter audit.Filter) (int64, error) {
	return f.total, nil
}

func (f *fakeAuditRecorder) ActionsSummary(ctx context.Context, connectionID, empresaID string, windowDays int) ([]audit.ActionCount, error) {
	f.lastWindow = windowDays
	return []audit.ActionCount{{Accion: audit.ActionLogin, Count: 2}}, nil
}

func (f *fakeAuditRecorder) ResultsSummary(ctx context.Context, connectionID, empresaID string, windowDays int) ([]audit.ResultCount, error) {
	f.lastWindow = windowDays
	return []audit.ResultCount{{Resultado: audit.ResultSuccess, Count: 2}}, nil
}

func (f *fakeAuditRecorder) CleanupOld(ctx context.Context, connectionID string, olderThanDays int) (int64, error) {
	f.cleanupRan = true
	return 7, nil
}

func (f *fakeAuditRecorder) lastRecorded() *audit.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.recorded) == 0 {
		return nil
	}
	return &f.recorded[len(f.recorded)-1]
}

type fakeSessionRegistry struct {
	views        []sessions.View
	sweepCount   int
	sweptBefore  bool
	deleteByID   map[uint]bool
	killedUser   uint
	killedExcept string
	lastEmpresa  string
}

func (f *fakeSessionRegistry) Exists(ctx context.Context, connectionID string, token string) (bool, error) {
	return true, nil
}

func (f *fakeSessionRegistry) UpdateActivity(ctx context.Context, connectionID string, token string) (bool, error) {
	return true, nil
}

func (f *fakeSessionRegistry) RoleTimeout(rol string) time.Duration {
	return 2 * time.Hour
}

func (f *fakeSessionRegistry) Create(ctx context.Context, connectionID string, userID uint, empresaID string, ipAddress string) (string, error) {
	return "aabbccdd00112233aabbccdd00112233aabbccdd00112233aabbccdd00112233", nil
}

func (f *fakeSessionRegistry) Delete(ctx context.Context, connectionID string, token string) (bool, error) {
	return true, nil
}

func (f *fakeSessionRegistry) DeleteByID(ctx context.Context, connectionID string, sessionID uint) (bool, error) {
	return f.deleteByID[sessionID], nil
}

func (f *fakeSessionRegistry) DeleteByUserID(ctx context.Context, connectionID string, userID uint) (int64, error) {
	f.killedUser = userID
	return 2, nil
}

func (f *fakeSessionRegistry) DeleteAllExcept(ctx context.Context, connectionID string, currentToken string, empresaID string) (int64, error) {
	f.killedExcept = currentToken
	return 3, nil
}

func (f *fakeSessionRegistry) ListActive(ctx context.Context, connectionID string, empresaID string) ([]sessions.View, error) {
	f.sweptBefore = f.sweepCount > 0
	f.lastEmpresa = empresaID
	return f.views, nil
}

func (f *fakeSessionRegistry) CountActive(ctx context.Context, connectionID string, empresaID string) (int64, error) {
	f.lastEmpresa = empresaID
	return int64(len(f.views)), nil
}

func (f *fakeSessionRegistry) CleanupExpired(ctx context.Context, connectionID string) (int64, error) {
	f.sweepCount++
	return 0, nil
}

type fakeUserService struct {
	user    *model.User
	authErr error
}

func (f *fakeUserService) GetUserByID(ctx context.Context, connectionID string, userID uint) (*model.User, error) {
	if f.user == nil {
		return nil, users.ErrUserNotFound
	}
	return f.user, nil
}

func (f *fakeUserService) Authenticate(ctx context.Context, connectionID string, username, password string) (*model.User, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.user, nil
}

func (f *fakeUserService) ChangePassword(ctx context.Context, connectionID string, userID uint, newPassword string) error {
	return nil
}

func (f *fakeUserService) RegisterUser(ctx context.Context, opts users.CreateUserOptions) (*model.PendingUser, string, error) {
	return &model.PendingUser{Username: opts.Username, Email: opts.Email, FullName: opts.FullName}, "token123", nil
}

func (f *fakeUserService) VerifyEmail(ctx context.Context, tokenStr string) (*model.User, error) {
	return f.user, nil
}

func (f *fakeUserService) CreateApiKey(ctx context.Context, connectionID string, userID uint, nombre string) (*model.ApiKey, error) {
	return &model.ApiKey{ID: 9, UserID: userID, ApiKey: "rawkey", Nombre: nombre, Activo: true}, nil
}

func (f *fakeUserService) ListApiKeys(ctx context.Context, connectionID string, userID uint) ([]model.ApiKey, error) {
	return nil, nil
}

func (f *fakeUserService) DeleteApiKey(ctx context.Context, connectionID string, userID, keyID uint) (bool, error) {
	return true, nil
}

type nullGeoResolver struct{}

func (nullGeoResolver) Lookup(ctx context.Context, ip string) *geoip.Location {
	return nil
}

func withPrincipal(principal *middlewares.Principal) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		middlewares.SetPrincipal(ctx, principal)
		return ctx.Next()
	}
}

func adminPrincipal() *middlewares.Principal {
	return &middlewares.Principal{
		UserID:       1,
		Username:     "admin",
		Rol:          "administrador",
		EmpresaID:    "E01",
		ConnectionID: "tenant1",
		SessionToken: "tok-current",
	}
}

func superPrincipal() *middlewares.Principal {
	principal := adminPrincipal()
	principal.Rol = "superusuario"
	return principal
}
