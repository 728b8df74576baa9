package sessions

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jobers/backend/internal/tenants"
	"github.com/jobers/backend/model"
	"github.com/jobers/backend/params"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func defaultTimeouts() map[string]time.Duration {
	return map[string]time.Duration{
		model.RolUsuario:       params.DefaultUsuarioIdleTimeout,
		model.RolAdministrador: params.DefaultAdministradorIdleTimeout,
		model.RolSuperusuario:  params.DefaultSuperusuarioIdleTimeout,
	}
}

// Integration tests run against the database named by DB_URL.
func setupRegistry(t *testing.T) (*Registry, *gorm.DB) {
	t.Helper()
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		t.Skip("DB_URL not set")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.UserSession{}))
	require.NoError(t, db.Exec("DELETE FROM user_sessions").Error)
	require.NoError(t, db.Exec("DELETE FROM users").Error)

	tenantRegistry, err := tenants.NewRegistry(db, nil)
	require.NoError(t, err)
	return NewRegistry(tenantRegistry, defaultTimeouts()), db
}

func createUser(t *testing.T, db *gorm.DB, username, rol string) *model.User {
	t.Helper()
	user := model.User{
		Username:  username,
		FullName:  "Test " + username,
		Email:     username + "@example.com",
		Password:  "x",
		Rol:       rol,
		EmpresaID: "1",
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func TestCreateExistsDelete(t *testing.T) {
	registry, db := setupRegistry(t)
	ctx := context.Background()
	user := createUser(t, db, "jdoe", model.RolUsuario)

	token, err := registry.Create(ctx, "", user.ID, "1", "10.0.0.7")
	require.NoError(t, err)
	require.Regexp(t, `^[0-9a-f]{64}$`, token)

	exists, err := registry.Exists(ctx, "", token)
	require.NoError(t, err)
	require.True(t, exists)

	deleted, err := registry.Delete(ctx, "", token)
	require.NoError(t, err)
	require.True(t, deleted)

	exists, err = registry.Exists(ctx, "", token)
	require.NoError(t, err)
	require.False(t, exists)

	// deleting an unknown token is not an error
	deleted, err = registry.Delete(ctx, "", token)
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestDeleteByUserAndAllExcept(t *testing.T) {
	registry, db := setupRegistry(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice", model.RolUsuario)
	bob := createUser(t, db, "bob", model.RolUsuario)

	var tokens []string
	for i := 0; i < 3; i++ {
		token, err := registry.Create(ctx, "", alice.ID, "1", "10.0.0.1")
		require.NoError(t, err)
		tokens = append(tokens, token)
	}
	bobToken, err := registry.Create(ctx, "", bob.ID, "2", "10.0.0.2")
	require.NoError(t, err)

	count, err := registry.DeleteByUserID(ctx, "", alice.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), count)

	token, err := registry.Create(ctx, "", alice.ID, "1", "10.0.0.1")
	require.NoError(t, err)

	// tenant-scoped: bob's session on empresa 2 survives
	count, err = registry.DeleteAllExcept(ctx, "", token, "1")
	require.NoError(t, err)
	require.Equal(t, int64(0), count)

	count, err = registry.DeleteAllExcept(ctx, "", token, "")
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	exists, err := registry.Exists(ctx, "", bobToken)
	require.NoError(t, err)
	require.False(t, exists)
	exists, err = registry.Exists(ctx, "", token)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestListActiveJoinsUserInfo(t *testing.T) {
	registry, db := setupRegistry(t)
	ctx := context.Background()
	user := createUser(t, db, "jdoe", model.RolAdministrador)

	token, err := registry.Create(ctx, "", user.ID, "1", "10.0.0.7")
	require.NoError(t, err)
	_ = token

	views, err := registry.ListActive(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "jdoe", views[0].Username)
	require.Equal(t, model.RolAdministrador, views[0].Rol)
	require.Equal(t, "1", views[0].EmpresaID)

	views, err = registry.ListActive(ctx, "", "2")
	require.NoError(t, err)
	require.Empty(t, views)

	count, err := registry.CountActive(ctx, "", "1")
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func setLastActivity(t *testing.T, db *gorm.DB, token string, age time.Duration) {
	t.Helper()
	require.NoError(t, db.Exec("UPDATE user_sessions SET last_activity = ? WHERE session_token = ?",
		time.Now().Add(-age), token).Error)
}

func TestCleanupExpiredRoleThresholds(t *testing.T) {
	registry, db := setupRegistry(t)
	ctx := context.Background()

	usuario := createUser(t, db, "usuario1", model.RolUsuario)
	admin := createUser(t, db, "admin1", model.RolAdministrador)
	super := createUser(t, db, "super1", model.RolSuperusuario)

	staleUser, err := registry.Create(ctx, "", usuario.ID, "1", "")
	require.NoError(t, err)
	freshUser, err := registry.Create(ctx, "", usuario.ID, "1", "")
	require.NoError(t, err)
	staleAdmin, err := registry.Create(ctx, "", admin.ID, "1", "")
	require.NoError(t, err)
	freshAdmin, err := registry.Create(ctx, "", admin.ID, "1", "")
	require.NoError(t, err)
	superAt2h, err := registry.Create(ctx, "", super.ID, "1", "")
	require.NoError(t, err)
	staleSuper, err := registry.Create(ctx, "", super.ID, "1", "")
	require.NoError(t, err)

	// one second either side of each role boundary
	setLastActivity(t, db, staleUser, 2*time.Hour+time.Second)
	setLastActivity(t, db, freshUser, 2*time.Hour-time.Second)
	setLastActivity(t, db, staleAdmin, 8*time.Hour+time.Second)
	setLastActivity(t, db, freshAdmin, 8*time.Hour-time.Second)
	setLastActivity(t, db, superAt2h, 2*time.Hour+time.Minute)
	setLastActivity(t, db, staleSuper, 7*24*time.Hour+time.Minute)

	deleted, err := registry.CleanupExpired(ctx, "")
	require.NoError(t, err)
	require.Equal(t, int64(3), deleted)

	for token, want := range map[string]bool{
		staleUser:  false,
		freshUser:  true,
		staleAdmin: false,
		freshAdmin: true,
		superAt2h:  true,
		staleSuper: false,
	} {
		exists, err := registry.Exists(ctx, "", token)
		require.NoError(t, err)
		require.Equal(t, want, exists, "token %s", token)
	}
}

func TestUpdateActivityTouchesTimestamp(t *testing.T) {
	registry, db := setupRegistry(t)
	ctx := context.Background()
	user := createUser(t, db, "jdoe", model.RolUsuario)

	token, err := registry.Create(ctx, "", user.ID, "1", "")
	require.NoError(t, err)
	setLastActivity(t, db, token, time.Hour)

	touched, err := registry.UpdateActivity(ctx, "", token)
	require.NoError(t, err)
	require.True(t, touched)

	var session model.UserSession
	require.NoError(t, db.Where("session_token = ?", token).First(&session).Error)
	require.WithinDuration(t, time.Now(), session.LastActivity, time.Minute)

	touched, err = registry.UpdateActivity(ctx, "", "deadbeef")
	require.NoError(t, err)
	require.False(t, touched)
}
