package sessions

import (
	"testing"
	"time"

	"github.com/jobers/backend/model"
	"github.com/stretchr/testify/require"
)

func TestRoleTimeoutFallsBackToUsuario(t *testing.T) {
	registry := NewRegistry(nil, map[string]time.Duration{
		model.RolUsuario:       2 * time.Hour,
		model.RolAdministrador: 8 * time.Hour,
		model.RolSuperusuario:  7 * 24 * time.Hour,
	})

	require.Equal(t, 8*time.Hour, registry.RoleTimeout(model.RolAdministrador))
	require.Equal(t, 7*24*time.Hour, registry.RoleTimeout(model.RolSuperusuario))
	// unknown roles get the most restrictive threshold
	require.Equal(t, 2*time.Hour, registry.RoleTimeout("invitado"))
}
