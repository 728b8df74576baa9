package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestPendingUserPrimaryKeySchema(t *testing.T) {
	parsed, err := schema.Parse(&PendingUser{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	require.Len(t, parsed.PrimaryFields, 1)
	id := parsed.PrimaryFields[0]
	assert.Equal(t, "ID", id.Name)
	assert.True(t, id.AutoIncrement)
}
