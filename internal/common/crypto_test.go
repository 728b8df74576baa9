package common

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	hexRe := regexp.MustCompile(`^[0-9a-f]{64}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateToken(32)
		require.NoError(t, err)
		require.Regexp(t, hexRe, token)
		require.False(t, seen[token], "token generated twice")
		seen[token] = true
	}
}
