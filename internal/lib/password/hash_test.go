package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "regular password", password: "password123"},
		{name: "special chars", password: "p@ssw0rd!@#$%^&*()"},
		{name: "unicode", password: "пароль-2024"},
		{name: "longer than bcrypt limit", password: strings.Repeat("a", 80), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := Hash(tt.password)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)
			assert.NoError(t, Compare(hash, tt.password))
		})
	}
}

func TestCompare(t *testing.T) {
	hash, err := Hash("correct_password")
	require.NoError(t, err)

	t.Run("match", func(t *testing.T) {
		assert.NoError(t, Compare(hash, "correct_password"))
	})

	t.Run("mismatch", func(t *testing.T) {
		err := Compare(hash, "wrong_password")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMismatch)
	})

	t.Run("empty password", func(t *testing.T) {
		assert.ErrorIs(t, Compare(hash, ""), ErrMismatch)
	})

	t.Run("malformed hash", func(t *testing.T) {
		err := Compare("not-a-hash", "correct_password")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrMismatch)
	})
}

func TestHash_Salted(t *testing.T) {
	first, err := Hash("same")
	require.NoError(t, err)
	second, err := Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
