package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_HashAndCheckPassword(t *testing.T) {
	u := &User{}
	require.NoError(t, u.HashPassword("correct-horse-battery-staple"))
	assert.NotEmpty(t, u.PasswordHash)
	assert.NotEqual(t, "correct-horse-battery-staple", u.PasswordHash)

	assert.True(t, u.CheckPassword("correct-horse-battery-staple"))
	assert.False(t, u.CheckPassword("wrong-password"))
}

func TestRefreshToken_Active(t *testing.T) {
	now := time.Now().UTC()

	t.Run("active", func(t *testing.T) {
		rt := &RefreshToken{ExpiresAt: now.Add(time.Hour)}
		assert.True(t, rt.Active(now))
	})

	t.Run("expired", func(t *testing.T) {
		rt := &RefreshToken{ExpiresAt: now.Add(-time.Hour)}
		assert.False(t, rt.Active(now))
	})

	t.Run("revoked", func(t *testing.T) {
		revokedAt := now.Add(-time.Minute)
		rt := &RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt}
		assert.False(t, rt.Active(now))
	})
}
