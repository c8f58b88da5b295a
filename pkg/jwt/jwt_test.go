package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)

	token, err := m.GenerateToken(7, "owner")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.AdminID)
	assert.Equal(t, "owner", claims.Username)
	assert.Equal(t, "boutique-store", claims.Issuer)
}

func TestManager_Rejects(t *testing.T) {
	m := NewManager("secret", time.Hour)

	_, err := m.ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = m.ValidateToken("a.b.c")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewManager("secret", time.Nanosecond).GenerateToken(1, "owner")
	require.NoError(t, err)
	time.Sleep(time.Second)
	_, err = m.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
