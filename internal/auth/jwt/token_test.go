package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager(accessTTL time.Duration) *Manager {
	return NewManager(TokenConfig{
		Secret:    []byte("test-secret"),
		AccessTTL: accessTTL,
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testManager(time.Hour)
	user := User{ID: uuid.New(), Username: "kvothe", Role: "user"}

	token, err := m.GenerateAccessToken(user)
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "kvothe", claims.Username)
	assert.Equal(t, "user", claims.Role)
	assert.False(t, claims.IsRefresh)
	assert.NotEmpty(t, claims.ID, "jti must be set for blocklisting")
}

func TestRefreshTokenNotValidAsAccess(t *testing.T) {
	m := testManager(time.Hour)
	user := User{ID: uuid.New(), Username: "denna"}

	token, err := m.GenerateRefreshToken(user)
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err := m.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.True(t, claims.IsRefresh)
}

func TestExpiredToken(t *testing.T) {
	m := testManager(-time.Minute)
	token, err := m.GenerateAccessToken(User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestWrongSecret(t *testing.T) {
	m := testManager(time.Hour)
	token, err := m.GenerateAccessToken(User{ID: uuid.New()})
	require.NoError(t, err)

	other := NewManager(TokenConfig{Secret: []byte("other-secret")})
	_, err = other.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDistinctJTIs(t *testing.T) {
	m := testManager(time.Hour)
	user := User{ID: uuid.New()}

	t1, err := m.GenerateAccessToken(user)
	require.NoError(t, err)
	t2, err := m.GenerateAccessToken(user)
	require.NoError(t, err)

	c1, err := m.ValidateAccessToken(t1)
	require.NoError(t, err)
	c2, err := m.ValidateAccessToken(t2)
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID, c2.ID)
}
