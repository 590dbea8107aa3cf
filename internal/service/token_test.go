package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret-test-secret-test-secret", time.Hour)
	userID := uuid.New()

	token, exp, err := m.GenerateAccess(userID, RoleTailor)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	gotID, role, err := m.ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, userID, gotID)
	assert.Equal(t, RoleTailor, role)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager("secret-a", time.Hour)
	other := NewTokenManager("secret-b", time.Hour)

	token, _, err := other.GenerateAccess(uuid.New(), RoleCustomer)
	require.NoError(t, err)
	_, _, err = m.ParseAccess(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	expired := NewTokenManager("secret-a", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err = expired.GenerateAccess(uuid.New(), RoleCustomer)
	require.NoError(t, err)
	_, _, err = m.ParseAccess(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	token, _, err = m.GenerateAccess(uuid.New(), "root")
	require.NoError(t, err)
	_, _, err = m.ParseAccess(token)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidClaims)
}
