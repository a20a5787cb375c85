package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	mgr := NewJWTManager("test-secret", "deviceauth", "deviceauth-api", 15*time.Minute)

	token, exp, err := mgr.IssueAccess("user-1", "sess-1", "dev-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 5*time.Second)

	claims, err := mgr.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "dev-1", claims.DeviceID)
}

func TestJWTWrongSecret(t *testing.T) {
	mgr := NewJWTManager("secret-a", "deviceauth", "deviceauth-api", time.Minute)
	other := NewJWTManager("secret-b", "deviceauth", "deviceauth-api", time.Minute)

	token, _, err := mgr.IssueAccess("user-1", "sess-1", "dev-1")
	require.NoError(t, err)

	_, err = other.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestJWTWrongIssuerAudience(t *testing.T) {
	mgr := NewJWTManager("s", "issuer-a", "aud-a", time.Minute)
	other := NewJWTManager("s", "issuer-b", "aud-a", time.Minute)

	token, _, err := mgr.IssueAccess("user-1", "sess-1", "dev-1")
	require.NoError(t, err)

	_, err = other.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestJWTExpired(t *testing.T) {
	// TTL заведомо меньше leeway-окна со знаком минус
	mgr := NewJWTManager("s", "deviceauth", "deviceauth-api", -2*time.Minute)

	token, _, err := mgr.IssueAccess("user-1", "sess-1", "dev-1")
	require.NoError(t, err)

	_, err = mgr.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestJWTGarbage(t *testing.T) {
	mgr := NewJWTManager("s", "deviceauth", "deviceauth-api", time.Minute)
	_, err := mgr.VerifyAccess("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
