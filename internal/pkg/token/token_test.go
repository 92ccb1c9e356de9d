package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("secret-1")

	signed, err := issuer.Issue(42, 7, "mario", time.Hour)
	require.NoError(t, err)

	claims, err := issuer.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, int64(7), claims.SessionID)
	assert.Equal(t, "mario", claims.Username)
	assert.NotEmpty(t, claims.ID, "tokens must carry a unique jti")
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestVerify_WrongSecret(t *testing.T) {
	signed, err := NewIssuer("secret-1").Issue(1, 1, "", time.Hour)
	require.NoError(t, err)

	_, err = NewIssuer("secret-2").Verify(signed)
	assert.ErrorIs(t, err, ErrVerificationFailed)
}

func TestVerify_Expired(t *testing.T) {
	issuer := NewIssuer("secret-1")
	signed, err := issuer.Issue(1, 1, "", -time.Minute)
	require.NoError(t, err)

	_, err = issuer.Verify(signed)
	assert.ErrorIs(t, err, ErrVerificationFailed)
}

func TestVerify_Garbage(t *testing.T) {
	_, err := NewIssuer("secret-1").Verify("definitely.not.a.token")
	assert.ErrorIs(t, err, ErrVerificationFailed)
}

func TestIssue_TokensAreUnique(t *testing.T) {
	issuer := NewIssuer("secret-1")

	a, err := issuer.Issue(1, 1, "mario", time.Hour)
	require.NoError(t, err)
	b, err := issuer.Issue(1, 1, "mario", time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "identical claims still mint distinct tokens")
}
