package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)

	token, err := m.IssueToken(42)
	require.NoError(t, err)

	id, err := m.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := NewManager("secret", time.Hour)

	_, err := m.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewManager("secret-a", time.Hour)
	verifier := NewManager("secret-b", time.Hour)

	token, err := issuer.IssueToken(42)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := NewManager("secret", time.Millisecond)

	token, err := m.IssueToken(42)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = m.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
