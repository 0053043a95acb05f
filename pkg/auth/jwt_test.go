package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJWT_SignVerifyRoundtrip(t *testing.T) {
	j := New("test-secret")

	tok, err := j.Sign("user-1", "Alice", time.Minute)
	require.NoError(t, err)

	claims, err := j.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "Alice", claims.DisplayName)
}

func TestJWT_EmptySubjectRejected(t *testing.T) {
	j := New("test-secret")
	_, err := j.Sign("", "Alice", time.Minute)
	require.Error(t, err)
}

func TestJWT_ExpiredRejected(t *testing.T) {
	j := New("test-secret")

	tok, err := j.Sign("user-1", "Alice", -time.Minute)
	require.NoError(t, err)

	_, err = j.Verify(tok)
	require.Error(t, err)
}

func TestJWT_WrongSecretRejected(t *testing.T) {
	tok, err := New("secret-a").Sign("user-1", "Alice", time.Minute)
	require.NoError(t, err)

	_, err = New("secret-b").Verify(tok)
	require.Error(t, err)
}

func TestJWT_GarbageRejected(t *testing.T) {
	_, err := New("test-secret").Verify("not.a.token")
	require.Error(t, err)
}
