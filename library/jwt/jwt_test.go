package jwt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123")

func TestNewRejectsWeakConfig(t *testing.T) {
	t.Parallel()

	_, err := New([]byte("short"), time.Hour)
	require.Error(t, err)

	_, err = New(testSecret, 0)
	require.Error(t, err)
}

func TestSignAndParse(t *testing.T) {
	t.Parallel()

	j, err := New(testSecret, time.Hour)
	require.NoError(t, err)

	claims := &UserClaims{Email: "a@example.com", DisplayName: "A", Role: "admin"}
	claims.Subject = "uid-1"

	token, signed, err := j.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, signed.ID)
	require.Empty(t, claims.ID, "input claims must not be mutated")

	got, err := j.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "uid-1", got.Subject)
	require.Equal(t, "admin", got.Role)
	require.Equal(t, signed.ID, got.ID)
}

func TestParseRejectsTampered(t *testing.T) {
	t.Parallel()

	j, err := New(testSecret, time.Hour)
	require.NoError(t, err)
	other, err := New([]byte("another-secret-value!"), time.Hour)
	require.NoError(t, err)

	claims := &UserClaims{Role: "user"}
	claims.Subject = "uid-1"
	token, _, err := other.Sign(claims)
	require.NoError(t, err)

	_, err = j.Parse(token)
	require.Error(t, err)

	_, err = j.Parse(strings.TrimSuffix(token, token[len(token)-2:]))
	require.Error(t, err)
}

func TestParseRequiresSubject(t *testing.T) {
	t.Parallel()

	j, err := New(testSecret, time.Hour)
	require.NoError(t, err)

	token, _, err := j.Sign(&UserClaims{Role: "user"})
	require.NoError(t, err)

	_, err = j.Parse(token)
	require.Error(t, err)
}
