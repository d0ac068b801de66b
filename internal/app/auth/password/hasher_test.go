package password

import (
	"strings"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/require"
	authErrors "github.com/usiug6/auth-service/internal/domain/auth/errors"
	"golang.org/x/crypto/bcrypt"
)

var fastParams = &argon2id.Params{
	Memory:      8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func TestHasher_RoundTrip(t *testing.T) {
	h := New("pepper", fastParams)

	for _, pwd := range []string{"secret123", "newpass456", "пароль", " spaced "} {
		hash, err := h.Hash(pwd)
		require.NoError(t, err)
		require.NotContains(t, hash, pwd)
		require.True(t, strings.HasPrefix(hash, "$argon2id$"))

		ok, err := h.Verify(pwd, hash)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = h.Verify(pwd+"x", hash)
		require.NoError(t, err)
		require.False(t, ok)
	}
}

func TestHasher_FreshSalt(t *testing.T) {
	h := New("", fastParams)
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestHasher_PepperMatters(t *testing.T) {
	hash, err := New("one", fastParams).Hash("secret123")
	require.NoError(t, err)

	ok, err := New("two", fastParams).Verify("secret123", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHasher_LegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.MinCost)
	require.NoError(t, err)
	require.True(t, IsLegacy(string(legacy)))

	h := New("pepper", fastParams)
	ok, err := h.Verify("demo1234", string(legacy))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = h.Verify("wrong", string(legacy))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHasher_MalformedHash(t *testing.T) {
	h := New("", fastParams)
	_, err := h.Verify("x", "not-a-hash")
	require.True(t, authErrors.IsInternal(err))
}

func TestNew_DefaultParams(t *testing.T) {
	require.Equal(t, DefaultParams, New("", nil).params)
}
