package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	authErrors "github.com/usiug6/auth-service/internal/domain/auth/errors"
	"github.com/usiug6/auth-service/internal/infra/config"
	"github.com/stretchr/testify/require"
)

func hsConfig() *config.Config {
	return &config.Config{
		JWTSecret: "test-secret",
		Issuer:    "test",
		Audience:  "test",
	}
}

func rsaConfig() *config.Config {
	return &config.Config{
		JWTPrivateKeyPath: "testdata/priv.pem",
		JWTPublicKeyPath:  "testdata/pub.pem",
		Issuer:            "test",
		Audience:          "test",
	}
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestJWTUtil_IssueParse(t *testing.T) {
	for name, cfg := range map[string]*config.Config{"hs256": hsConfig(), "rs256": rsaConfig()} {
		t.Run(name, func(t *testing.T) {
			util, err := NewJWTUtil(cfg)
			require.NoError(t, err)

			issued, err := util.Issue(42)
			require.NoError(t, err)
			require.NotEmpty(t, issued.Token)
			require.NotEmpty(t, issued.JTI)
			require.EqualValues(t, 42, issued.UserID)

			claims, err := util.Parse(issued.Token)
			require.NoError(t, err)
			require.Equal(t, issued.JTI, claims.ID)
			uid, err := claims.UserID()
			require.NoError(t, err)
			require.EqualValues(t, 42, uid)
		})
	}
}

func TestJWTUtil_UniqueJTI(t *testing.T) {
	util, err := NewJWTUtil(hsConfig())
	require.NoError(t, err)

	a, err := util.Issue(1)
	require.NoError(t, err)
	b, err := util.Issue(1)
	require.NoError(t, err)
	require.NotEqual(t, a.JTI, b.JTI)
}

func TestJWTUtil_ExpiryBoundary(t *testing.T) {
	util, err := NewJWTUtil(hsConfig())
	require.NoError(t, err)

	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := &clock{t: start}
	util.now = c.now

	issued, err := util.Issue(7)
	require.NoError(t, err)
	require.Equal(t, start.Add(24*time.Hour), issued.ExpiresAt.UTC())

	c.t = start.Add(23*time.Hour + 59*time.Minute)
	_, err = util.Parse(issued.Token)
	require.NoError(t, err)

	c.t = start.Add(24*time.Hour + time.Minute)
	_, err = util.Parse(issued.Token)
	require.ErrorIs(t, err, authErrors.ErrInvalidToken)
}

func TestJWTUtil_ParseErrors(t *testing.T) {
	util, err := NewJWTUtil(hsConfig())
	require.NoError(t, err)

	_, err = util.Parse("bad")
	require.True(t, authErrors.IsInvalidToken(err))

	otherCfg := hsConfig()
	otherCfg.JWTSecret = "another-secret"
	other, err := NewJWTUtil(otherCfg)
	require.NoError(t, err)
	tok, err := other.Issue(1)
	require.NoError(t, err)
	_, err = util.Parse(tok.Token)
	require.True(t, authErrors.IsInvalidToken(err), "foreign signature must fail")
}

func TestJWTUtil_InvalidIssuerAndAudience(t *testing.T) {
	util, err := NewJWTUtil(hsConfig())
	require.NoError(t, err)

	wrongIss := hsConfig()
	wrongIss.Issuer = "wrong"
	other, _ := NewJWTUtil(wrongIss)
	tok, _ := other.Issue(1)
	_, err = util.Parse(tok.Token)
	require.Error(t, err, "expected issuer error")

	wrongAud := hsConfig()
	wrongAud.Audience = "other"
	other, _ = NewJWTUtil(wrongAud)
	tok, _ = other.Issue(1)
	_, err = util.Parse(tok.Token)
	require.Error(t, err, "expected audience error")
}

func TestJWTUtil_InvalidAlg(t *testing.T) {
	util, err := NewJWTUtil(rsaConfig())
	require.NoError(t, err)

	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1", "jti": "x", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("x"))
	_, err = util.Parse(token)
	require.Error(t, err, "expected invalid alg")
}

func TestJWTUtil_MissingClaims(t *testing.T) {
	util, err := NewJWTUtil(hsConfig())
	require.NoError(t, err)
	exp := time.Now().Add(time.Hour).Unix()

	noJTI, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1", "exp": exp, "iss": "test", "aud": "test",
	}).SignedString([]byte("test-secret"))
	_, err = util.Parse(noJTI)
	require.True(t, authErrors.IsInvalidToken(err))

	badSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "abc", "jti": "j", "exp": exp, "iss": "test", "aud": "test",
	}).SignedString([]byte("test-secret"))
	_, err = util.Parse(badSub)
	require.True(t, authErrors.IsInvalidToken(err))

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1", "jti": "j", "iss": "test", "aud": "test",
	}).SignedString([]byte("test-secret"))
	_, err = util.Parse(noExp)
	require.True(t, authErrors.IsInvalidToken(err))
}

func TestNewJWTUtil_Errors(t *testing.T) {
	_, err := NewJWTUtil(&config.Config{})
	require.True(t, authErrors.IsInternal(err))

	_, err = NewJWTUtil(&config.Config{JWTPrivateKeyPath: "testdata/missing.pem", JWTPublicKeyPath: "testdata/pub.pem"})
	require.True(t, authErrors.IsInternal(err))
}
