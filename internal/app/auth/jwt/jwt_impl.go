package jwt

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	customErrors "github.com/usiug6/auth-service/internal/domain/auth/errors"
	jwt2 "github.com/usiug6/auth-service/internal/domain/auth/jwt"
	"github.com/usiug6/auth-service/internal/domain/auth/model"
	"github.com/usiug6/auth-service/internal/infra/config"
)

type JwtUtilImpl struct {
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	ttl       time.Duration
	issuer    string
	audience  string
	now       func() time.Time
}

var _ jwt2.TokenIssuer = (*JwtUtilImpl)(nil)

// NewJWTUtil signs with RS256 when a key pair is configured and HS256 otherwise.
func NewJWTUtil(cfg *config.Config) (*JwtUtilImpl, error) {
	j := &JwtUtilImpl{
		ttl:      model.AccessTokenTTL,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		now:      time.Now,
	}

	if !cfg.UseRSA() {
		if cfg.JWTSecret == "" {
			return nil, customErrors.WrapInternal(errors.New("empty secret"), "jwt config")
		}
		j.method = jwt.SigningMethodHS256
		j.signKey = []byte(cfg.JWTSecret)
		j.verifyKey = []byte(cfg.JWTSecret)
		return j, nil
	}

	privPem, err := os.ReadFile(cfg.JWTPrivateKeyPath)
	if err != nil {
		return nil, customErrors.WrapInternal(err, "read private key")
	}
	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privPem)
	if err != nil {
		return nil, customErrors.WrapInternal(err, "parse private key")
	}

	pubPem, err := os.ReadFile(cfg.JWTPublicKeyPath)
	if err != nil {
		return nil, customErrors.WrapInternal(err, "read public key")
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubPem)
	if err != nil {
		return nil, customErrors.WrapInternal(err, "parse public key")
	}

	j.method = jwt.SigningMethodRS256
	j.signKey = privKey
	j.verifyKey = pubKey
	return j, nil
}

func (j *JwtUtilImpl) Issue(userID int64) (model.IssuedToken, error) {
	jti := uuid.NewString()
	now := j.now()

	claims := jwt2.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    j.issuer,
			Audience:  jwt.ClaimStrings{j.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(j.method, claims).SignedString(j.signKey)
	if err != nil {
		return model.IssuedToken{}, customErrors.WrapInternal(err, "sign access token")
	}

	return model.IssuedToken{
		Token:     signed,
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Parse rejects bad signatures, foreign algorithms, elapsed expiry, a wrong
// issuer or audience, and tokens without a jti or numeric subject.
func (j *JwtUtilImpl) Parse(raw string) (jwt2.AccessClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{j.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}
	if j.audience != "" {
		opts = append(opts, jwt.WithAudience(j.audience))
	}

	token, err := jwt.ParseWithClaims(raw, &jwt2.AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		return j.verifyKey, nil
	}, opts...)
	if err != nil || !token.Valid {
		return jwt2.AccessClaims{}, customErrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt2.AccessClaims)
	if !ok {
		return jwt2.AccessClaims{}, customErrors.WrapInternal(
			errors.New("claims not AccessClaims"), "Parse",
		)
	}

	if claims.ID == "" {
		return jwt2.AccessClaims{}, customErrors.ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return jwt2.AccessClaims{}, customErrors.ErrInvalidToken
	}

	return *claims, nil
}
