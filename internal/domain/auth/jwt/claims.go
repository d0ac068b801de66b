package jwt

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/usiug6/auth-service/internal/domain/auth/model"
)

type AccessClaims struct {
	jwt.RegisteredClaims
}

// UserID decodes the subject claim.
func (c AccessClaims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

type TokenIssuer interface {
	Issue(userID int64) (model.IssuedToken, error)
	Parse(token string) (AccessClaims, error)
}
