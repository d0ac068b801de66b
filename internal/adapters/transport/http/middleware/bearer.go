package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/usiug6/auth-service/internal/adapters/transport/http/dto"
)

const tokenKey = "bearer_token"

// BearerToken extracts "Authorization: Bearer <token>" and aborts with 401
// when the header is missing or malformed. Token validation happens later.
func BearerToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := ParseBearer(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Missing Authorization Header"})
			return
		}
		c.Set(tokenKey, token)
		c.Next()
	}
}

// Token returns the value stored by BearerToken.
func Token(c *gin.Context) string {
	return c.GetString(tokenKey)
}

// ParseBearer returns the token of a "Bearer <token>" header value.
func ParseBearer(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
