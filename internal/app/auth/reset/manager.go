package reset

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"

	customErrors "github.com/usiug6/auth-service/internal/domain/auth/errors"
	"github.com/usiug6/auth-service/internal/domain/auth/model"
	"github.com/usiug6/auth-service/internal/domain/auth/repo"
)

const tokenBytes = 32

// Manager issues single-use reset tokens. Only the SHA-256 digest of a token
// is stored on the user row.
type Manager struct {
	users repo.UserRepo
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(users repo.UserRepo) *Manager {
	return &Manager{users: users, ttl: model.ResetTokenTTL, now: time.Now}
}

// Issue replaces any earlier token of user and returns the new one. It returns
// ErrNotFound when the user row no longer exists.
func (m *Manager) Issue(ctx context.Context, user model.User) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", customErrors.WrapInternal(err, "generate reset token")
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	err := m.users.StoreResetToken(ctx, user.ID, Digest(token), m.now().Add(m.ttl))
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return "", customErrors.ErrNotFound
	case err != nil:
		return "", customErrors.WrapInternal(err, "store reset token")
	}
	return token, nil
}

// Consume resolves token to its user. The token stays valid until Complete.
func (m *Manager) Consume(ctx context.Context, token string) (model.User, error) {
	user, err := m.users.GetUserByResetToken(ctx, Digest(token))
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.User{}, customErrors.ErrInvalidResetToken
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, "lookup reset token")
	}

	if user.ResetTokenExpiry == nil || !user.ResetTokenExpiry.After(m.now()) {
		return model.User{}, customErrors.ErrExpiredResetToken
	}
	return user, nil
}

// Complete sets the new password hash and clears the token in one write.
func (m *Manager) Complete(ctx context.Context, user model.User, token, passwordHash string) error {
	return m.users.CompleteReset(ctx, user.ID, Digest(token), passwordHash)
}

func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
