package repo

import (
	"context"
	"time"

	"github.com/usiug6/auth-service/internal/domain/auth/model"
)

type UserRepo interface {
	CreateUser(ctx context.Context, u *model.User) error

	GetUserByEmail(ctx context.Context, email string) (model.User, error)

	GetUserByID(ctx context.Context, id int64) (model.User, error)

	GetUserByResetToken(ctx context.Context, digest string) (model.User, error)

	// UpdateUser saves every column of u. The reset flow never calls it; it
	// goes through StoreResetToken and CompleteReset so concurrent requests
	// cannot overwrite each other's columns.
	UpdateUser(ctx context.Context, u model.User) error

	// StoreResetToken overwrites the reset digest and expiry of one user,
	// leaving every other column alone.
	StoreResetToken(ctx context.Context, id int64, digest string, expiresAt time.Time) error

	// CompleteReset swaps the password hash and clears the reset fields in one
	// write, provided the stored digest still matches.
	CompleteReset(ctx context.Context, id int64, digest, passwordHash string) error

	Ping(ctx context.Context) error
}

type RevocationRepo interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error

	IsRevoked(ctx context.Context, jti string) (bool, error)

	Ping(ctx context.Context) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)

	Verify(plain, hash string) (bool, error)
}

// ResetNotifier delivers a password-reset token to the account owner.
type ResetNotifier interface {
	SendResetLink(ctx context.Context, user model.User, token string) error
}
