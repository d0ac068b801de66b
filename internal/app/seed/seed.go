package seed

import (
	"context"
	"errors"
	"strings"

	customErrors "github.com/usiug6/auth-service/internal/domain/auth/errors"
	"github.com/usiug6/auth-service/internal/domain/auth/model"
	"github.com/usiug6/auth-service/internal/domain/auth/repo"
	lg "github.com/usiug6/auth-service/internal/infra/log"
	"go.uber.org/zap"
)

type Account struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// DemoAccounts are the sign-in credentials shown on the demo login page.
var DemoAccounts = []Account{
	{FirstName: "Demo", LastName: "User", Email: "demo@usiug6.com", Password: "demo1234"},
	{FirstName: "Jane", LastName: "Doe", Email: "user1@example.com", Password: "password123"},
}

type Result struct {
	Email   string
	Created bool
}

// Run creates each account that does not exist yet. Existing accounts are left
// untouched, so running it twice is harmless.
func Run(ctx context.Context, users repo.UserRepo, hasher repo.PasswordHasher, accounts []Account, log *zap.Logger) ([]Result, error) {
	results := make([]Result, 0, len(accounts))
	for _, acc := range accounts {
		email := strings.ToLower(strings.TrimSpace(acc.Email))

		_, err := users.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			log.Info("account exists, skipping", lg.Email(email))
			results = append(results, Result{Email: email})
			continue
		case !errors.Is(err, customErrors.ErrNotFound):
			return results, err
		}

		hash, err := hasher.Hash(acc.Password)
		if err != nil {
			return results, err
		}
		user := model.User{
			FirstName:    acc.FirstName,
			LastName:     acc.LastName,
			Email:        email,
			PasswordHash: hash,
		}
		if err := users.CreateUser(ctx, &user); err != nil {
			// a concurrent seeder got there first
			if errors.Is(err, customErrors.ErrAlreadyExists) {
				results = append(results, Result{Email: email})
				continue
			}
			return results, err
		}
		log.Info("account created", lg.Email(email), zap.Int64("id", user.ID))
		results = append(results, Result{Email: email, Created: true})
	}
	return results, nil
}
