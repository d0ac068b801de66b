package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/usiug6/auth-service/internal/adapters/transport/http/dto"
	"github.com/usiug6/auth-service/internal/app/auth/reset"
	customErrors "github.com/usiug6/auth-service/internal/domain/auth/errors"
	"github.com/usiug6/auth-service/internal/domain/auth/jwt"
	"github.com/usiug6/auth-service/internal/domain/auth/model"
	"github.com/usiug6/auth-service/internal/domain/auth/repo"
	lg "github.com/usiug6/auth-service/internal/infra/log"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	defaultNotifyTimeout = 30 * time.Second
	maxPendingNotices    = 64
)

type Service interface {
	Register(context.Context, dto.RegisterDTO) (model.Session, error)
	Login(context.Context, dto.LoginDTO) (model.Session, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (model.User, error)
	VerifyToken(ctx context.Context, token string) (bool, error)
	ForgotPassword(context.Context, dto.ForgotPasswordDTO) error
	ResetPassword(context.Context, dto.ResetPasswordDTO) error
}

type Deps struct {
	Users       repo.UserRepo
	Revocations repo.RevocationRepo
	Tokens      jwt.TokenIssuer
	Hasher      repo.PasswordHasher
	Resets      *reset.Manager
	Notifier    repo.ResetNotifier
	Validator   *validator.Validate
	Log         *zap.Logger

	// NotifyTimeout bounds one background reset-link delivery.
	NotifyTimeout time.Duration
}

type authService struct {
	userRepo    repo.UserRepo
	revocations repo.RevocationRepo
	tokens      jwt.TokenIssuer
	hasher      repo.PasswordHasher
	resets      *reset.Manager
	notifier    repo.ResetNotifier
	v           *validator.Validate
	log         *zap.Logger

	pending       *semaphore.Weighted
	notifyTimeout time.Duration

	// compared against when the email is unknown, so a miss costs one verify too
	dummyHash string
}

func New(d Deps) (Service, error) {
	dummy, err := d.Hasher.Hash("dummy-password-for-timing")
	if err != nil {
		return nil, err
	}
	if d.Validator == nil {
		d.Validator = NewValidator()
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.NotifyTimeout <= 0 {
		d.NotifyTimeout = defaultNotifyTimeout
	}
	return &authService{
		userRepo:    d.Users,
		revocations: d.Revocations,
		tokens:      d.Tokens,
		hasher:      d.Hasher,
		resets:      d.Resets,
		notifier:    d.Notifier,
		v:           d.Validator,
		log:         d.Log,

		pending:       semaphore.NewWeighted(maxPendingNotices),
		notifyTimeout: d.NotifyTimeout,
		dummyHash:     dummy,
	}, nil
}

func (a *authService) Register(ctx context.Context, in dto.RegisterDTO) (model.Session, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)

	if err := a.validate(in); err != nil {
		return model.Session{}, err
	}

	passwordHash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "Register")
	}

	user := model.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: passwordHash,
	}
	if err = a.userRepo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return model.Session{}, customErrors.ErrAlreadyExists
		}
		return model.Session{}, customErrors.WrapInternal(err, "Register")
	}

	return a.issue(user)
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO) (model.Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := a.v.Struct(in); err != nil {
		return model.Session{}, customErrors.NewInvalidArgument("Email and password are required")
	}

	user, err := a.userRepo.GetUserByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		_, _ = a.hasher.Verify(in.Password, a.dummyHash)
		return model.Session{}, customErrors.ErrInvalidCredentials
	case err != nil:
		return model.Session{}, customErrors.WrapInternal(err, "Login")
	}

	ok, err := a.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "Login")
	}
	if !ok {
		return model.Session{}, customErrors.ErrInvalidCredentials
	}

	return a.issue(user)
}

func (a *authService) Logout(ctx context.Context, token string) error {
	claims, err := a.authenticate(ctx, token)
	if err != nil {
		return err
	}

	if err := a.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return customErrors.WrapInternal(err, "Logout")
	}
	return nil
}

func (a *authService) CurrentUser(ctx context.Context, token string) (model.User, error) {
	claims, err := a.authenticate(ctx, token)
	if err != nil {
		return model.User{}, err
	}

	uid, _ := claims.UserID()
	user, err := a.userRepo.GetUserByID(ctx, uid)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.User{}, customErrors.ErrNotFound
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, "CurrentUser")
	}
	return user, nil
}

// VerifyToken reports false with ErrInvalidToken for any token problem,
// including a subject that no longer exists.
func (a *authService) VerifyToken(ctx context.Context, token string) (bool, error) {
	_, err := a.CurrentUser(ctx, token)
	switch {
	case err == nil:
		return true, nil
	case customErrors.IsInternal(err):
		return false, err
	default:
		return false, customErrors.ErrInvalidToken
	}
}

// ForgotPassword succeeds whether or not the email is registered.
func (a *authService) ForgotPassword(ctx context.Context, in dto.ForgotPasswordDTO) error {
	in.Email = normalizeEmail(in.Email)
	if err := a.validate(in); err != nil {
		return err
	}

	user, err := a.userRepo.GetUserByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		a.log.Debug("forgot password for unknown email", lg.Email(in.Email))
		return nil
	case err != nil:
		return customErrors.WrapInternal(err, "ForgotPassword")
	}

	token, err := a.resets.Issue(ctx, user)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		// deleted after the lookup
		a.log.Debug("forgot password for vanished user", lg.Email(in.Email))
		return nil
	case err != nil:
		return err
	}

	a.notify(ctx, user, token)
	return nil
}

// notify delivers the reset link in the background. The response never waits
// on the mail server, and at most maxPendingNotices deliveries run at once.
func (a *authService) notify(ctx context.Context, user model.User, token string) {
	if !a.pending.TryAcquire(1) {
		a.log.Warn("reset link dropped, too many pending deliveries", lg.Email(user.Email))
		return
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.notifyTimeout)
	go func() {
		defer a.pending.Release(1)
		defer cancel()
		if err := a.notifier.SendResetLink(sendCtx, user, token); err != nil {
			a.log.Error("send reset link", lg.Email(user.Email), zap.Error(err))
		}
	}()
}

func (a *authService) ResetPassword(ctx context.Context, in dto.ResetPasswordDTO) error {
	in.Token = strings.TrimSpace(in.Token)
	if err := a.validate(in); err != nil {
		return err
	}

	user, err := a.resets.Consume(ctx, in.Token)
	if err != nil {
		return err
	}

	passwordHash, err := a.hasher.Hash(in.NewPassword)
	if err != nil {
		return customErrors.WrapInternal(err, "ResetPassword")
	}

	return a.resets.Complete(ctx, user, in.Token, passwordHash)
}

// authenticate parses the token, then consults the revocation registry.
func (a *authService) authenticate(ctx context.Context, token string) (jwt.AccessClaims, error) {
	if token == "" {
		return jwt.AccessClaims{}, customErrors.ErrInvalidToken
	}

	claims, err := a.tokens.Parse(token)
	if err != nil {
		if customErrors.IsInternal(err) {
			return jwt.AccessClaims{}, err
		}
		return jwt.AccessClaims{}, customErrors.ErrInvalidToken
	}

	revoked, err := a.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return jwt.AccessClaims{}, customErrors.WrapInternal(err, "IsRevoked")
	}
	if revoked {
		return jwt.AccessClaims{}, customErrors.ErrInvalidToken
	}
	return claims, nil
}

func (a *authService) issue(user model.User) (model.Session, error) {
	tok, err := a.tokens.Issue(user.ID)
	if err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "Issue")
	}
	return model.Session{Token: tok, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
