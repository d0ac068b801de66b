package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	customErrors "github.com/usiug6/auth-service/internal/domain/auth/errors"
	"github.com/usiug6/auth-service/internal/domain/auth/model"
	"github.com/usiug6/auth-service/internal/domain/auth/repo"
	"gorm.io/gorm"
)

type PostgresUserRepo struct {
	db *gorm.DB
}

var _ repo.UserRepo = (*PostgresUserRepo)(nil)

func NewPostgresUserRepo(db *gorm.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// CreateUser relies on the unique index on email; the loser of a concurrent
// registration gets ErrAlreadyExists.
func (p *PostgresUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	res := p.db.WithContext(ctx).Create(user)
	if err := res.Error; err != nil {
		if isUniqueViolation(err) {
			return customErrors.ErrAlreadyExists
		}
		return customErrors.WrapInternal(err, "CreateUser")
	}
	return nil
}

func (p *PostgresUserRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return p.first(ctx, "GetUserByEmail", "email = ?", email)
}

func (p *PostgresUserRepo) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return p.first(ctx, "GetUserByID", "id = ?", id)
}

func (p *PostgresUserRepo) GetUserByResetToken(ctx context.Context, digest string) (model.User, error) {
	return p.first(ctx, "GetUserByResetToken", "reset_token = ?", digest)
}

func (p *PostgresUserRepo) UpdateUser(ctx context.Context, user model.User) error {
	res := p.db.WithContext(ctx).Save(&user)
	if err := res.Error; err != nil {
		if isUniqueViolation(err) {
			return customErrors.ErrAlreadyExists
		}
		return customErrors.WrapInternal(err, "UpdateUser")
	}
	return nil
}

func (p *PostgresUserRepo) StoreResetToken(ctx context.Context, id int64, digest string, expiresAt time.Time) error {
	res := p.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"reset_token":        digest,
			"reset_token_expiry": expiresAt,
			"updated_at":         time.Now(),
		})
	if res.Error != nil {
		return customErrors.WrapInternal(res.Error, "StoreResetToken")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

func (p *PostgresUserRepo) CompleteReset(ctx context.Context, id int64, digest, passwordHash string) error {
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.User{}).
			Where("id = ? AND reset_token = ?", id, digest).
			Updates(map[string]any{
				"password_hash":      passwordHash,
				"reset_token":        nil,
				"reset_token_expiry": nil,
				"updated_at":         time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return customErrors.ErrInvalidResetToken
		}
		return nil
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, customErrors.ErrInvalidResetToken):
		return err
	default:
		return customErrors.WrapInternal(err, "CompleteReset")
	}
}

func (p *PostgresUserRepo) Ping(ctx context.Context) error {
	return p.db.WithContext(ctx).Exec("SELECT 1").Error
}

func (p *PostgresUserRepo) first(ctx context.Context, op, query string, arg any) (model.User, error) {
	var u model.User
	res := p.db.WithContext(ctx).Where(query, arg).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapInternal(err, op)
	}

	return u, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
