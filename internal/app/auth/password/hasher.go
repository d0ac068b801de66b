package password

import (
	"errors"
	"strings"

	"github.com/alexedwards/argon2id"
	customErrors "github.com/usiug6/auth-service/internal/domain/auth/errors"
	"github.com/usiug6/auth-service/internal/domain/auth/repo"
	"golang.org/x/crypto/bcrypt"
)

var DefaultParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher produces argon2id hashes. Hashes written by the bcrypt-based
// predecessor ("$2a$", "$2b$", "$2y$") are still accepted by Verify; they were
// created without the pepper.
type Hasher struct {
	pepper string
	params *argon2id.Params
}

var _ repo.PasswordHasher = (*Hasher)(nil)

func New(pepper string, params *argon2id.Params) *Hasher {
	if params == nil {
		params = DefaultParams
	}
	return &Hasher{pepper: pepper, params: params}
}

func (h *Hasher) Hash(plain string) (string, error) {
	hash, err := argon2id.CreateHash(plain+h.pepper, h.params)
	if err != nil {
		return "", customErrors.WrapInternal(err, "hash password")
	}
	return hash, nil
}

func (h *Hasher) Verify(plain, hash string) (bool, error) {
	if IsLegacy(hash) {
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, customErrors.WrapInternal(err, "verify legacy password")
		}
	}

	ok, err := argon2id.ComparePasswordAndHash(plain+h.pepper, hash)
	if err != nil {
		return false, customErrors.WrapInternal(err, "verify password")
	}
	return ok, nil
}

// IsLegacy reports whether hash is a bcrypt hash.
func IsLegacy(hash string) bool {
	return strings.HasPrefix(hash, "$2")
}
