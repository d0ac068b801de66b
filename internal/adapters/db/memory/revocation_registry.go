package memory

import (
	"context"
	"sync"
	"time"

	"github.com/usiug6/auth-service/internal/domain/auth/repo"
	"go.uber.org/zap"
)

// RevocationRegistry is a process-local set of revoked token ids. Each entry
// remembers when its token expires so Sweep can drop it afterwards.
type RevocationRegistry struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	now     func() time.Time
}

var _ repo.RevocationRepo = (*RevocationRegistry)(nil)

func NewRevocationRegistry() *RevocationRegistry {
	return &RevocationRegistry{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (r *RevocationRegistry) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.revoked[jti]; !ok || expiresAt.After(cur) {
		r.revoked[jti] = expiresAt
	}
	return nil
}

func (r *RevocationRegistry) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.RLock()
	_, ok := r.revoked[jti]
	r.mu.RUnlock()
	return ok, nil
}

func (r *RevocationRegistry) Ping(context.Context) error { return nil }

func (r *RevocationRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.revoked)
}

// Sweep removes entries whose token has expired and returns how many went.
func (r *RevocationRegistry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for jti, exp := range r.revoked {
		if !exp.After(now) {
			delete(r.revoked, jti)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (r *RevocationRegistry) Run(ctx context.Context, interval time.Duration, log *zap.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				log.Debug("revocation sweep", zap.Int("removed", n), zap.Int("remaining", r.Len()))
			}
		}
	}
}
