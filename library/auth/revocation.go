package auth

import (
	"context"
	"sync"
	"time"

	gutils "github.com/Laisky/go-utils/v6"

	"github.com/Laisky/laisky-portfolio/library/db/redis"
)

// Revocations remembers signed-out token ids until they expire
type Revocations interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevocations keeps revoked ids in process
type MemoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewMemoryRevocations create in-process revocation list
func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{revoked: map[string]time.Time{}}
}

// Revoke implements Revocations
func (m *MemoryRevocations) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	now := nowUTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, exp := range m.revoked {
		if now.After(exp) {
			delete(m.revoked, id)
		}
	}
	m.revoked[tokenID] = now.Add(ttl)
	return nil
}

// IsRevoked implements Revocations
func (m *MemoryRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.revoked[tokenID]
	return ok && nowUTC().Before(exp), nil
}

// RedisRevocations shares the revocation list across replicas
type RedisRevocations struct {
	db *redis.DB
}

// NewRedisRevocations wrap redis db
func NewRedisRevocations(db *redis.DB) *RedisRevocations {
	return &RedisRevocations{db: db}
}

// Revoke implements Revocations
func (r *RedisRevocations) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return r.db.RevokeSession(ctx, tokenID, ttl)
}

// IsRevoked implements Revocations
func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return r.db.IsSessionRevoked(ctx, tokenID)
}

func nowUTC() time.Time {
	return gutils.Clock.GetUTCNow()
}
