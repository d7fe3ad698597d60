// Package redis wraps go-redis for the few keys this service keeps outside the document store.
package redis

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	gredis "github.com/Laisky/go-redis/v2"
	"github.com/redis/go-redis/v9"
)

// DB is a wrapper for go-redis
type DB struct {
	cli *redis.Client
	db  *gredis.Utils
}

// NewDB creates a new DB instance
func NewDB(opt *redis.Options) *DB {
	rdb := redis.NewClient(opt)
	rutils := gredis.NewRedisUtils(rdb)

	return &DB{
		cli: rdb,
		db:  rutils,
	}
}

// RevokeSession marks tokenID revoked until ttl elapses,
// by then the token has expired on its own
func (db *DB) RevokeSession(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	if err := db.db.SetItem(ctx, KeyPrefixRevokedSession+tokenID, "1", ttl); err != nil {
		return errors.Wrap(err, "set revoked session")
	}

	return nil
}

// IsSessionRevoked reports whether tokenID was revoked
func (db *DB) IsSessionRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := db.cli.Exists(ctx, KeyPrefixRevokedSession+tokenID).Result()
	if err != nil {
		return false, errors.Wrap(err, "check revoked session")
	}

	return n > 0, nil
}

// Close closes the underlying client
func (db *DB) Close() error {
	return errors.Wrap(db.cli.Close(), "close redis")
}
