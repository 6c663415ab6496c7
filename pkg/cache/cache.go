// Package cache stores collaborator outputs (generated component lists,
// classifications) so repeated prompts skip the expensive stage.
//
// Three backends share the Cache interface: FileCache for the CLI,
// RedisCache for servers sharing a cache, and NullCache to disable caching.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Cache is a byte store with optional expiry. Get reports a miss with
// ok == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Key builds "prefix:hash" from the JSON encoding of v.
func Key(prefix string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return prefix + ":" + Hash(data), nil
}
