package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDedupTTL = 24 * time.Hour

// DedupStore remembers caller-supplied idempotency keys.
// Key format: idem:<scope>:<key>
type DedupStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDedupStore creates a DedupStore wrapping the given Redis client.
// Keys expire after ttl, or after defaultDedupTTL when ttl <= 0.
func NewDedupStore(client *redis.Client, ttl time.Duration) *DedupStore {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &DedupStore{client: client, ttl: ttl}
}

// Claim atomically records the key with the request fingerprint and reports
// whether this call was the first. On a repeat it returns the fingerprint of
// the request that claimed the key.
func (d *DedupStore) Claim(ctx context.Context, scope, key, fingerprint string) (bool, string, error) {
	k := d.key(scope, key)
	// Two rounds cover a key that expires between SETNX and GET.
	for i := 0; i < 2; i++ {
		ok, err := d.client.SetNX(ctx, k, fingerprint, d.ttl).Result()
		if err != nil {
			return false, "", fmt.Errorf("dedup claim: %w", err)
		}
		if ok {
			return true, fingerprint, nil
		}
		stored, err := d.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return false, "", fmt.Errorf("dedup lookup: %w", err)
		}
		return false, stored, nil
	}
	return false, "", fmt.Errorf("dedup claim: key %s churned", k)
}

// Release forgets the key so the request can be retried.
func (d *DedupStore) Release(ctx context.Context, scope, key string) error {
	return d.client.Del(ctx, d.key(scope, key)).Err()
}

func (d *DedupStore) key(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}
