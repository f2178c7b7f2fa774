package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	snapshotKeyPrefix = "pharmacy:snapshot"
	snapshotIndexKey  = "pharmacy:snapshots"
)

// ErrSnapshotMissing is returned by SnapshotCache.Get when nothing is stored under the key.
var ErrSnapshotMissing = errors.New("cache: snapshot missing")

// CachedSnapshot is an encoded snapshot plus the metadata listed without decoding it.
// Fields are stored as a Redis hash.
type CachedSnapshot struct {
	Name      string
	Payload   []byte
	Medicines int
	SavedAt   time.Time
}

// SnapshotCache stores encoded pharmacy snapshots in Redis hashes and keeps a
// set of stored names for listing.
// Key format: "pharmacy:snapshot:{lower(name)}"
type SnapshotCache struct {
	client *RedisClient
	ttl    time.Duration
}

// NewSnapshotCache creates a SnapshotCache backed by the given RedisClient.
// A zero ttl keeps snapshots until they are deleted.
func NewSnapshotCache(r *RedisClient, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: r, ttl: ttl}
}

// Get retrieves the snapshot stored under name.
// Returns ErrSnapshotMissing when the key does not exist or has expired.
func (c *SnapshotCache) Get(ctx context.Context, name string) (*CachedSnapshot, error) {
	vals, err := c.client.Client().HGetAll(ctx, c.key(name)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if len(vals) == 0 {
		return nil, ErrSnapshotMissing
	}

	medicines, err := strconv.Atoi(vals["medicines"])
	if err != nil {
		return nil, fmt.Errorf("cache parse medicines: %w", err)
	}
	savedAt, err := time.Parse(time.RFC3339Nano, vals["saved_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse saved_at: %w", err)
	}

	return &CachedSnapshot{
		Name:      vals["name"],
		Payload:   []byte(vals["payload"]),
		Medicines: medicines,
		SavedAt:   savedAt,
	}, nil
}

// Set writes a snapshot hash and indexes its name.
// Uses a transactional pipeline so the hash, TTL and index change together.
func (c *SnapshotCache) Set(ctx context.Context, s *CachedSnapshot) error {
	key := c.key(s.Name)
	pipe := c.client.Client().TxPipeline()
	pipe.HSet(ctx, key,
		"name", s.Name,
		"payload", s.Payload,
		"medicines", s.Medicines,
		"saved_at", s.SavedAt.UTC().Format(time.RFC3339Nano),
	)
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}
	pipe.SAdd(ctx, snapshotIndexKey, strings.ToLower(s.Name))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Exists reports whether a snapshot is stored under name.
func (c *SnapshotCache) Exists(ctx context.Context, name string) (bool, error) {
	n, err := c.client.Client().Exists(ctx, c.key(name)).Result()
	if err != nil {
		return false, fmt.Errorf("cache exists: %w", err)
	}
	return n > 0, nil
}

// Delete removes a snapshot and reports whether one was stored.
func (c *SnapshotCache) Delete(ctx context.Context, name string) (bool, error) {
	pipe := c.client.Client().TxPipeline()
	del := pipe.Del(ctx, c.key(name))
	pipe.SRem(ctx, snapshotIndexKey, strings.ToLower(name))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("cache delete: %w", err)
	}
	return del.Val() > 0, nil
}

// Names returns the stored name of every indexed snapshot whose hash still exists.
// Index entries of expired hashes are pruned.
func (c *SnapshotCache) Names(ctx context.Context) ([]string, error) {
	rdb := c.client.Client()
	members, err := rdb.SMembers(ctx, snapshotIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("cache list: %w", err)
	}
	names := make([]string, 0, len(members))
	for _, member := range members {
		name, err := rdb.HGet(ctx, c.key(member), "name").Result()
		if errors.Is(err, redis.Nil) {
			_ = rdb.SRem(ctx, snapshotIndexKey, member).Err()
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("cache list %s: %w", member, err)
		}
		names = append(names, name)
	}
	return names, nil
}

// key builds the Redis key: "pharmacy:snapshot:{lower(name)}"
func (c *SnapshotCache) key(name string) string {
	return fmt.Sprintf("%s:%s", snapshotKeyPrefix, strings.ToLower(name))
}
