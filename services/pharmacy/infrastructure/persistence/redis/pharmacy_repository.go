// Package redis stores pharmacy snapshots as Redis hashes.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ghuser/pharmacy/pkg/cache"
	"github.com/ghuser/pharmacy/services/pharmacy/domain"
	"github.com/ghuser/pharmacy/services/pharmacy/domain/models"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/persistence/snapshot"
)

// PharmacyRepository implements repositories.PharmacyRepository on a SnapshotCache.
type PharmacyRepository struct {
	client *cache.RedisClient
	cache  *cache.SnapshotCache
}

// NewPharmacyRepository stores snapshots through client. A zero ttl keeps
// snapshots until deleted.
func NewPharmacyRepository(client *cache.RedisClient, ttl time.Duration) *PharmacyRepository {
	return &PharmacyRepository{client: client, cache: cache.NewSnapshotCache(client, ttl)}
}

// Save stores a snapshot of p, replacing the one under the same name.
func (r *PharmacyRepository) Save(ctx context.Context, p *models.Pharmacy) error {
	if p == nil {
		return domain.NewValidationError("pharmacy", nil, "must not be nil")
	}
	doc := snapshot.Build(p)
	payload, err := snapshot.EncodeDocument(doc)
	if err != nil {
		return err
	}
	return r.cache.Set(ctx, &cache.CachedSnapshot{
		Name:      doc.Pharmacy.Name,
		Payload:   payload,
		Medicines: len(doc.Pharmacy.Medicines),
		SavedAt:   doc.SavedAt,
	})
}

// Load restores the snapshot stored under name.
func (r *PharmacyRepository) Load(ctx context.Context, name string, seq *models.IDSequence) (*models.Pharmacy, error) {
	cached, err := r.cache.Get(ctx, name)
	if err != nil {
		if errors.Is(err, cache.ErrSnapshotMissing) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, name)
		}
		return nil, err
	}
	return snapshot.Decode(cached.Payload, seq)
}

// Exists reports whether a snapshot is stored under name.
func (r *PharmacyRepository) Exists(ctx context.Context, name string) (bool, error) {
	return r.cache.Exists(ctx, name)
}

// Delete removes the snapshot stored under name.
func (r *PharmacyRepository) Delete(ctx context.Context, name string) error {
	ok, err := r.cache.Delete(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, name)
	}
	return nil
}

// List returns the stored pharmacy names ordered case-insensitively.
func (r *PharmacyRepository) List(ctx context.Context) ([]string, error) {
	names, err := r.cache.Names(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names, nil
}

// Ping checks the Redis connection.
func (r *PharmacyRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}
