package repositories

import (
	"context"

	"github.com/ghuser/pharmacy/services/pharmacy/domain/models"
)

// PharmacyRepository is the persistence interface for the Pharmacy aggregate.
// The domain layer owns this interface; infrastructure implements it.
// Snapshots are keyed by pharmacy name.
type PharmacyRepository interface {
	// Save stores a snapshot of p, replacing any previous snapshot under the same name.
	Save(ctx context.Context, p *models.Pharmacy) error

	// Load restores the snapshot stored under name, attaching seq to the result.
	// Returns ErrSnapshotNotFound if nothing is stored under name.
	Load(ctx context.Context, name string, seq *models.IDSequence) (*models.Pharmacy, error)

	// Exists reports whether a snapshot is stored under name.
	Exists(ctx context.Context, name string) (bool, error)

	// Delete removes the snapshot stored under name.
	// Returns ErrSnapshotNotFound if nothing is stored under name.
	Delete(ctx context.Context, name string) error

	// List returns the names of all stored snapshots in ascending order.
	List(ctx context.Context) ([]string, error)
}
