// Package postgres stores pharmacy snapshots in PostgreSQL and announces each
// save through the transactional outbox.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ghuser/pharmacy/pkg/database"
	"github.com/ghuser/pharmacy/pkg/events"
	"github.com/ghuser/pharmacy/pkg/logger"
	"github.com/ghuser/pharmacy/services/pharmacy/domain"
	domainevents "github.com/ghuser/pharmacy/services/pharmacy/domain/events"
	"github.com/ghuser/pharmacy/services/pharmacy/domain/models"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/persistence/snapshot"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/persistence/sqlrepo"
)

// Backend is the backend name reported in SnapshotSavedEvents.
const Backend = "postgres"

// PharmacyRepository implements repositories.PharmacyRepository against PostgreSQL.
type PharmacyRepository struct {
	db     *database.Database
	outbox *events.Outbox
	table  sqlrepo.Table
	log    logger.Logger
}

// NewPharmacyRepository returns a repository backed by the given pool. When
// outbox is non-nil, every Save also writes a SnapshotSavedEvent to the outbox
// inside the same transaction.
func NewPharmacyRepository(db *database.Database, outbox *events.Outbox, log logger.Logger) (*PharmacyRepository, error) {
	if outbox != nil {
		if err := outbox.Initialize(domainevents.TopicSnapshotSaved); err != nil {
			return nil, err
		}
	}
	return &PharmacyRepository{
		db:     db,
		outbox: outbox,
		table:  sqlrepo.NewTable(sqlrepo.DialectPostgres),
		log:    log,
	}, nil
}

// PublishesSnapshotEvents reports whether saves are announced through the outbox.
func (r *PharmacyRepository) PublishesSnapshotEvents() bool {
	return r.outbox != nil
}

// Save persists a snapshot of p and publishes a SnapshotSavedEvent within the same transaction.
// Check constraint violations are returned as validation errors.
func (r *PharmacyRepository) Save(ctx context.Context, p *models.Pharmacy) error {
	if p == nil {
		return domain.NewValidationError("pharmacy", nil, "must not be nil")
	}
	doc := snapshot.Build(p)
	payload, err := snapshot.EncodeDocument(doc)
	if err != nil {
		return err
	}
	row := sqlrepo.NewRow(doc, payload)

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := r.table.Upsert(ctx, tx, row); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23514" {
				return domain.NewValidationError("snapshot", row.Name, pgErr.Message)
			}
			return err
		}

		if r.outbox != nil {
			if err := r.publishSaved(tx, doc, len(payload)); err != nil {
				return fmt.Errorf("publish snapshot saved: %w", err)
			}
		}
		return nil
	})
}

// Load restores the snapshot stored under name. Returns ErrSnapshotNotFound if not found.
func (r *PharmacyRepository) Load(ctx context.Context, name string, seq *models.IDSequence) (*models.Pharmacy, error) {
	payload, err := r.table.Payload(ctx, r.db.DB(), name)
	if err != nil {
		return nil, err
	}
	return snapshot.Decode(payload, seq)
}

// Exists reports whether a snapshot is stored under name.
func (r *PharmacyRepository) Exists(ctx context.Context, name string) (bool, error) {
	return r.table.Exists(ctx, r.db.DB(), name)
}

// Delete removes the snapshot stored under name.
func (r *PharmacyRepository) Delete(ctx context.Context, name string) error {
	ok, err := r.table.Delete(ctx, r.db.DB(), name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, name)
	}
	return nil
}

// List returns the stored pharmacy names.
func (r *PharmacyRepository) List(ctx context.Context) ([]string, error) {
	return r.table.Names(ctx, r.db.DB())
}

// Ping checks the database connection.
func (r *PharmacyRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *PharmacyRepository) publishSaved(tx *sql.Tx, doc snapshot.Document, size int) error {
	event := domainevents.SnapshotSavedEvent{
		EventID:    uuid.New(),
		Version:    1,
		SnapshotID: doc.ID,
		Pharmacy:   doc.Pharmacy.Name,
		Backend:    Backend,
		Medicines:  len(doc.Pharmacy.Medicines),
		Bytes:      size,
		OccurredAt: time.Now().UTC(),
	}
	msg, err := events.NewJSONMessage(event)
	if err != nil {
		return err
	}
	msg.Metadata.Set("event_id", event.EventID.String())
	msg.Metadata.Set("event_version", "1")

	p, err := events.NewTxPublisher(tx, r.log)
	if err != nil {
		return fmt.Errorf("create publisher: %w", err)
	}
	return p.Publish(domainevents.TopicSnapshotSaved, msg)
}
