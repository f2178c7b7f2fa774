// Package sqlite stores pharmacy snapshots in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/ghuser/pharmacy/pkg/migrator"
	"github.com/ghuser/pharmacy/services/pharmacy/domain"
	"github.com/ghuser/pharmacy/services/pharmacy/domain/models"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/persistence/migrations"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/persistence/snapshot"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/persistence/sqlrepo"
)

// PharmacyRepository implements repositories.PharmacyRepository on a SQLite file.
type PharmacyRepository struct {
	db    *sql.DB
	table sqlrepo.Table
}

// Open opens (or creates) the database at path and applies pending migrations.
func Open(path string) (*PharmacyRepository, error) {
	if path == "" {
		path = "pharmacy.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; sqlite serializes anyway and this avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := migrator.Up(db, migrator.DialectSQLite, migrations.SQLite()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PharmacyRepository{db: db, table: sqlrepo.NewTable(sqlrepo.DialectSQLite)}, nil
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
	return r.table.Upsert(ctx, r.db, sqlrepo.NewRow(doc, payload))
}

// Load restores the snapshot stored under name.
func (r *PharmacyRepository) Load(ctx context.Context, name string, seq *models.IDSequence) (*models.Pharmacy, error) {
	payload, err := r.table.Payload(ctx, r.db, name)
	if err != nil {
		return nil, err
	}
	return snapshot.Decode(payload, seq)
}

// Exists reports whether a snapshot is stored under name.
func (r *PharmacyRepository) Exists(ctx context.Context, name string) (bool, error) {
	return r.table.Exists(ctx, r.db, name)
}

// Delete removes the snapshot stored under name.
func (r *PharmacyRepository) Delete(ctx context.Context, name string) error {
	ok, err := r.table.Delete(ctx, r.db, name)
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
	return r.table.Names(ctx, r.db)
}

// Ping checks the database is reachable.
func (r *PharmacyRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SchemaVersion returns the applied migration version.
func (r *PharmacyRepository) SchemaVersion() (int64, error) {
	return migrator.Version(r.db, migrator.DialectSQLite)
}

// Close closes the database.
func (r *PharmacyRepository) Close() error {
	return r.db.Close()
}
