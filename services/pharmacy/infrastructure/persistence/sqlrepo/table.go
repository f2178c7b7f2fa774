// Package sqlrepo holds the pharmacy_snapshots queries shared by the SQL backends.
package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration

	"github.com/ghuser/pharmacy/services/pharmacy/domain"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/persistence/snapshot"
)

// Dialect names understood by NewTable.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

const (
	tableName     = "pharmacy_snapshots"
	colNameKey    = "name_key"
	colName       = "name"
	colSnapshotID = "snapshot_id"
	colMedicines  = "medicines"
	colPayload    = "payload"
	colSavedAt    = "saved_at"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Row is one stored snapshot.
type Row struct {
	NameKey    string
	Name       string
	SnapshotID string
	Medicines  int
	Payload    []byte
	SavedAt    time.Time
}

// NewRow builds the row for an encoded document.
func NewRow(doc snapshot.Document, payload []byte) Row {
	return Row{
		NameKey:    Key(doc.Pharmacy.Name),
		Name:       doc.Pharmacy.Name,
		SnapshotID: doc.ID.String(),
		Medicines:  len(doc.Pharmacy.Medicines),
		Payload:    payload,
		SavedAt:    doc.SavedAt,
	}
}

// Key is the case-insensitive primary key for a pharmacy name.
func Key(name string) string {
	return strings.ToLower(name)
}

// Table builds and runs pharmacy_snapshots statements for one dialect.
type Table struct {
	dialect goqu.DialectWrapper
}

// NewTable returns a Table for dialect.
func NewTable(dialect string) Table {
	return Table{dialect: goqu.Dialect(dialect)}
}

// Upsert inserts row or replaces the snapshot stored under the same key.
func (t Table) Upsert(ctx context.Context, q Querier, row Row) error {
	query, args, err := t.dialect.Insert(tableName).
		Rows(goqu.Record{
			colNameKey:    row.NameKey,
			colName:       row.Name,
			colSnapshotID: row.SnapshotID,
			colMedicines:  row.Medicines,
			colPayload:    row.Payload,
			colSavedAt:    row.SavedAt,
		}).
		OnConflict(goqu.DoUpdate(colNameKey, goqu.Record{
			colName:       goqu.I("excluded." + colName),
			colSnapshotID: goqu.I("excluded." + colSnapshotID),
			colMedicines:  goqu.I("excluded." + colMedicines),
			colPayload:    goqu.I("excluded." + colPayload),
			colSavedAt:    goqu.I("excluded." + colSavedAt),
		})).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// Payload returns the encoded snapshot stored under name.
// Returns ErrSnapshotNotFound if there is none.
func (t Table) Payload(ctx context.Context, q Querier, name string) ([]byte, error) {
	query, args, err := t.dialect.From(tableName).
		Select(colPayload).
		Where(goqu.C(colNameKey).Eq(Key(name))).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var payload []byte
	if err := q.QueryRowContext(ctx, query, args...).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, name)
		}
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	return payload, nil
}

// Exists reports whether a snapshot is stored under name.
func (t Table) Exists(ctx context.Context, q Querier, name string) (bool, error) {
	query, args, err := t.dialect.From(tableName).
		Select(goqu.COUNT("*")).
		Where(goqu.C(colNameKey).Eq(Key(name))).
		Prepared(true).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build count: %w", err)
	}

	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("count snapshots: %w", err)
	}
	return n > 0, nil
}

// Delete removes the snapshot stored under name and reports whether one existed.
func (t Table) Delete(ctx context.Context, q Querier, name string) (bool, error) {
	query, args, err := t.dialect.Delete(tableName).
		Where(goqu.C(colNameKey).Eq(Key(name))).
		Prepared(true).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build delete: %w", err)
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete snapshot: %w", err)
	}
	return n > 0, nil
}

// Names returns the stored pharmacy names ordered by key.
func (t Table) Names(ctx context.Context, q Querier) ([]string, error) {
	query, args, err := t.dialect.From(tableName).
		Select(colName).
		Order(goqu.C(colNameKey).Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan snapshot name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return names, nil
}
