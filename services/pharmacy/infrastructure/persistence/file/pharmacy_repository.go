// Package file stores one snapshot file per pharmacy in a directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/ghuser/pharmacy/services/pharmacy/domain"
	"github.com/ghuser/pharmacy/services/pharmacy/domain/models"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/persistence/snapshot"
)

// PharmacyRepository implements repositories.PharmacyRepository on a directory
// of "<slug><ext>" files.
type PharmacyRepository struct {
	dir   string
	files snapshot.Files
}

// NewPharmacyRepository creates dir if needed. An empty ext uses snapshot.DefaultExtension.
func NewPharmacyRepository(dir, ext string) (*PharmacyRepository, error) {
	if dir == "" {
		return nil, domain.NewValidationError("snapshot_dir", dir, "must not be empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &PharmacyRepository{dir: dir, files: snapshot.NewFiles(ext)}, nil
}

// Path returns the file that holds the snapshot for name.
func (r *PharmacyRepository) Path(name string) string {
	return filepath.Join(r.dir, slug(name)+r.files.Extension)
}

// Save writes a snapshot of p, replacing the file for the same name.
func (r *PharmacyRepository) Save(_ context.Context, p *models.Pharmacy) error {
	if p == nil {
		return domain.NewValidationError("pharmacy", nil, "must not be nil")
	}
	return r.files.Save(p, r.Path(p.Name()))
}

// Load restores the snapshot for name. A file whose stored name differs
// (another name with the same slug) counts as missing.
func (r *PharmacyRepository) Load(_ context.Context, name string, seq *models.IDSequence) (*models.Pharmacy, error) {
	p, err := r.files.Load(r.Path(name), seq)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(p.Name(), name) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, name)
	}
	return p, nil
}

// Exists reports whether the snapshot file for name exists and holds name.
func (r *PharmacyRepository) Exists(_ context.Context, name string) (bool, error) {
	data, err := os.ReadFile(r.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read snapshot: %w", err)
	}
	doc, err := snapshot.DecodeDocument(data)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(doc.Pharmacy.Name, name), nil
}

// Delete removes the snapshot file for name.
func (r *PharmacyRepository) Delete(ctx context.Context, name string) error {
	found, err := r.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, name)
	}
	if err := os.Remove(r.Path(name)); err != nil {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return nil
}

// List returns the pharmacy names recorded in the directory's snapshot files.
// Files that do not decode are skipped.
func (r *PharmacyRepository) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), r.files.Extension) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(r.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read snapshot %s: %w", e.Name(), err)
		}
		doc, err := snapshot.DecodeDocument(data)
		if err != nil {
			continue
		}
		names = append(names, doc.Pharmacy.Name)
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names, nil
}

// Ping checks the snapshot directory is still present.
func (r *PharmacyRepository) Ping(_ context.Context) error {
	info, err := os.Stat(r.dir)
	if err != nil {
		return fmt.Errorf("snapshot dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("snapshot dir %s is not a directory", r.dir)
	}
	return nil
}

// slug lowercases name and replaces anything but letters and digits with '_'.
func slug(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return '_'
	}, name)
}
