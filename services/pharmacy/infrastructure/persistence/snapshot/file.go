package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ghuser/pharmacy/services/pharmacy/domain"
	"github.com/ghuser/pharmacy/services/pharmacy/domain/models"
	"github.com/ghuser/pharmacy/services/pharmacy/domain/services"
)

// DefaultExtension is the designated snapshot file extension.
const DefaultExtension = ".dat"

// Files saves and loads snapshot files that carry Extension.
type Files struct {
	Extension string
}

// NewFiles returns a Files for ext, falling back to DefaultExtension when ext is empty.
func NewFiles(ext string) Files {
	if ext == "" {
		ext = DefaultExtension
	}
	return Files{Extension: ext}
}

// Save writes the encoded catalog to path in a single write.
// A path with the wrong extension is rejected before anything is written.
func (f Files) Save(p *models.Pharmacy, path string) error {
	if err := services.ValidateSnapshotPath(path, f.Extension); err != nil {
		return err
	}
	data, err := Encode(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}

// Load reads the catalog stored at path.
// Returns ErrSnapshotNotFound if the file does not exist.
func (f Files) Load(path string, seq *models.IDSequence) (*models.Pharmacy, error) {
	if err := services.ValidateSnapshotPath(path, f.Extension); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, path)
		}
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return Decode(data, seq)
}

// SaveToFile writes p to path using DefaultExtension.
func SaveToFile(p *models.Pharmacy, path string) error {
	return NewFiles(DefaultExtension).Save(p, path)
}

// LoadFromFile reads the catalog at path using DefaultExtension.
func LoadFromFile(path string, seq *models.IDSequence) (*models.Pharmacy, error) {
	return NewFiles(DefaultExtension).Load(path, seq)
}
