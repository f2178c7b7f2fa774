// Package services contains stateless domain services for the pharmacy bounded context.
// Domain services enforce business rules that operate purely on domain types
// and have zero external dependencies beyond stdlib and the domain layer.
package services

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ghuser/pharmacy/services/pharmacy/domain"
	"github.com/ghuser/pharmacy/services/pharmacy/domain/models"
)

// ValidateName enforces the naming rules for medicine, supplier and pharmacy
// names. The model constructors and setters apply the same rules.
//
// Business rules:
//   - Length 1 to 255 bytes
//   - No leading or trailing whitespace
//   - No control characters (Unicode category Cc)
//   - No consecutive spaces
//   - Must not be only whitespace characters
func ValidateName(field, s string) error {
	return models.ValidateLabel(field, s)
}

// ValidateMedicineForCatalog performs cross-field validation on a fully-constructed
// Medicine before it is added to a catalog. It assumes the Medicine was built via
// models.NewMedicine (so structural constraints are already satisfied).
func ValidateMedicineForCatalog(m *models.Medicine) error {
	if m == nil {
		return domain.NewValidationError("medicine", nil, "cannot be nil")
	}

	if err := ValidateName("name", m.Name()); err != nil {
		return fmt.Errorf("invalid medicine: %w", err)
	}

	if m.ID() < 1 {
		return domain.NewValidationError("id", m.ID(), "must be set")
	}

	if m.Closed() {
		return domain.NewValidationError("medicine", m.Name(), "has been closed")
	}

	return nil
}

// ValidateSnapshotPath checks that path names a file with the snapshot
// extension ext (compared case-insensitively). A wrong extension is a
// *domain.PolicyError that also matches domain.ErrInvalidArgument.
func ValidateSnapshotPath(path, ext string) error {
	if strings.TrimSpace(path) == "" {
		return domain.NewValidationError("snapshot path", path, "must not be empty")
	}
	if got := filepath.Ext(path); !strings.EqualFold(got, ext) {
		return domain.NewPolicyError(domain.RuleSnapshotExtension,
			fmt.Sprintf("%s must have the %s extension", path, ext))
	}
	return nil
}
