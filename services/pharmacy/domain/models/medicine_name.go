package models

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ghuser/pharmacy/services/pharmacy/domain"
)

// MedicineName is a value object representing a valid medicine name.
// Encapsulates the label rules enforced by ValidateLabel.
type MedicineName string

const (
	minNameLength = 1
	maxNameLength = 255
)

// NewMedicineName constructs a valid MedicineName or returns a *domain.ValidationError.
func NewMedicineName(s string) (MedicineName, error) {
	if err := ValidateLabel("name", s); err != nil {
		return "", err
	}
	return MedicineName(s), nil
}

// String returns the underlying string value.
func (n MedicineName) String() string {
	return string(n)
}

// ValidateLabel applies the name rules shared by medicines, pharmacies and
// suppliers: 1 to 255 bytes, no leading or trailing whitespace, no control
// characters and no consecutive spaces.
func ValidateLabel(field, s string) error {
	if len(s) < minNameLength {
		return domain.NewValidationError(field, s, "must not be empty")
	}
	if len(s) > maxNameLength {
		return domain.NewValidationError(field, len(s), "must not exceed 255 characters")
	}
	if strings.TrimSpace(s) == "" {
		return domain.NewValidationError(field, s, "must not be blank")
	}
	if s != strings.TrimSpace(s) {
		return domain.NewValidationError(field, s, "must not have leading or trailing whitespace")
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return domain.NewValidationError(field, fmt.Sprintf("%q", s), "must not contain control characters")
		}
	}
	if strings.Contains(s, "  ") {
		return domain.NewValidationError(field, s, "must not contain consecutive spaces")
	}
	return nil
}
