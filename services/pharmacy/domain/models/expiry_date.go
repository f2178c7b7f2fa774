package models

import (
	"regexp"

	"github.com/ghuser/pharmacy/services/pharmacy/domain"
)

// DefaultExpiryDate is used for medicines created implicitly by a supplier restock.
const DefaultExpiryDate ExpiryDate = "2025-12-31"

var expiryDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ExpiryDate holds a YYYY-MM-DD string. Only the shape is checked; the value
// is stored as given and never interpreted as a calendar date.
type ExpiryDate string

// NewExpiryDate constructs an ExpiryDate or returns a *domain.ValidationError.
func NewExpiryDate(s string) (ExpiryDate, error) {
	if !expiryDatePattern.MatchString(s) {
		return "", domain.NewValidationError("expiry date", s, "must have the form YYYY-MM-DD")
	}
	return ExpiryDate(s), nil
}

// String returns the underlying string value.
func (d ExpiryDate) String() string {
	return string(d)
}
