package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pharmacy domain. Use errors.Is() to check these.
var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientStock matches every *InsufficientStockError.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrPolicy matches every *PolicyError.
	ErrPolicy = errors.New("operation not allowed")

	// ErrInvalidArgument indicates a caller-supplied argument was rejected outright,
	// such as a snapshot path with the wrong extension.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMedicineNotFound indicates the requested medicine is not in the catalog.
	ErrMedicineNotFound = errors.New("medicine not found")

	// ErrSupplierNotFound indicates the requested supplier is not registered.
	ErrSupplierNotFound = errors.New("supplier not found")

	// ErrSnapshotNotFound indicates no snapshot is stored under the requested key.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrCatalogClosed indicates the catalog has been torn down.
	ErrCatalogClosed = errors.New("catalog closed")
)

// Policy rules reported by PolicyError.
const (
	RuleUnregisteredSupplier = "unregistered_supplier"
	RuleUnsuppliedMedicine   = "unsupplied_medicine"
	RuleSnapshotExtension    = "snapshot_extension"
)

// ValidationError reports a malformed or out-of-range field value.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field string, value any, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s: %v", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// InsufficientStockError is returned when a sale asks for more than is on hand.
type InsufficientStockError struct {
	Medicine  string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock of %s (available: %d, requested: %d)",
		e.Medicine, e.Available, e.Requested)
}

// Is reports whether target is ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// PolicyError reports a business rule violation that is not about a single field.
type PolicyError struct {
	Rule   string
	Detail string
}

// NewPolicyError builds a PolicyError for rule.
func NewPolicyError(rule, detail string) *PolicyError {
	return &PolicyError{Rule: rule, Detail: detail}
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("operation not allowed (%s): %s", e.Rule, e.Detail)
}

// Is reports whether target is ErrPolicy. Extension violations also match ErrInvalidArgument.
func (e *PolicyError) Is(target error) bool {
	switch target {
	case ErrPolicy:
		return true
	case ErrInvalidArgument:
		return e.Rule == RuleSnapshotExtension
	}
	return false
}
