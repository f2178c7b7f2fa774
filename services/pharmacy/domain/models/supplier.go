package models

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ghuser/pharmacy/services/pharmacy/domain"
)

// Supplier is an external party that delivers a list of medicines by name.
type Supplier struct {
	name     string
	contact  string
	supplies []string
}

// NewSupplier validates name and contact.
func NewSupplier(name, contact string) (*Supplier, error) {
	if err := ValidateLabel("supplier name", name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(contact) == "" {
		return nil, domain.NewValidationError("supplier contact", contact, "must not be empty")
	}
	return &Supplier{name: name, contact: contact}, nil
}

// Name returns the supplier name.
func (s *Supplier) Name() string { return s.name }

// Contact returns the contact string, typically a phone number.
func (s *Supplier) Contact() string { return s.contact }

// AddSuppliedMedicine appends name to the supply list.
func (s *Supplier) AddSuppliedMedicine(name string) (string, error) {
	if err := ValidateLabel("supplied medicine", name); err != nil {
		return "", err
	}
	s.supplies = append(s.supplies, name)
	return fmt.Sprintf("%s added to the supply list of %s", name, s.name), nil
}

// Supplies reports whether name is on the supply list, ignoring case.
func (s *Supplier) Supplies(name string) bool {
	return slices.ContainsFunc(s.supplies, func(v string) bool {
		return strings.EqualFold(v, name)
	})
}

// SuppliedMedicines returns a copy of the supply list.
func (s *Supplier) SuppliedMedicines() []string {
	return slices.Clone(s.supplies)
}

func (s *Supplier) String() string {
	return fmt.Sprintf("Supplier: %s, contact: %s", s.name, s.contact)
}
