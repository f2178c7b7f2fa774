package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ghuser/pharmacy/services/pharmacy/domain"
)

// Pharmacy is the catalog aggregate: an insertion-ordered list of medicines,
// a directory of registered suppliers and an activity log.
type Pharmacy struct {
	name      string
	medicines []*Medicine
	suppliers *Directory[*Supplier]
	records   []Record
	seq       *IDSequence
	closed    bool
}

// NewPharmacy returns an empty catalog. seq is used whenever the catalog has
// to construct a medicine itself, e.g. on a supplier restock.
func NewPharmacy(seq *IDSequence, name string) (*Pharmacy, error) {
	if seq == nil {
		return nil, domain.NewValidationError("sequence", nil, "must not be nil")
	}
	if err := ValidateLabel("pharmacy name", name); err != nil {
		return nil, err
	}
	return &Pharmacy{
		name:      name,
		suppliers: NewDirectory[*Supplier](),
		seq:       seq,
	}, nil
}

// Name returns the pharmacy name.
func (p *Pharmacy) Name() string { return p.name }

// Sequence returns the id sequence the catalog draws from.
func (p *Pharmacy) Sequence() *IDSequence { return p.seq }

// Closed reports whether Close has been called.
func (p *Pharmacy) Closed() bool { return p.closed }

// SetName replaces the pharmacy name after validation.
func (p *Pharmacy) SetName(name string) error {
	if err := ValidateLabel("pharmacy name", name); err != nil {
		return err
	}
	p.name = name
	return nil
}

// AddMedicine appends m to the catalog and logs an AddMedicine record.
// Duplicate names are allowed.
func (p *Pharmacy) AddMedicine(m *Medicine) (string, error) {
	if m == nil {
		return "", domain.NewValidationError("medicine", nil, "must not be nil")
	}
	if m.Closed() {
		return "", domain.NewValidationError("medicine", m.Name(), "is closed")
	}
	p.medicines = append(p.medicines, m)
	p.log(RecordAddMedicine, fmt.Sprintf("id=%d name=%s", m.ID(), m.Name()))
	return "added: " + m.Name(), nil
}

// RemoveMedicine removes m by identity. Removing a medicine that is not in
// the catalog does nothing and reports false.
func (p *Pharmacy) RemoveMedicine(m *Medicine) bool {
	i := slices.Index(p.medicines, m)
	if m == nil || i < 0 {
		return false
	}
	p.medicines = slices.Delete(p.medicines, i, i+1)
	p.log(RecordRemoveMedicine, fmt.Sprintf("id=%d name=%s", m.ID(), m.Name()))
	return true
}

// FindByName returns the first medicine whose name matches, ignoring case.
func (p *Pharmacy) FindByName(name string) (*Medicine, bool) {
	for _, m := range p.medicines {
		if strings.EqualFold(m.Name(), name) {
			return m, true
		}
	}
	return nil, false
}

// SellMedicine finds name and sells amount units of it.
// Returns ErrMedicineNotFound if the catalog has no such medicine.
func (p *Pharmacy) SellMedicine(name string, amount int) (bool, error) {
	m, ok := p.FindByName(name)
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrMedicineNotFound, name)
	}
	return m.Sell(amount)
}

// Medicines returns the catalog contents in insertion order.
func (p *Pharmacy) Medicines() []*Medicine {
	return slices.Clone(p.medicines)
}

// Transactions returns a copy of the activity log.
func (p *Pharmacy) Transactions() []Record {
	return slices.Clone(p.records)
}

// Suppliers returns the registered suppliers in registration order.
func (p *Pharmacy) Suppliers() []*Supplier {
	return p.suppliers.All()
}

// Supplier returns the registered supplier called name.
func (p *Pharmacy) Supplier(name string) (*Supplier, bool) {
	return p.suppliers.Get(name)
}

// RegisterSupplier adds s to the supplier directory. Registering a supplier
// under a name that is already taken replaces the previous entry.
func (p *Pharmacy) RegisterSupplier(s *Supplier) (string, error) {
	if s == nil {
		return "", domain.NewValidationError("supplier", nil, "must not be nil")
	}
	p.suppliers.Put(s)
	p.log(RecordRegisterSupplier, "name="+s.Name())
	return "registered supplier: " + s.Name(), nil
}

// RestockFromSupplier receives quantity units of medicineName from s.
// s must be the registered supplier under its name and must supply the medicine.
// An existing medicine is restocked; otherwise a new one is created at price 0
// with DefaultExpiryDate.
func (p *Pharmacy) RestockFromSupplier(s *Supplier, medicineName string, quantity int) (string, error) {
	if s == nil {
		return "", domain.NewPolicyError(domain.RuleUnregisteredSupplier, "no supplier given")
	}
	if registered, ok := p.suppliers.Get(s.Name()); !ok || registered != s {
		return "", domain.NewPolicyError(domain.RuleUnregisteredSupplier,
			fmt.Sprintf("%s is not registered with %s", s.Name(), p.name))
	}
	if !s.Supplies(medicineName) {
		return "", domain.NewPolicyError(domain.RuleUnsuppliedMedicine,
			fmt.Sprintf("%s does not supply %s", s.Name(), medicineName))
	}
	if quantity <= 0 {
		return "", domain.NewValidationError("restock amount", quantity, "must be positive")
	}

	m, ok := p.FindByName(medicineName)
	if ok {
		if err := m.Restock(quantity); err != nil {
			return "", err
		}
		if m.Supplier() == nil {
			m.supplier = s
		}
	} else {
		created, err := NewMedicine(p.seq, medicineName, 0, quantity, DefaultExpiryDate.String())
		if err != nil {
			return "", err
		}
		created.supplier = s
		if _, err := p.AddMedicine(created); err != nil {
			return "", err
		}
		m = created
	}

	p.log(RecordSupplierRestock, fmt.Sprintf("supplier=%s medicine=%s amount=%d", s.Name(), m.Name(), quantity))
	return fmt.Sprintf("restocked %d units of %s from %s", quantity, m.Name(), s.Name()), nil
}

// AssignSupplier links a catalog medicine to a registered supplier and adds the
// medicine to the supplier's list when it is not there yet.
func (p *Pharmacy) AssignSupplier(medicineName, supplierName string) error {
	m, ok := p.FindByName(medicineName)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrMedicineNotFound, medicineName)
	}
	s, ok := p.suppliers.Get(supplierName)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSupplierNotFound, supplierName)
	}
	if !s.Supplies(m.Name()) {
		if _, err := s.AddSuppliedMedicine(m.Name()); err != nil {
			return err
		}
	}
	m.supplier = s
	return nil
}

// Close records the teardown on sink exactly once. It does not close the
// medicines; callers that own them close them first.
func (p *Pharmacy) Close(sink TeardownSink) {
	if p.closed {
		return
	}
	p.closed = true
	if sink == nil {
		return
	}
	_ = sink.Record("pharmacy deleted", "name", p.name, "medicines", len(p.medicines))
}

func (p *Pharmacy) String() string {
	return fmt.Sprintf("Pharmacy: %s, medicines: %d, suppliers: %d", p.name, len(p.medicines), p.suppliers.Len())
}

func (p *Pharmacy) log(kind RecordKind, details string) {
	p.records = append(p.records, Record{At: time.Now().UTC(), Kind: kind, Details: details})
}
