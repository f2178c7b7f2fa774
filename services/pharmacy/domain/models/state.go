package models

import (
	"slices"

	"github.com/ghuser/pharmacy/services/pharmacy/domain"
)

// MedicineState is the exported form of a Medicine used by snapshot codecs.
// SupplierRef is a 1-based index into PharmacyState.Suppliers, 0 when unset.
type MedicineState struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Price        float64       `json:"price"`
	Quantity     int           `json:"quantity"`
	ExpiryDate   string        `json:"expiry_date"`
	SupplierRef  int           `json:"supplier_ref,omitempty"`
	Transactions []Transaction `json:"transactions"`
}

// SupplierState is the exported form of a Supplier. Registered is false for
// suppliers that are only attached to a medicine.
type SupplierState struct {
	Name       string   `json:"name"`
	Contact    string   `json:"contact"`
	Supplies   []string `json:"supplies"`
	Registered bool     `json:"registered"`
}

// PharmacyState is the exported form of a Pharmacy.
type PharmacyState struct {
	Name      string          `json:"name"`
	Medicines []MedicineState `json:"medicines"`
	Suppliers []SupplierState `json:"suppliers"`
	Records   []Record        `json:"records"`
}

// State exports the catalog. Supplier identity is preserved through SupplierRef.
func (p *Pharmacy) State() PharmacyState {
	st := PharmacyState{
		Name:      p.name,
		Medicines: make([]MedicineState, 0, len(p.medicines)),
		Records:   slices.Clone(p.records),
	}

	refs := make(map[*Supplier]int)
	addSupplier := func(s *Supplier, registered bool) int {
		if ref, ok := refs[s]; ok {
			return ref
		}
		st.Suppliers = append(st.Suppliers, SupplierState{
			Name:       s.name,
			Contact:    s.contact,
			Supplies:   slices.Clone(s.supplies),
			Registered: registered,
		})
		refs[s] = len(st.Suppliers)
		return refs[s]
	}

	for _, s := range p.suppliers.All() {
		addSupplier(s, true)
	}
	for _, m := range p.medicines {
		ms := MedicineState{
			ID:           m.id,
			Name:         m.Name(),
			Price:        m.price,
			Quantity:     m.quantity,
			ExpiryDate:   m.ExpiryDate(),
			Transactions: slices.Clone(m.transactions),
		}
		if m.supplier != nil {
			ms.SupplierRef = addSupplier(m.supplier, false)
		}
		st.Medicines = append(st.Medicines, ms)
	}
	return st
}

// RestorePharmacy rebuilds a catalog from st with the stored ids, fields,
// supplier links and logs. seq is attached as-is and is not advanced past the
// restored ids.
func RestorePharmacy(seq *IDSequence, st PharmacyState) (*Pharmacy, error) {
	p, err := NewPharmacy(seq, st.Name)
	if err != nil {
		return nil, err
	}

	suppliers := make([]*Supplier, 0, len(st.Suppliers))
	for _, ss := range st.Suppliers {
		s, err := NewSupplier(ss.Name, ss.Contact)
		if err != nil {
			return nil, err
		}
		for _, name := range ss.Supplies {
			if _, err := s.AddSuppliedMedicine(name); err != nil {
				return nil, err
			}
		}
		if ss.Registered {
			p.suppliers.Put(s)
		}
		suppliers = append(suppliers, s)
	}

	for _, ms := range st.Medicines {
		m, err := restoreMedicine(ms)
		if err != nil {
			return nil, err
		}
		if ms.SupplierRef != 0 {
			if ms.SupplierRef < 0 || ms.SupplierRef > len(suppliers) {
				return nil, domain.NewValidationError("supplier reference", ms.SupplierRef, "out of range")
			}
			m.supplier = suppliers[ms.SupplierRef-1]
		}
		p.medicines = append(p.medicines, m)
	}

	p.records = slices.Clone(st.Records)
	return p, nil
}

func restoreMedicine(ms MedicineState) (*Medicine, error) {
	if ms.ID < 1 {
		return nil, domain.NewValidationError("id", ms.ID, "must be positive")
	}
	name, err := NewMedicineName(ms.Name)
	if err != nil {
		return nil, err
	}
	if err := validatePrice(ms.Price); err != nil {
		return nil, err
	}
	if err := validateQuantity(ms.Quantity); err != nil {
		return nil, err
	}
	exp, err := NewExpiryDate(ms.ExpiryDate)
	if err != nil {
		return nil, err
	}
	return &Medicine{
		id:           ms.ID,
		name:         name,
		price:        ms.Price,
		quantity:     ms.Quantity,
		expiryDate:   exp,
		transactions: slices.Clone(ms.Transactions),
	}, nil
}
