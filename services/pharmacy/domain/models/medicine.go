package models

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/ghuser/pharmacy/services/pharmacy/domain"
)

// Medicine is a validated stock record with an append-only transaction log.
// Fields are reachable only through accessors so every mutation is validated.
type Medicine struct {
	id           int64
	name         MedicineName
	price        float64
	quantity     int
	expiryDate   ExpiryDate
	transactions []Transaction
	supplier     *Supplier
	closed       bool
}

// NewMedicine validates every field and only then draws an identifier from seq,
// so a rejected construction consumes no id.
func NewMedicine(seq *IDSequence, name string, price float64, quantity int, expiryDate string) (*Medicine, error) {
	if seq == nil {
		return nil, domain.NewValidationError("sequence", nil, "must not be nil")
	}
	n, err := NewMedicineName(name)
	if err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	exp, err := NewExpiryDate(expiryDate)
	if err != nil {
		return nil, err
	}
	return &Medicine{
		id:         seq.Next(),
		name:       n,
		price:      price,
		quantity:   quantity,
		expiryDate: exp,
	}, nil
}

// ID returns the read-only identifier.
func (m *Medicine) ID() int64 { return m.id }

// Name returns the medicine name.
func (m *Medicine) Name() string { return m.name.String() }

// Price returns the unit price.
func (m *Medicine) Price() float64 { return m.price }

// Quantity returns the units on hand.
func (m *Medicine) Quantity() int { return m.quantity }

// ExpiryDate returns the stored expiry date string.
func (m *Medicine) ExpiryDate() string { return m.expiryDate.String() }

// Supplier returns the associated supplier, or nil.
func (m *Medicine) Supplier() *Supplier { return m.supplier }

// Closed reports whether Close has been called.
func (m *Medicine) Closed() bool { return m.closed }

// SetName replaces the name after validation.
func (m *Medicine) SetName(name string) error {
	n, err := NewMedicineName(name)
	if err != nil {
		return err
	}
	m.name = n
	return nil
}

// SetPrice replaces the price after validation.
func (m *Medicine) SetPrice(price float64) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	m.price = price
	return nil
}

// SetQuantity overwrites the quantity without logging a transaction.
// Use Sell or Restock for stock movements.
func (m *Medicine) SetQuantity(quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	m.quantity = quantity
	return nil
}

// SetExpiryDate replaces the expiry date after validation.
func (m *Medicine) SetExpiryDate(expiryDate string) error {
	exp, err := NewExpiryDate(expiryDate)
	if err != nil {
		return err
	}
	m.expiryDate = exp
	return nil
}

// AttachSupplier associates s with the medicine. The medicine does not own s.
func (m *Medicine) AttachSupplier(s *Supplier) error {
	if s == nil {
		return domain.NewValidationError("supplier", nil, "must not be nil")
	}
	m.supplier = s
	return nil
}

// Sell removes amount units and logs a Sale.
// Returns *domain.InsufficientStockError when amount exceeds the stock on hand.
func (m *Medicine) Sell(amount int) (bool, error) {
	if amount <= 0 {
		return false, domain.NewValidationError("sale amount", amount, "must be positive")
	}
	if m.quantity < amount {
		return false, &domain.InsufficientStockError{
			Medicine:  m.name.String(),
			Available: m.quantity,
			Requested: amount,
		}
	}
	before := m.quantity
	m.quantity -= amount
	m.logTransaction(TransactionSale, before, amount)
	return true, nil
}

// Restock adds amount units and logs a Restock.
func (m *Medicine) Restock(amount int) error {
	if amount <= 0 {
		return domain.NewValidationError("restock amount", amount, "must be positive")
	}
	if amount > math.MaxInt-m.quantity {
		return domain.NewValidationError("restock amount", amount, "would overflow the stock count")
	}
	before := m.quantity
	m.quantity += amount
	m.logTransaction(TransactionRestock, before, amount)
	return nil
}

// AddStock restocks and returns the receiver for chaining.
func (m *Medicine) AddStock(amount int) (*Medicine, error) {
	if err := m.Restock(amount); err != nil {
		return nil, err
	}
	return m, nil
}

// RemoveStock sells and returns the receiver for chaining.
func (m *Medicine) RemoveStock(amount int) (*Medicine, error) {
	if _, err := m.Sell(amount); err != nil {
		return nil, err
	}
	return m, nil
}

// ScalePrice returns a new medicine, with a fresh id from seq, priced at price*factor.
// The receiver is left untouched and the copy starts with an empty log.
func (m *Medicine) ScalePrice(seq *IDSequence, factor float64) (*Medicine, error) {
	if factor < 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return nil, domain.NewValidationError("price factor", factor, "must be a non-negative number")
	}
	return NewMedicine(seq, m.Name(), m.price*factor, m.quantity, m.ExpiryDate())
}

// DividePrice returns a new medicine, with a fresh id from seq, priced at price/divisor.
func (m *Medicine) DividePrice(seq *IDSequence, divisor float64) (*Medicine, error) {
	if divisor <= 0 || math.IsNaN(divisor) || math.IsInf(divisor, 0) {
		return nil, domain.NewValidationError("price divisor", divisor, "must be positive")
	}
	return NewMedicine(seq, m.Name(), m.price/divisor, m.quantity, m.ExpiryDate())
}

// Transactions returns a copy of the stock history.
func (m *Medicine) Transactions() []Transaction {
	return slices.Clone(m.transactions)
}

// Close records the teardown on sink exactly once. Later calls are no-ops and
// sink failures are ignored.
func (m *Medicine) Close(sink TeardownSink) {
	if m.closed {
		return
	}
	m.closed = true
	if sink == nil {
		return
	}
	_ = sink.Record("medicine deleted", "name", m.name.String(), "id", m.id)
}

func (m *Medicine) String() string {
	s := fmt.Sprintf("Medicine #%d: %s, price: %s, quantity: %d, expires: %s",
		m.id, m.name, strconv.FormatFloat(m.price, 'f', -1, 64), m.quantity, m.expiryDate)
	if m.supplier != nil {
		s += ", supplier: " + m.supplier.Name()
	}
	return s
}

func (m *Medicine) logTransaction(kind TransactionKind, before, amount int) {
	m.transactions = append(m.transactions, Transaction{
		At:     time.Now().UTC(),
		Kind:   kind,
		Before: before,
		After:  m.quantity,
		Amount: amount,
	})
}

func validatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return domain.NewValidationError("price", price, "must be a finite number")
	}
	if price < 0 {
		return domain.NewValidationError("price", price, "must not be negative")
	}
	return nil
}

func validateQuantity(quantity int) error {
	if quantity < 0 {
		return domain.NewValidationError("quantity", quantity, "must not be negative")
	}
	return nil
}
