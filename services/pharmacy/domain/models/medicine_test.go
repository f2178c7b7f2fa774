package models

import (
	"errors"
	"math"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/ghuser/pharmacy/services/pharmacy/domain"
)

func newTestMedicine(t *testing.T, name string, qty int) *Medicine {
	t.Helper()
	m, err := NewMedicine(NewIDSequence(), name, 5.0, qty, "2025-12-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return m
}

func TestNewMedicine(t *testing.T) {
	tests := []struct {
		name    string
		mname   string
		price   float64
		qty     int
		expiry  string
		wantErr bool
	}{
		{"valid", "Aspirin", 5.0, 50, "2025-12-31", false},
		{"zero price and quantity", "Aspirin", 0, 0, "2025-12-31", false},
		{"empty name", "", 5.0, 50, "2025-12-31", true},
		{"blank name", "   ", 5.0, 50, "2025-12-31", true},
		{"name too long", strings.Repeat("x", 256), 5.0, 50, "2025-12-31", true},
		{"negative price", "Aspirin", -1, 50, "2025-12-31", true},
		{"NaN price", "Aspirin", math.NaN(), 50, "2025-12-31", true},
		{"infinite price", "Aspirin", math.Inf(1), 50, "2025-12-31", true},
		{"negative quantity", "Aspirin", 5.0, -1, "2025-12-31", true},
		{"malformed expiry", "Aspirin", 5.0, 50, "31/12/2025", true},
		{"empty expiry", "Aspirin", 5.0, 50, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := NewIDSequence()
			m, err := NewMedicine(seq, tt.mname, tt.price, tt.qty, tt.expiry)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewMedicine() error = %v, wantErr = %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if m != nil {
					t.Fatal("expected no medicine on error")
				}
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				if seq.Peek() != 1 {
					t.Fatalf("failed construction must not consume an id, next = %d", seq.Peek())
				}
				return
			}
			if m.ID() != 1 {
				t.Fatalf("expected id 1, got %d", m.ID())
			}
		})
	}
}

func TestNewMedicine_NilSequence(t *testing.T) {
	if _, err := NewMedicine(nil, "Aspirin", 1, 1, "2025-12-31"); err == nil {
		t.Fatal("expected error for nil sequence")
	}
}

func TestNewMedicine_UniqueIDs(t *testing.T) {
	seq := NewIDSequence()
	seen := make(map[int64]bool)
	for i := 0; i < 20; i++ {
		m, err := NewMedicine(seq, "Aspirin", 1, 1, "2025-12-31")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen[m.ID()] {
			t.Fatalf("duplicate id %d", m.ID())
		}
		seen[m.ID()] = true
	}
}

func TestMedicine_AspirinScenario(t *testing.T) {
	m := newTestMedicine(t, "Aspirin", 50)

	ok, err := m.Sell(10)
	if err != nil || !ok {
		t.Fatalf("Sell(10) = %v, %v", ok, err)
	}
	if m.Quantity() != 40 {
		t.Fatalf("expected quantity 40, got %d", m.Quantity())
	}

	if err := m.Restock(20); err != nil {
		t.Fatalf("Restock(20): %v", err)
	}
	if m.Quantity() != 60 {
		t.Fatalf("expected quantity 60, got %d", m.Quantity())
	}

	txs := m.Transactions()
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	want := []struct {
		kind                  TransactionKind
		before, after, amount int
	}{
		{TransactionSale, 50, 40, 10},
		{TransactionRestock, 40, 60, 20},
	}
	for i, w := range want {
		got := txs[i]
		if got.Kind != w.kind || got.Before != w.before || got.After != w.after || got.Amount != w.amount {
			t.Fatalf("transaction %d = %+v, want %+v", i, got, w)
		}
	}
}

func TestMedicine_SellInsufficientStock(t *testing.T) {
	m := newTestMedicine(t, "Aspirin", 5)

	ok, err := m.Sell(10)
	if ok {
		t.Fatal("expected sale to fail")
	}
	var se *domain.InsufficientStockError
	if !errors.As(err, &se) {
		t.Fatalf("expected *InsufficientStockError, got %v", err)
	}
	if se.Available != 5 || se.Requested != 10 {
		t.Fatalf("unexpected error detail: %+v", se)
	}
	if m.Quantity() != 5 || len(m.Transactions()) != 0 {
		t.Fatal("failed sale must not mutate the medicine")
	}
}

func TestMedicine_NonPositiveAmounts(t *testing.T) {
	m := newTestMedicine(t, "Aspirin", 5)

	for _, amount := range []int{0, -3} {
		if _, err := m.Sell(amount); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("Sell(%d) expected ErrValidation, got %v", amount, err)
		}
		if err := m.Restock(amount); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("Restock(%d) expected ErrValidation, got %v", amount, err)
		}
	}
	if m.Quantity() != 5 || len(m.Transactions()) != 0 {
		t.Fatal("rejected amounts must not mutate the medicine")
	}
}

func TestMedicine_RestockOverflow(t *testing.T) {
	m := newTestMedicine(t, "Aspirin", 1)

	if err := m.Restock(math.MaxInt); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Restock(MaxInt) expected ErrValidation, got %v", err)
	}
	if _, err := m.AddStock(math.MaxInt); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("AddStock(MaxInt) expected ErrValidation, got %v", err)
	}
	if m.Quantity() != 1 || len(m.Transactions()) != 0 {
		t.Fatal("rejected restock must not mutate the medicine")
	}

	if err := m.Restock(math.MaxInt - 1); err != nil {
		t.Fatalf("Restock up to MaxInt: %v", err)
	}
	if m.Quantity() != math.MaxInt {
		t.Fatalf("expected MaxInt, got %d", m.Quantity())
	}
	if err := m.Restock(1); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Restock past MaxInt expected ErrValidation, got %v", err)
	}
}

func TestMedicine_SetNameRejectsBadLabels(t *testing.T) {
	m := newTestMedicine(t, "Aspirin", 5)

	for _, name := range []string{"\tX\n", " Aspirin", "Asp\x00irin", "Asp  irin"} {
		if err := m.SetName(name); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("SetName(%q) expected ErrValidation, got %v", name, err)
		}
	}
	if m.Name() != "Aspirin" {
		t.Fatalf("name changed after rejected set: %q", m.Name())
	}
}

func TestMedicine_Setters(t *testing.T) {
	m := newTestMedicine(t, "Aspirin", 5)

	if err := m.SetPrice(-0.5); err == nil {
		t.Fatal("expected error for negative price")
	}
	if m.Price() != 5.0 {
		t.Fatalf("price changed after rejected set: %v", m.Price())
	}
	if err := m.SetQuantity(-1); err == nil {
		t.Fatal("expected error for negative quantity")
	}
	if err := m.SetName(""); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := m.SetExpiryDate("tomorrow"); err == nil {
		t.Fatal("expected error for malformed expiry")
	}

	if err := m.SetName("Ibuprofen"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.SetPrice(2.5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.SetQuantity(12); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.SetExpiryDate("2026-01-01"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name() != "Ibuprofen" || m.Price() != 2.5 || m.Quantity() != 12 || m.ExpiryDate() != "2026-01-01" {
		t.Fatalf("unexpected state: %s", m)
	}
}

func TestMedicine_TransactionsIsCopy(t *testing.T) {
	m := newTestMedicine(t, "Aspirin", 5)
	if err := m.Restock(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	txs := m.Transactions()
	txs[0].Amount = 999
	if m.Transactions()[0].Amount != 1 {
		t.Fatal("mutating the returned slice must not affect the medicine")
	}
}

func TestMedicine_AddRemoveStock(t *testing.T) {
	m := newTestMedicine(t, "Aspirin", 10)

	got, err := m.AddStock(5)
	if err != nil || got != m {
		t.Fatalf("AddStock() = %v, %v", got, err)
	}
	got, err = m.RemoveStock(3)
	if err != nil || got != m {
		t.Fatalf("RemoveStock() = %v, %v", got, err)
	}
	if m.Quantity() != 12 {
		t.Fatalf("expected 12, got %d", m.Quantity())
	}
	if _, err := m.RemoveStock(100); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestMedicine_ScaleAndDividePrice(t *testing.T) {
	seq := NewIDSequence()
	m, err := NewMedicine(seq, "Aspirin", 4.0, 10, "2025-12-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Restock(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	scaled, err := m.ScalePrice(seq, 2)
	if err != nil {
		t.Fatalf("ScalePrice: %v", err)
	}
	if scaled == m || scaled.ID() == m.ID() {
		t.Fatal("expected a new medicine with a fresh id")
	}
	if scaled.Price() != 8.0 || scaled.Quantity() != 11 || scaled.Name() != "Aspirin" {
		t.Fatalf("unexpected scaled medicine: %s", scaled)
	}
	if len(scaled.Transactions()) != 0 {
		t.Fatal("scaled medicine must start with an empty log")
	}
	if m.Price() != 4.0 {
		t.Fatal("original must be unchanged")
	}

	divided, err := m.DividePrice(seq, 4)
	if err != nil {
		t.Fatalf("DividePrice: %v", err)
	}
	if divided.Price() != 1.0 {
		t.Fatalf("expected 1.0, got %v", divided.Price())
	}

	if _, err := m.ScalePrice(seq, -1); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for negative factor, got %v", err)
	}
	if _, err := m.DividePrice(seq, 0); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for zero divisor, got %v", err)
	}
}

func TestMedicine_Supplier(t *testing.T) {
	m := newTestMedicine(t, "Aspirin", 1)
	if m.Supplier() != nil {
		t.Fatal("expected no supplier")
	}
	if err := m.AttachSupplier(nil); err == nil {
		t.Fatal("expected error for nil supplier")
	}
	s, err := NewSupplier("Acme", "555-0100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.AttachSupplier(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Supplier() != s {
		t.Fatal("expected attached supplier")
	}
	if !strings.Contains(m.String(), "supplier: Acme") {
		t.Fatalf("String() = %q", m.String())
	}
}

func TestMedicine_String(t *testing.T) {
	m := newTestMedicine(t, "Aspirin", 50)
	want := "Medicine #1: Aspirin, price: 5, quantity: 50, expires: 2025-12-31"
	if m.String() != want {
		t.Fatalf("String() = %q, want %q", m.String(), want)
	}
}

func TestMedicine_Close(t *testing.T) {
	m := newTestMedicine(t, "Aspirin", 1)
	calls := 0
	sink := TeardownFunc(func(event string, attrs ...any) error {
		calls++
		return errors.New("sink failure")
	})

	m.Close(sink)
	m.Close(sink)

	if calls != 1 {
		t.Fatalf("expected sink to be called once, got %d", calls)
	}
	if !m.Closed() {
		t.Fatal("expected medicine to be closed")
	}

	other := newTestMedicine(t, "Ibuprofen", 1)
	other.Close(nil)
	if !other.Closed() {
		t.Fatal("expected close with nil sink to succeed")
	}
}

func TestMedicine_SellProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		qty := rapid.IntRange(1, 10_000).Draw(t, "quantity")
		amount := rapid.IntRange(1, qty).Draw(t, "amount")

		m, err := NewMedicine(NewIDSequence(), "Aspirin", 1, qty, "2025-12-31")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := m.Sell(amount); err != nil {
			t.Fatalf("Sell(%d): %v", amount, err)
		}
		if m.Quantity() != qty-amount {
			t.Fatalf("quantity = %d, want %d", m.Quantity(), qty-amount)
		}
		txs := m.Transactions()
		if len(txs) != 1 {
			t.Fatalf("expected 1 transaction, got %d", len(txs))
		}
		if txs[0].Kind != TransactionSale || txs[0].Before != qty || txs[0].After != qty-amount {
			t.Fatalf("unexpected transaction %+v", txs[0])
		}
	})
}

func TestMedicine_OversellProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		qty := rapid.IntRange(0, 10_000).Draw(t, "quantity")
		amount := rapid.IntRange(qty+1, qty+10_000).Draw(t, "amount")

		m, err := NewMedicine(NewIDSequence(), "Aspirin", 1, qty, "2025-12-31")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := m.Sell(amount); !errors.Is(err, domain.ErrInsufficientStock) {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}
		if m.Quantity() != qty || len(m.Transactions()) != 0 {
			t.Fatal("oversell must not mutate the medicine")
		}
	})
}

func TestMedicine_RestockSellRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		qty := rapid.IntRange(0, 10_000).Draw(t, "quantity")
		amount := rapid.IntRange(1, 10_000).Draw(t, "amount")

		m, err := NewMedicine(NewIDSequence(), "Aspirin", 1, qty, "2025-12-31")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := m.Restock(amount); err != nil {
			t.Fatalf("Restock: %v", err)
		}
		if _, err := m.Sell(amount); err != nil {
			t.Fatalf("Sell: %v", err)
		}
		if m.Quantity() != qty {
			t.Fatalf("quantity = %d, want %d", m.Quantity(), qty)
		}
		if len(m.Transactions()) != 2 {
			t.Fatalf("expected 2 transactions, got %d", len(m.Transactions()))
		}
	})
}

func TestNewMedicine_NegativeFieldsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		price := rapid.Float64Range(-1e9, -1e-9).Draw(t, "price")
		qty := rapid.IntRange(-10_000, -1).Draw(t, "quantity")
		negativePrice := rapid.Bool().Draw(t, "negativePrice")

		p, q := 1.0, 1
		if negativePrice {
			p = price
		} else {
			q = qty
		}
		seq := NewIDSequence()
		m, err := NewMedicine(seq, "Aspirin", p, q, "2025-12-31")
		if m != nil || !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("NewMedicine(price=%v, qty=%d) = %v, %v", p, q, m, err)
		}
		if seq.Peek() != 1 {
			t.Fatal("failed construction must not consume an id")
		}
	})
}
