package models

import (
	"strings"
	"testing"
)

func TestNewSupplier(t *testing.T) {
	tests := []struct {
		name    string
		sname   string
		contact string
		wantErr bool
	}{
		{"valid", "Acme", "555-0100", false},
		{"empty name", "", "555-0100", true},
		{"name too long", strings.Repeat("s", 256), "555-0100", true},
		{"empty contact", "Acme", "", true},
		{"blank contact", "Acme", "  ", true},
		{"padded name", " Acme", "555-0100", true},
		{"control character in name", "Ac\x00me", "555-0100", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSupplier(tt.sname, tt.contact)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSupplier() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestSupplier_Supplies(t *testing.T) {
	s, err := NewSupplier("Acme", "555-0100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg, err := s.AddSuppliedMedicine("Aspirin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != "Aspirin added to the supply list of Acme" {
		t.Fatalf("unexpected message %q", msg)
	}
	for _, bad := range []string{"", " Aspirin", "Asp\x00irin", "Asp  irin"} {
		if _, err := s.AddSuppliedMedicine(bad); err == nil {
			t.Fatalf("AddSuppliedMedicine(%q) expected error", bad)
		}
	}

	if !s.Supplies("aspirin") || !s.Supplies("ASPIRIN") {
		t.Fatal("expected case-insensitive match")
	}
	if s.Supplies("Ibuprofen") {
		t.Fatal("unexpected match")
	}

	list := s.SuppliedMedicines()
	list[0] = "tampered"
	if s.SuppliedMedicines()[0] != "Aspirin" {
		t.Fatal("SuppliedMedicines() must return a copy")
	}
	if s.String() != "Supplier: Acme, contact: 555-0100" {
		t.Fatalf("String() = %q", s.String())
	}
}
