package models

import "testing"

type named string

func (n named) Name() string { return string(n) }

func TestDirectory(t *testing.T) {
	d := NewDirectory[named]()

	if d.Put("Aspirin") {
		t.Fatal("first put must not report a replacement")
	}
	d.Put("Ibuprofen")
	d.Put("Paracetamol")
	if !d.Put("ASPIRIN") {
		t.Fatal("expected case-insensitive replacement")
	}

	if d.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", d.Len())
	}
	all := d.All()
	if all[0] != "ASPIRIN" || all[1] != "Ibuprofen" || all[2] != "Paracetamol" {
		t.Fatalf("unexpected order %v", all)
	}

	if v, ok := d.Get("ibuprofen"); !ok || v != "Ibuprofen" {
		t.Fatalf("Get() = %q, %v", v, ok)
	}
	if _, ok := d.Get("Codeine"); ok {
		t.Fatal("expected miss")
	}

	if !d.Remove("ibuprofen") {
		t.Fatal("expected removal")
	}
	if d.Remove("ibuprofen") {
		t.Fatal("second removal must report false")
	}
	all = d.All()
	if len(all) != 2 || all[0] != "ASPIRIN" || all[1] != "Paracetamol" {
		t.Fatalf("unexpected entries after removal %v", all)
	}
}
