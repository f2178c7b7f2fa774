package models

import "time"

// TransactionKind names a quantity-changing event on a medicine.
type TransactionKind string

const (
	TransactionSale    TransactionKind = "Sale"
	TransactionRestock TransactionKind = "Restock"
)

// Transaction is one immutable entry of a medicine's stock history.
type Transaction struct {
	At     time.Time       `json:"at"`
	Kind   TransactionKind `json:"kind"`
	Before int             `json:"before"`
	After  int             `json:"after"`
	Amount int             `json:"amount"`
}

// RecordKind names a catalog-level activity.
type RecordKind string

const (
	RecordAddMedicine      RecordKind = "AddMedicine"
	RecordRemoveMedicine   RecordKind = "RemoveMedicine"
	RecordRegisterSupplier RecordKind = "RegisterSupplier"
	RecordSupplierRestock  RecordKind = "SupplierRestock"
)

// Record is one immutable entry of a pharmacy's activity log.
type Record struct {
	At      time.Time  `json:"at"`
	Kind    RecordKind `json:"kind"`
	Details string     `json:"details"`
}
