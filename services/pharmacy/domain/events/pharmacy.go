package events

import (
	"time"

	"github.com/google/uuid"
)

// Watermill topics published by the pharmacy application service.
const (
	TopicMedicineAdded      = "pharmacy.medicine_added"
	TopicMedicineRemoved    = "pharmacy.medicine_removed"
	TopicStockChanged       = "pharmacy.stock_changed"
	TopicSupplierRegistered = "pharmacy.supplier_registered"
	TopicSnapshotSaved      = "pharmacy.snapshot_saved"
)

// MedicineAddedEvent is published after a medicine joins a catalog.
// Consumers subscribe via EventBus.Subscribe(ctx, events.TopicMedicineAdded).
type MedicineAddedEvent struct {
	EventID    uuid.UUID `json:"event_id"` // Unique publish-time identifier for deduplication
	Version    int       `json:"version"`  // Schema version; increment on breaking changes
	Pharmacy   string    `json:"pharmacy"`
	MedicineID int64     `json:"medicine_id"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	OccurredAt time.Time `json:"occurred_at"`
}

// MedicineRemovedEvent is published after a medicine leaves a catalog.
type MedicineRemovedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	Pharmacy   string    `json:"pharmacy"`
	MedicineID int64     `json:"medicine_id"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurred_at"`
}

// StockChangedEvent is published for every sale and restock.
// Kind is "Sale" or "Restock"; Supplier is set for supplier deliveries.
type StockChangedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	Pharmacy   string    `json:"pharmacy"`
	MedicineID int64     `json:"medicine_id"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	Before     int       `json:"before"`
	After      int       `json:"after"`
	Supplier   string    `json:"supplier,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SupplierRegisteredEvent is published after a supplier is registered.
type SupplierRegisteredEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	Pharmacy   string    `json:"pharmacy"`
	Name       string    `json:"name"`
	Contact    string    `json:"contact"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SnapshotSavedEvent is published after a catalog snapshot is written to a backend.
// The postgres repository publishes it through the outbox in the same transaction.
type SnapshotSavedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	SnapshotID uuid.UUID `json:"snapshot_id"`
	Pharmacy   string    `json:"pharmacy"`
	Backend    string    `json:"backend"`
	Medicines  int       `json:"medicines"`
	Bytes      int       `json:"bytes,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
