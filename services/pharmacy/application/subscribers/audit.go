// Package subscribers holds the in-process handlers for pharmacy domain events.
package subscribers

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ghuser/pharmacy/pkg/events"
	"github.com/ghuser/pharmacy/pkg/logger"
	domainevents "github.com/ghuser/pharmacy/services/pharmacy/domain/events"
)

// lowStockThreshold marks stock levels worth a warning in the audit trail.
const lowStockThreshold = 5

// Topics lists every topic the audit trail subscribes to.
var Topics = []string{
	domainevents.TopicMedicineAdded,
	domainevents.TopicMedicineRemoved,
	domainevents.TopicStockChanged,
	domainevents.TopicSupplierRegistered,
	domainevents.TopicSnapshotSaved,
}

// Register subscribes the audit handlers to every pharmacy topic.
// Subscriber errors are drained into log until ctx is done.
func Register(ctx context.Context, bus *events.EventBus, log logger.Logger) error {
	handlers := map[string]func(context.Context, *message.Message) error{
		domainevents.TopicMedicineAdded:      handleMedicineAdded(log),
		domainevents.TopicMedicineRemoved:    handleMedicineRemoved(log),
		domainevents.TopicStockChanged:       handleStockChanged(log),
		domainevents.TopicSupplierRegistered: handleSupplierRegistered(log),
		domainevents.TopicSnapshotSaved:      handleSnapshotSaved(log),
	}

	for _, topic := range Topics {
		errCh, err := bus.Subscribe(ctx, topic, recovering(log, topic, handlers[topic]))
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
		go func(topic string) {
			for err := range errCh {
				log.ErrorContext(ctx, "subscriber error", "topic", topic, "error", err)
			}
		}(topic)
	}

	log.Info("event subscribers registered", "topics", Topics)
	return nil
}

// recovering logs and swallows a handler panic so the subscription keeps running.
func recovering(log logger.Logger, topic string, h func(context.Context, *message.Message) error) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		defer logger.Recover(ctx, log, topic)
		return h(ctx, msg)
	}
}

func handleMedicineAdded(log logger.Logger) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		var evt domainevents.MedicineAddedEvent
		if err := events.DecodeJSON(msg, &evt); err != nil {
			return err
		}
		log.InfoContext(ctx, "audit: medicine added",
			"pharmacy", evt.Pharmacy, "medicine_id", evt.MedicineID, "name", evt.Name, "quantity", evt.Quantity)
		return nil
	}
}

func handleMedicineRemoved(log logger.Logger) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		var evt domainevents.MedicineRemovedEvent
		if err := events.DecodeJSON(msg, &evt); err != nil {
			return err
		}
		log.InfoContext(ctx, "audit: medicine removed",
			"pharmacy", evt.Pharmacy, "medicine_id", evt.MedicineID, "name", evt.Name)
		return nil
	}
}

func handleStockChanged(log logger.Logger) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		var evt domainevents.StockChangedEvent
		if err := events.DecodeJSON(msg, &evt); err != nil {
			return err
		}
		args := []any{
			"pharmacy", evt.Pharmacy, "medicine_id", evt.MedicineID, "name", evt.Name,
			"kind", evt.Kind, "before", evt.Before, "after", evt.After,
		}
		if evt.Supplier != "" {
			args = append(args, "supplier", evt.Supplier)
		}
		if evt.After < lowStockThreshold {
			log.WarnContext(ctx, "audit: low stock", args...)
			return nil
		}
		log.InfoContext(ctx, "audit: stock changed", args...)
		return nil
	}
}

func handleSupplierRegistered(log logger.Logger) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		var evt domainevents.SupplierRegisteredEvent
		if err := events.DecodeJSON(msg, &evt); err != nil {
			return err
		}
		log.InfoContext(ctx, "audit: supplier registered",
			"pharmacy", evt.Pharmacy, "name", evt.Name, "contact", evt.Contact)
		return nil
	}
}

func handleSnapshotSaved(log logger.Logger) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		var evt domainevents.SnapshotSavedEvent
		if err := events.DecodeJSON(msg, &evt); err != nil {
			return err
		}
		log.InfoContext(ctx, "audit: snapshot saved",
			"pharmacy", evt.Pharmacy, "backend", evt.Backend, "medicines", evt.Medicines, "event_id", evt.EventID)
		return nil
	}
}
