package events

import (
	"context"
	"database/sql"
	"fmt"

	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ghuser/pharmacy/pkg/logger"
)

// Outbox stores events in PostgreSQL inside the caller's transaction and relays
// them to an in-process EventBus once committed.
type Outbox struct {
	db         *sql.DB
	subscriber *watermillsql.Subscriber
	log        logger.Logger
}

// NewOutbox creates the SQL subscriber used for relaying. consumerGroup keeps
// relay offsets separate per process role (e.g. "pharmacy-console").
func NewOutbox(db *sql.DB, consumerGroup string, log logger.Logger) (*Outbox, error) {
	sub, err := watermillsql.NewSubscriber(
		db,
		watermillsql.SubscriberConfig{
			SchemaAdapter:    watermillsql.DefaultPostgreSQLSchema{},
			OffsetsAdapter:   watermillsql.DefaultPostgreSQLOffsetsAdapter{},
			InitializeSchema: true,
			ConsumerGroup:    consumerGroup,
		},
		&slogAdapter{log: log},
	)
	if err != nil {
		return nil, fmt.Errorf("events: new outbox subscriber: %w", err)
	}
	return &Outbox{db: db, subscriber: sub, log: log}, nil
}

// Initialize creates the message and offset tables for topic. Tx publishers
// cannot create tables, so call this once per topic before publishing.
func (o *Outbox) Initialize(topic string) error {
	if err := o.subscriber.SubscribeInitialize(topic); err != nil {
		return fmt.Errorf("events: initialize outbox topic %s: %w", topic, err)
	}
	return nil
}

// NewTxPublisher returns a Publisher bound to the given *sql.Tx.
// All Publish calls on the returned publisher execute within that transaction,
// enabling atomic "save snapshot + publish event" semantics.
//
// AutoInitializeSchema is false: watermill refuses to create tables inside a
// transaction, so topics must be prepared with Outbox.Initialize.
func NewTxPublisher(tx *sql.Tx, log logger.Logger) (message.Publisher, error) {
	pub, err := watermillsql.NewPublisher(
		tx,
		watermillsql.PublisherConfig{
			SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
			AutoInitializeSchema: false,
		},
		&slogAdapter{log: log},
	)
	if err != nil {
		return nil, fmt.Errorf("events: new tx publisher: %w", err)
	}
	return pub, nil
}

// Relay forwards committed outbox messages on topic to bus until ctx is done.
// A message is acked only after the bus has accepted it.
func (o *Outbox) Relay(ctx context.Context, topic string, bus *EventBus) error {
	ch, err := o.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("events: relay subscribe to %s: %w", topic, err)
	}

	bus.wg.Add(1)
	go func() {
		defer bus.wg.Done()
		for msg := range ch {
			if err := bus.Publish(ctx, topic, msg.Copy()); err != nil {
				o.log.ErrorContext(ctx, "events: relay failed", "topic", topic, "error", err)
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}()
	return nil
}

// Close stops relaying. The database handle is owned by the caller.
func (o *Outbox) Close() error {
	if err := o.subscriber.Close(); err != nil {
		return fmt.Errorf("events: close outbox subscriber: %w", err)
	}
	return nil
}
