// Package services holds the business operations behind the HTTP API. Each
// service validates input, performs one repository call per step and, after
// a successful write, announces it as a RecordEvent.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"finora/internal/amqp"
	"finora/internal/log"
	"finora/internal/repository"
)

// Publisher sends record events. *amqp.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, ev *amqp.RecordEvent) error
}

// Services groups the per-entity services over one store.
type Services struct {
	Users        *UserService
	Categories   *CategoryService
	Transactions *TransactionService
	Goals        *GoalService

	store     repository.Store
	publisher Publisher
}

// New wires every service to store. publisher may be nil, in which case no
// events are sent.
func New(store repository.Store, publisher Publisher, logger *log.Logger) *Services {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	n := &notifier{
		publisher: publisher,
		log:       log.NewStructuredLogger(logger),
	}
	return &Services{
		Users:        &UserService{store: store, notifier: n, cost: defaultBcryptCost},
		Categories:   &CategoryService{store: store, notifier: n},
		Transactions: &TransactionService{store: store, notifier: n},
		Goals:        &GoalService{store: store, notifier: n},
		store:        store,
		publisher:    publisher,
	}
}

// Ping reports whether the store is reachable.
func (s *Services) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close closes the store and, when it holds a connection, the publisher.
func (s *Services) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close services: %w", err)
	}
	return nil
}

// notifier logs committed writes and publishes their events. A failed
// publish is logged and never fails the write that caused it.
type notifier struct {
	publisher Publisher
	log       *log.StructuredLogger
}

func (n *notifier) written(ctx context.Context, entity string, action amqp.Action, id int64) {
	op := log.OpCreate
	switch action {
	case amqp.ActionUpdated:
		op = log.OpUpdate
	case amqp.ActionDeleted:
		op = log.OpDelete
	}
	n.log.LogRecord(ctx, entity, op, id)

	if n.publisher == nil {
		return
	}
	ev := amqp.NewRecordEvent(entity, action, id)
	if err := n.publisher.Publish(ctx, ev); err != nil {
		n.log.LogError(ctx, "Failed to publish record event", err, log.ComponentAMQP, log.OpPublish,
			log.NewFields().WithRecord(entity, id))
	}
}
