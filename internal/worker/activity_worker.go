// Package worker turns record events from the broker into activity rows.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"finora/internal/amqp"
	"finora/internal/cache"
	"finora/internal/log"
	"finora/internal/sheets"
)

const (
	defaultAppendTimeout = 15 * time.Second
	seenEventsSize       = 10_000
	seenEventsTTL        = 24 * time.Hour
	cleanupInterval      = 10 * time.Minute
)

// EventConsumer delivers record events to a handler until ctx ends.
// *amqp.Client satisfies it.
type EventConsumer interface {
	ConsumeRecordEvents(ctx context.Context, handler func(context.Context, *amqp.RecordEvent) error) error
}

// ActivityWorker appends one activity row per record event. Redelivered
// events, recognised by event id, are acknowledged without a second row.
type ActivityWorker struct {
	writer        sheets.ActivityWriter
	seen          *cache.LRUCache[time.Time]
	logger        *log.Logger
	appendTimeout time.Duration
}

func NewActivityWorker(writer sheets.ActivityWriter, logger *log.Logger) *ActivityWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ActivityWorker{
		writer:        writer,
		seen:          cache.NewLRUCache[time.Time](seenEventsSize, seenEventsTTL),
		logger:        logger.WithComponent(log.ComponentWorker),
		appendTimeout: defaultAppendTimeout,
	}
}

// HandleRecordEvent appends ev. A returned error makes the consumer requeue
// the delivery.
func (w *ActivityWorker) HandleRecordEvent(ctx context.Context, ev *amqp.RecordEvent) error {
	if ev == nil {
		return errors.New("nil record event")
	}
	if _, dup := w.seen.Get(ev.EventID); dup {
		w.logger.DebugContext(ctx, "Skipping duplicate record event", log.FieldEventID, ev.EventID)
		return nil
	}

	actx, cancel := context.WithTimeout(ctx, w.appendTimeout)
	defer cancel()

	ref, err := w.writer.Append(actx, sheets.Activity{
		EventID:    ev.EventID,
		Entity:     ev.Entity,
		Action:     string(ev.Action),
		RecordID:   ev.RecordID,
		OccurredAt: ev.OccurredAt,
	})
	if err != nil {
		fields := log.NewFields().WithRecord(ev.Entity, ev.RecordID).WithErrorType(log.ErrorTypeNetwork)
		fields[log.FieldEventID] = ev.EventID
		log.NewStructuredLogger(w.logger).LogError(ctx, "Failed to append activity", err, log.ComponentWorker, log.OpAppend, fields)
		return fmt.Errorf("append activity %s: %w", ev.EventID, err)
	}

	w.seen.Set(ev.EventID, time.Now())
	w.logger.InfoContext(ctx, "Activity recorded",
		log.FieldEventID, ev.EventID,
		log.FieldEntity, ev.Entity,
		log.FieldRecordID, ev.RecordID,
		"action", string(ev.Action),
		"row", ref)
	return nil
}

// Run consumes events until ctx is cancelled or the consumer fails, pruning
// the duplicate filter in the background.
func (w *ActivityWorker) Run(ctx context.Context, consumer EventConsumer) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := consumer.ConsumeRecordEvents(gctx, w.HandleRecordEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		cache.NewManager(w.seen).Run(gctx, cleanupInterval, func(removed int) {
			w.logger.DebugContext(gctx, "Pruned seen events", "removed", removed)
		})
		return nil
	})

	return g.Wait()
}
