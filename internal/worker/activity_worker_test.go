package worker

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finora/internal/amqp"
	"finora/internal/log"
	"finora/internal/sheets"
	sheetsmem "finora/internal/sheets/memory"
)

type flakyWriter struct {
	failures int
	inner    *sheetsmem.Store
}

func (f *flakyWriter) Append(ctx context.Context, a sheets.Activity) (string, error) {
	if f.failures > 0 {
		f.failures--
		return "", errors.New("quota exceeded")
	}
	return f.inner.Append(ctx, a)
}

// chanConsumer feeds queued events to the handler, then blocks until ctx ends.
type chanConsumer struct {
	events  []*amqp.RecordEvent
	results chan error
	err     error
}

func (c *chanConsumer) ConsumeRecordEvents(ctx context.Context, handler func(context.Context, *amqp.RecordEvent) error) error {
	for _, ev := range c.events {
		c.results <- handler(ctx, ev)
	}
	if c.err != nil {
		return c.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: &bytes.Buffer{}})
}

func TestHandleRecordEvent(t *testing.T) {
	store := sheetsmem.New()
	w := NewActivityWorker(store, quietLogger())

	ev := amqp.NewRecordEvent(amqp.EntityCategory, amqp.ActionCreated, 3)
	require.NoError(t, w.HandleRecordEvent(context.Background(), ev))
	require.NoError(t, w.HandleRecordEvent(context.Background(), ev), "redelivery is acknowledged")

	rows := store.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, ev.EventID, rows[0].EventID)
	assert.Equal(t, "category", rows[0].Entity)
	assert.Equal(t, "created", rows[0].Action)
	assert.Equal(t, int64(3), rows[0].RecordID)
	assert.True(t, ev.OccurredAt.Equal(rows[0].OccurredAt))

	assert.Error(t, w.HandleRecordEvent(context.Background(), nil))
}

func TestHandleRecordEventFailureIsRetryable(t *testing.T) {
	writer := &flakyWriter{failures: 1, inner: sheetsmem.New()}
	w := NewActivityWorker(writer, quietLogger())
	ev := amqp.NewRecordEvent(amqp.EntityGoal, amqp.ActionDeleted, 8)

	require.Error(t, w.HandleRecordEvent(context.Background(), ev))
	require.NoError(t, w.HandleRecordEvent(context.Background(), ev), "failed events are not remembered")
	assert.Len(t, writer.inner.Rows(), 1)
}

func TestRunStopsOnCancel(t *testing.T) {
	store := sheetsmem.New()
	w := NewActivityWorker(store, quietLogger())
	consumer := &chanConsumer{
		events: []*amqp.RecordEvent{
			amqp.NewRecordEvent(amqp.EntityUser, amqp.ActionCreated, 1),
			amqp.NewRecordEvent(amqp.EntityTransaction, amqp.ActionUpdated, 2),
		},
		results: make(chan error, 2),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, consumer) }()

	for range consumer.events {
		require.NoError(t, <-consumer.results)
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Len(t, store.Rows(), 2)
}

func TestRunReturnsConsumerError(t *testing.T) {
	w := NewActivityWorker(sheetsmem.New(), quietLogger())
	boom := errors.New("broker gone")
	err := w.Run(context.Background(), &chanConsumer{err: boom, results: make(chan error)})
	assert.ErrorIs(t, err, boom)
}
