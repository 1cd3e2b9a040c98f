package amqp

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Action is what happened to a record.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Entity names carried in events.
const (
	EntityUser        = "user"
	EntityCategory    = "category"
	EntityTransaction = "transaction"
	EntityGoal        = "goal"
)

// RecordEvent announces a committed write. It carries identifiers only;
// consumers that need the record read it from the store.
type RecordEvent struct {
	EventID    string    `json:"event_id"`
	Entity     string    `json:"entity"`
	Action     Action    `json:"action"`
	RecordID   int64     `json:"record_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewRecordEvent(entity string, action Action, recordID int64) *RecordEvent {
	return &RecordEvent{
		EventID:    uuid.NewString(),
		Entity:     entity,
		Action:     action,
		RecordID:   recordID,
		OccurredAt: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON decodes and sanity-checks an event body.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var ev RecordEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if ev.Entity == "" || ev.Action == "" {
		return nil, fmt.Errorf("record event %q: entity and action are required", ev.EventID)
	}
	return &ev, nil
}
