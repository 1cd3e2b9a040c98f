// Package sheets exports record activity to a spreadsheet.
package sheets

import (
	"context"
	"time"
)

// Activity is one row of the activity log: a single write to a stored record.
type Activity struct {
	EventID    string
	Entity     string
	Action     string
	RecordID   int64
	OccurredAt time.Time
}

// Header names the activity columns in row order.
var Header = []string{"Occurred At", "Entity", "Action", "Record ID", "Event ID"}

// Row renders a as spreadsheet cell values in Header order.
func (a Activity) Row() []any {
	return []any{
		a.OccurredAt.UTC().Format(time.RFC3339),
		a.Entity,
		a.Action,
		a.RecordID,
		a.EventID,
	}
}

// Ports for outbound adapters.
type (
	ActivityWriter interface {
		// Append adds one activity row and returns a reference to it.
		Append(ctx context.Context, a Activity) (rowRef string, err error)
	}
)
