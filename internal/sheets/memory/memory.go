package memory

import (
	"context"
	"fmt"
	"sync"

	"finora/internal/sheets"
)

// Store keeps activity rows in process, for tests and for running the worker
// without a spreadsheet.
type Store struct {
	mu   sync.Mutex
	rows []sheets.Activity
}

var _ sheets.ActivityWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Append stores the activity and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, a sheets.Activity) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, a)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of every stored activity in append order.
func (s *Store) Rows() []sheets.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.Activity(nil), s.rows...)
}
