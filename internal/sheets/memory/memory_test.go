package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finora/internal/sheets"
)

func TestAppendAndRows(t *testing.T) {
	s := New()
	ref, err := s.Append(context.Background(), sheets.Activity{EventID: "a", Entity: "user"})
	require.NoError(t, err)
	assert.Equal(t, "mem:1", ref)

	rows := s.Rows()
	require.Len(t, rows, 1)
	rows[0].Entity = "mutated"
	assert.Equal(t, "user", s.Rows()[0].Entity, "Rows returns a copy")
}

func TestConcurrentAppend(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Append(context.Background(), sheets.Activity{})
		}()
	}
	wg.Wait()
	assert.Len(t, s.Rows(), 50)
}
