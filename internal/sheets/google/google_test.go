package google

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	"finora/internal/log"
	"finora/internal/sheets"
)

type fakeSheets struct {
	mu        sync.Mutex
	header    [][]any
	appended  [][]any
	getCalls  int
	failGet   bool
	lastRange string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		Values [][]any `json:"values"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	switch {
	case r.Method == http.MethodGet:
		f.getCalls++
		if f.failGet {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"code":500,"message":"backend error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"values": f.header})
	case r.Method == http.MethodPut:
		f.header = body.Values
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		f.appended = append(f.appended, body.Values...)
		f.lastRange = r.URL.Query().Get("valueInputOption")
		_, _ = w.Write([]byte(`{"updates":{"updatedRange":"Activity!A2:E2","updatedRows":1}}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(),
		Config{SpreadsheetID: "sheet-id"},
		log.New(log.Config{Output: &bytes.Buffer{}}),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c
}

func TestAppendWritesHeaderOnce(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)
	at := time.Date(2025, 5, 1, 10, 30, 0, 0, time.UTC)

	ref, err := c.Append(context.Background(), sheets.Activity{EventID: "e1", Entity: "goal", Action: "created", RecordID: 7, OccurredAt: at})
	require.NoError(t, err)
	assert.Equal(t, "Activity!A2:E2", ref)

	_, err = c.Append(context.Background(), sheets.Activity{EventID: "e2", Entity: "goal", Action: "deleted", RecordID: 7, OccurredAt: at})
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, 1, fake.getCalls, "header is checked once")
	require.Len(t, fake.header, 1)
	assert.Equal(t, "Occurred At", fake.header[0][0])
	require.Len(t, fake.appended, 2)
	assert.Equal(t, []any{"2025-05-01T10:30:00Z", "goal", "created", float64(7), "e1"}, fake.appended[0])
	assert.Equal(t, "RAW", fake.lastRange)
}

func TestAppendRetriesHeaderAfterFailure(t *testing.T) {
	fake := &fakeSheets{failGet: true}
	c := newTestClient(t, fake)

	_, err := c.Append(context.Background(), sheets.Activity{EventID: "e1"})
	require.Error(t, err)

	fake.mu.Lock()
	fake.failGet = false
	fake.header = [][]any{{"Occurred At"}}
	fake.mu.Unlock()

	_, err = c.Append(context.Background(), sheets.Activity{EventID: "e1"})
	require.NoError(t, err)
}

func TestNewRequiresSpreadsheetAndCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	assert.ErrorContains(t, err, "missing spreadsheet id")

	_, err = New(context.Background(), Config{SpreadsheetID: "x"}, nil)
	assert.ErrorContains(t, err, "missing service account credentials")

	_, err = New(context.Background(), Config{SpreadsheetID: "x", CredentialsFile: "/nonexistent/sa.json"}, nil)
	assert.ErrorContains(t, err, "read service account file")
}
