package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m))
	return m
}

func TestLoggerJSONIncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Format: "json", Component: ComponentWorker, Output: &buf})

	l.Info("hello", FieldEntity, "goal")
	m := decodeLine(t, &buf)
	assert.Equal(t, "hello", m["msg"])
	assert.Equal(t, ComponentWorker, m[FieldComponent])
	assert.Equal(t, "goal", m[FieldEntity])
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, Format: "text", Output: &buf})
	l.Info("quiet")
	assert.Zero(t, buf.Len())
	l.Warn("loud")
	assert.Contains(t, buf.String(), "loud")
	assert.Contains(t, buf.String(), "component=app")
}

func TestLogHTTPEndLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf}))
	req := httptest.NewRequest(http.MethodGet, "/api/users?x=1", nil)

	sl.LogHTTPEnd(context.Background(), req, http.StatusNotFound, 3, "10.0.0.1")
	m := decodeLine(t, &buf)
	assert.Equal(t, "WARN", m["level"])
	assert.Equal(t, float64(404), m[FieldStatusCode])
	assert.Equal(t, false, m[FieldSuccess])
	assert.Equal(t, "x=1", m[FieldQuery])
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))
	sl.LogError(context.Background(), "publish failed", errors.New("boom"), ComponentAMQP, OpPublish,
		NewFields().WithRecord("category", 7))

	m := decodeLine(t, &buf)
	assert.Equal(t, "boom", m[FieldError])
	assert.Equal(t, ComponentAMQP, m[FieldComponent])
	assert.Equal(t, float64(7), m[FieldRecordID])
}

func TestContextCarriesLogger(t *testing.T) {
	l := New(DefaultConfig()).WithComponent("test")

	got := FromContext(NewContext(context.Background(), l))
	require.NotNil(t, got)
	assert.Equal(t, "test", got.Component())
	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}
