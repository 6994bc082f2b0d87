package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Output: &buf, Component: ComponentLedger})

	l.Info("hello", FieldTaskCode, "0001")

	out := buf.String()
	assert.Contains(t, out, "component=ledger")
	assert.Contains(t, out, "task_code=0001")
}

func TestFieldsSkipEmpty(t *testing.T) {
	f := NewFields().WithSession("").WithError(nil)
	assert.Empty(t, f)

	f = NewFields().WithSession("abc").WithError(errors.New("boom"))
	assert.Equal(t, "abc", f[FieldSession])
	assert.Equal(t, "boom", f[FieldError])
}

func TestContextRoundTrip(t *testing.T) {
	l := New(Config{Output: &bytes.Buffer{}, Component: ComponentHTTP})
	ctx := NewContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}

func TestFromContextDefault(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.Equal(t, "unknown", l.Component())
}

func TestStructuredLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf, Component: ComponentHTTP}))

	sl.LogError(context.Background(), "Template execution failed", errors.New("boom"),
		ComponentTemplate, OpRender, NewFields().WithSession("s1"))

	out := buf.String()
	assert.Contains(t, out, "component=template")
	assert.Contains(t, out, "operation=render")
	assert.Contains(t, out, "session_id=s1")
	assert.Contains(t, out, "error=boom")
}

func TestStructuredLogHTTPEnd(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf}))

	r := httptest.NewRequest(http.MethodGet, "/ui/tab", nil)
	sl.LogHTTPEnd(context.Background(), r, http.StatusTooManyRequests, 3, "192.0.2.1")

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "status_code=429")
	assert.Contains(t, out, "client_ip=192.0.2.1")
}
