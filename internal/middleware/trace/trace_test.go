package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ftt/internal/log"
)

type recordingObserver struct {
	route, method string
	code          int
}

func (o *recordingObserver) ObserveRequest(route, method string, code int, _ time.Duration) {
	o.route, o.method, o.code = route, method, code
}

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	obs := &recordingObserver{}
	m := NewMiddleware(log.New(log.Config{Output: &buf}), func(*http.Request) string { return "1.2.3.4" }, obs)

	var seen string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tasks", func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	m.Middleware(mux).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tasks", nil))

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "POST /tasks", obs.route)
	assert.Equal(t, http.StatusNoContent, obs.code)
	assert.Contains(t, buf.String(), "status_code=204")
	assert.Contains(t, buf.String(), "client_ip=1.2.3.4")
}

func TestMiddlewareKeepsValidIncomingID(t *testing.T) {
	m := NewMiddleware(log.New(log.Config{Output: &bytes.Buffer{}}), nil, nil)
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, id)
	rec := httptest.NewRecorder()
	m.Middleware(http.NotFoundHandler()).ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "<script>")
	rec = httptest.NewRecorder()
	m.Middleware(http.NotFoundHandler()).ServeHTTP(rec, req)
	assert.NotEqual(t, "<script>", rec.Header().Get(HeaderRequestID))
}
