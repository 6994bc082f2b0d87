package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ftt/internal/backend"
	"ftt/internal/core"
	"ftt/internal/log"
	"ftt/internal/metrics"
	"ftt/internal/session"
)

var sessionRe = regexp.MustCompile(`"X-Session-ID": "([0-9a-f-]+)"`)

type testEnv struct {
	srv      *Server
	sessions *session.Registry
	metrics  *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := log.New(log.Config{Output: io.Discard})

	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backend.Config{Type: backend.MemoryBackend})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })

	m := metrics.New()
	sessions := session.NewRegistry(session.Options{
		MaxSessions: 10,
		TTL:         time.Hour,
		Stores:      res.Provider,
		Observer:    m,
		Logger:      logger,
	})
	srv, err := NewServer(Options{
		Addr:           ":0",
		Sessions:       sessions,
		Backend:        res.Provider,
		Metrics:        m,
		Logger:         logger,
		RateLimitBurst: 40,
	})
	require.NoError(t, err)
	srv.today = func() core.Date { return core.NewDate(2024, 1, 15) }
	return &testEnv{srv: srv, sessions: sessions, metrics: m}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

// open loads the page and returns the new session id.
func (e *testEnv) open(t *testing.T) string {
	t.Helper()
	rr := e.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	m := sessionRe.FindStringSubmatch(rr.Body.String())
	require.Len(t, m, 2, "page should carry the session id")
	return m[1]
}

func (e *testEnv) post(t *testing.T, sid, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	req.Header.Set(HeaderSessionID, sid)
	return e.do(t, req)
}

func (e *testEnv) tab(t *testing.T, sid, index string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/ui/tab?index="+index, nil)
	req.Header.Set(HeaderSessionID, sid)
	return e.do(t, req)
}

func taskForm(companyID string) url.Values {
	return url.Values{
		"description":   {"Website redesign"},
		"amount":        {"250"},
		"companyId":     {companyID},
		"date":          {"2024-01-15"},
		"paymentStatus": {"Unpaid"},
	}
}

func TestIndexRendersTasksTab(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "<title>Financial Task Tracker</title>")
	assert.Contains(t, body, `data-panel="tasks"`)
	assert.Contains(t, body, "Task Code: <span>0001</span>")
	assert.Contains(t, body, `value="2024-01-15"`)
	assert.Contains(t, body, "Select a company")
	assert.NotContains(t, body, "panel-companies")
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, 1, env.sessions.Len())
}

func TestEachPageLoadStartsFreshSession(t *testing.T) {
	env := newTestEnv(t)
	first := env.open(t)
	require.Equal(t, http.StatusOK, env.post(t, first, "/companies", url.Values{"name": {"Acme"}}).Code)

	second := env.open(t)
	assert.NotEqual(t, first, second)
	rr := env.tab(t, second, "1")
	assert.NotContains(t, rr.Body.String(), "Acme")
}

func TestTabSwitchingKeepsData(t *testing.T) {
	env := newTestEnv(t)
	sid := env.open(t)

	rr := env.tab(t, sid, "1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `data-panel="companies"`)
	assert.NotContains(t, rr.Body.String(), "panel-tasks")

	require.Equal(t, http.StatusOK, env.post(t, sid, "/companies", url.Values{"name": {"Acme"}}).Code)

	rr = env.tab(t, sid, "0")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `data-panel="tasks"`)
	assert.Contains(t, rr.Body.String(), `<option value="1">Acme</option>`)

	rr = env.tab(t, sid, "1")
	assert.Contains(t, rr.Body.String(), "<td>Acme</td>")
}

func TestInvalidTabIndex(t *testing.T) {
	env := newTestEnv(t)
	sid := env.open(t)

	for _, idx := range []string{"2", "-1", "x", ""} {
		rr := env.tab(t, sid, idx)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "index %q", idx)
	}
	rr := env.tab(t, sid, "0")
	assert.Contains(t, rr.Body.String(), `data-panel="tasks"`)
}

func TestAddCompany(t *testing.T) {
	env := newTestEnv(t)
	sid := env.open(t)

	rr := env.post(t, sid, "/companies", url.Values{"name": {"  Acme  "}})
	require.Equal(t, http.StatusOK, rr.Code)
	trigger := rr.Header().Get("HX-Trigger")
	assert.Contains(t, trigger, "Company added successfully")
	assert.Contains(t, trigger, "form:reset")
	assert.Contains(t, rr.Body.String(), `id="tab-container"`)

	sess, err := env.sessions.Get(sid)
	require.NoError(t, err)
	companies, err := sess.Book.Companies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.Company{{ID: 1, Name: "Acme"}}, companies)
}

func TestAddCompanyBlankIsSuppressed(t *testing.T) {
	env := newTestEnv(t)
	sid := env.open(t)

	for _, name := range []string{"", "   "} {
		rr := env.post(t, sid, "/companies", url.Values{"name": {name}})
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Empty(t, rr.Body.String())
		assert.Empty(t, rr.Header().Get("HX-Trigger"))
	}

	require.Equal(t, http.StatusOK, env.post(t, sid, "/companies", url.Values{"name": {"Acme"}}).Code)
	sess, _ := env.sessions.Get(sid)
	companies, _ := sess.Book.Companies(context.Background())
	require.Len(t, companies, 1)
	assert.Equal(t, int64(1), companies[0].ID)
}

func TestAcmeScenario(t *testing.T) {
	env := newTestEnv(t)
	sid := env.open(t)

	require.Equal(t, http.StatusOK, env.post(t, sid, "/companies", url.Values{"name": {"Acme"}}).Code)

	rr := env.post(t, sid, "/tasks", taskForm("1"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), "Task added successfully")

	body := rr.Body.String()
	assert.Contains(t, body, `<td class="code">0001</td>`)
	assert.Contains(t, body, `<td class="amount">$250.00</td>`)
	assert.Contains(t, body, "<td>Acme</td>")
	assert.Contains(t, body, "<td>Jan 15, 2024</td>")
	assert.Contains(t, body, `badge badge-unpaid bg-yellow-100 text-yellow-800`)
	assert.Contains(t, body, "Task Code: <span>0002</span>")

	sess, _ := env.sessions.Get(sid)
	tasks, err := sess.Book.Tasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "0001", tasks[0].Code)
	assert.Equal(t, "Acme", tasks[0].CompanyName)
	assert.Equal(t, int64(25000), tasks[0].Amount.Cents)
}

func TestAddTaskPaidBadge(t *testing.T) {
	env := newTestEnv(t)
	sid := env.open(t)
	env.post(t, sid, "/companies", url.Values{"name": {"Acme"}})

	form := taskForm("1")
	form.Set("paymentStatus", "Paid")
	rr := env.post(t, sid, "/tasks", form)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "badge badge-paid bg-green-100 text-green-800")
}

func TestAddTaskSuppressed(t *testing.T) {
	env := newTestEnv(t)
	sid := env.open(t)
	env.post(t, sid, "/companies", url.Values{"name": {"Acme"}})

	tests := []struct {
		name  string
		field string
		value string
	}{
		{"missing description", "description", ""},
		{"missing amount", "amount", ""},
		{"bad amount", "amount", "abc"},
		{"negative amount", "amount", "-5"},
		{"missing company", "companyId", ""},
		{"bad company", "companyId", "acme"},
		{"missing date", "date", ""},
		{"bad date", "date", "15/01/2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := taskForm("1")
			form.Set(tt.field, tt.value)
			rr := env.post(t, sid, "/tasks", form)
			assert.Equal(t, http.StatusNoContent, rr.Code)
			assert.Empty(t, rr.Header().Get("HX-Trigger"))
		})
	}

	sess, _ := env.sessions.Get(sid)
	tasks, _ := sess.Book.Tasks(context.Background())
	assert.Empty(t, tasks)
	assert.Equal(t, int64(1), sess.Book.NextTaskID())
}

func TestAddTaskUnknownCompany(t *testing.T) {
	env := newTestEnv(t)
	sid := env.open(t)

	rr := env.post(t, sid, "/tasks", taskForm("99"))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	trigger := rr.Header().Get("HX-Trigger")
	assert.Contains(t, trigger, msgUnknownCompany)
	assert.Contains(t, trigger, `"type":"warning"`)

	sess, _ := env.sessions.Get(sid)
	tasks, _ := sess.Book.Tasks(context.Background())
	assert.Empty(t, tasks)
}

func TestUnknownSessionRefreshes(t *testing.T) {
	env := newTestEnv(t)

	rr := env.post(t, "not-a-session", "/companies", url.Values{"name": {"Acme"}})
	assert.Equal(t, http.StatusGone, rr.Code)
	assert.Equal(t, "true", rr.Header().Get("HX-Refresh"))

	rr = env.tab(t, "", "1")
	assert.Equal(t, http.StatusGone, rr.Code)
}

func TestSessionFormFallback(t *testing.T) {
	env := newTestEnv(t)
	sid := env.open(t)

	form := url.Values{"name": {"Acme"}, "session": {sid}}
	req := httptest.NewRequest(http.MethodPost, "/companies", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := env.do(t, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, httptest.NewRequest(http.MethodGet, "/companies", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := env.do(t, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	}

	env.srv.backend = failingPinger{}
	rr := env.do(t, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "not_ready")
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	sid := env.open(t)
	env.post(t, sid, "/companies", url.Values{"name": {"Acme"}})
	env.post(t, sid, "/companies", url.Values{"name": {""}})

	rr := env.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "ftt_companies_added_total 1")
	assert.Contains(t, body, `ftt_submissions_rejected_total{form="company",reason="name.required"} 1`)
	assert.Contains(t, body, `route="POST /companies"`)
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Cache-Control"), "max-age=3600")
}

func TestRateLimitedPosts(t *testing.T) {
	env := newTestEnv(t)
	sid := env.open(t)

	var limited bool
	for i := 0; i < 100; i++ {
		rr := env.post(t, sid, "/companies", url.Values{"name": {""}})
		if rr.Code == http.StatusTooManyRequests {
			limited = true
			assert.Equal(t, "60", rr.Header().Get("Retry-After"))
			break
		}
	}
	assert.True(t, limited)
	assert.Equal(t, http.StatusOK, env.tab(t, sid, "1").Code)
}

func TestRateLimitedPageLoads(t *testing.T) {
	env := newTestEnv(t)

	var ok, limited int
	for i := 0; i < 100; i++ {
		rr := env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
		switch rr.Code {
		case http.StatusOK:
			ok++
		case http.StatusTooManyRequests:
			limited++
			assert.Equal(t, "60", rr.Header().Get("Retry-After"))
			assert.Empty(t, rr.Header().Get("HX-Trigger"))
		default:
			t.Fatalf("unexpected status %d", rr.Code)
		}
	}

	assert.Positive(t, limited)
	assert.Less(t, ok, 100)
	assert.LessOrEqual(t, env.sessions.Len(), 10)

	// Health checks stay outside the limiter.
	rr := env.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEqual(t, http.StatusTooManyRequests, rr.Code)
}
