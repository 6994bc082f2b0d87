package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ftt/internal/core"
	"ftt/internal/forms"
	"ftt/internal/ledger"
	"ftt/internal/log"
	"ftt/internal/session"
	"ftt/internal/view"
)

const msgUnknownCompany = "Selected company no longer exists"

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks templates and the data backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.backend != nil {
		if err := s.backend.Ping(ctx); err != nil {
			checks["backend"] = fmt.Sprintf("failed: %v", err)
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["backend"] = "ok"
		}
	} else {
		checks["backend"] = "not_configured"
	}

	checks["sessions"] = map[string]any{"active": s.sessions.Len(), "status": "ok"}
	checks["rate_limiter"] = map[string]any{"active_clients": s.limiter.ActiveClients(), "status": "ok"}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleIndex opens a new page session and renders the full page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.New(r.Context())
	data, err := s.container(r.Context(), sess)
	if err != nil {
		s.fail(w, r, sess.ID, "Failed to load session", err)
		return
	}
	s.render(w, r, http.StatusOK, "index.html", data)
}

// handleSelectTab switches the active tab and re-renders the container.
func (s *Server) handleSelectTab(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err == nil {
		err = sess.Tabs.Select(index)
	}
	if err != nil {
		BadRequestError("Unknown tab").Write(w)
		return
	}
	s.renderContainer(w, r, sess, NewHTMXResponse())
}

func (s *Server) handleAddCompany(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	f, err := forms.ParseCompany(r.PostForm)
	if err != nil {
		s.suppress(w, r, sess.ID, forms.FormCompany, err)
		return
	}

	c, err := sess.Book.AddCompany(r.Context(), f.Name)
	switch {
	case errors.Is(err, ledger.ErrEmptyName):
		s.suppress(w, r, sess.ID, forms.FormCompany, &forms.SuppressedError{Form: forms.FormCompany, Reason: "name.required"})
		return
	case err != nil:
		s.fail(w, r, sess.ID, "Could not add company", err)
		return
	}

	s.metrics.CompanyAdded()
	s.structured.LogCompanyAdded(r.Context(), sess.ID, c.ID, c.Name)
	s.renderContainer(w, r, sess, NewHTMXResponse().
		TriggerFormReset().
		TriggerSuccessNotification(core.NewCompanyAdded(sess.ID, c).Message()))
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	f, err := forms.ParseTask(r.PostForm)
	if err != nil {
		s.suppress(w, r, sess.ID, forms.FormTask, err)
		return
	}
	in, err := f.Input()
	if err != nil {
		s.suppress(w, r, sess.ID, forms.FormTask, err)
		return
	}
	in.Description = sanitizeInput(in.Description)

	t, err := sess.Book.AddTask(r.Context(), in)
	switch {
	case errors.Is(err, ledger.ErrUnknownCompany):
		s.metrics.Reject(forms.FormTask, "companyId.unknown")
		s.structured.LogRejected(r.Context(), sess.ID, forms.FormTask, "companyId.unknown")
		s.renderContainer(w, r, sess, NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			TriggerWarningNotification(msgUnknownCompany))
		return
	case errors.Is(err, ledger.ErrMissingField):
		s.suppress(w, r, sess.ID, forms.FormTask, &forms.SuppressedError{Form: forms.FormTask, Reason: "task.invalid"})
		return
	case err != nil:
		s.fail(w, r, sess.ID, "Could not add task", err)
		return
	}

	s.metrics.TaskAdded(t.Status.String())
	s.structured.LogTaskAdded(r.Context(), sess.ID, t.ID, t.Code, t.Amount.Cents, t.Status.String())
	s.renderContainer(w, r, sess, NewHTMXResponse().
		TriggerFormReset().
		TriggerSuccessNotification(core.NewTaskAdded(sess.ID, t).Message()))
}

// lookupSession resolves the page session of a request. Unknown sessions
// make the browser reload, which opens a fresh one.
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	if err := r.ParseForm(); err != nil {
		s.logger.WarnContext(r.Context(), "Parse form error", log.FieldError, err, log.FieldPath, r.URL.Path)
		BadRequestError("Invalid request format").Write(w)
		return nil, false
	}
	sess, err := s.sessions.Get(sessionID(r))
	if err != nil {
		s.logger.InfoContext(r.Context(), "Unknown session, refreshing page", log.FieldPath, r.URL.Path)
		SessionExpired().Write(w)
		return nil, false
	}
	return sess, true
}

func (s *Server) suppress(w http.ResponseWriter, r *http.Request, sessionID, form string, err error) {
	reason := forms.Reason(err)
	if reason == "" {
		s.fail(w, r, sessionID, "Could not read form", err)
		return
	}
	s.metrics.Reject(form, reason)
	s.structured.LogRejected(r.Context(), sessionID, form, reason)
	NoContent().Write(w)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, sessionID, msg string, err error) {
	s.structured.LogError(r.Context(), msg, err, log.ComponentHTTP, r.Method+" "+r.URL.Path,
		log.NewFields().WithSession(sessionID))
	InternalServerError(msg).Write(w)
}

func (s *Server) renderFailed(w http.ResponseWriter, r *http.Request, sessionID string, err error) {
	s.structured.LogError(r.Context(), "Template execution failed", err, log.ComponentTemplate, log.OpRender,
		log.NewFields().WithSession(sessionID))
	InternalServerError("Failed to render page").Write(w)
}

// container snapshots the session into the tab container model.
func (s *Server) container(ctx context.Context, sess *session.Session) (view.Container, error) {
	companies, err := sess.Book.Companies(ctx)
	if err != nil {
		return view.Container{}, fmt.Errorf("list companies: %w", err)
	}
	tasks, err := sess.Book.Tasks(ctx)
	if err != nil {
		return view.Container{}, fmt.Errorf("list tasks: %w", err)
	}
	return s.format.Build(view.Snapshot{
		SessionID:  sess.ID,
		Tabs:       sess.Tabs,
		Companies:  companies,
		Tasks:      tasks,
		NextTaskID: sess.Book.NextTaskID(),
		Today:      s.today(),
	}), nil
}

func (s *Server) renderContainer(w http.ResponseWriter, r *http.Request, sess *session.Session, resp *HTMXResponseBuilder) {
	data, err := s.container(r.Context(), sess)
	if err != nil {
		s.fail(w, r, sess.ID, "Failed to load session", err)
		return
	}
	body, err := s.execute("tab-container", data)
	if err != nil {
		s.renderFailed(w, r, sess.ID, err)
		return
	}
	resp.BodyHTML(body).Write(w)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, code int, name string, data any) {
	body, err := s.execute(name, data)
	if err != nil {
		s.renderFailed(w, r, "", err)
		return
	}
	NewHTMXResponse().Status(code).BodyHTML(body).Write(w)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
