package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
)

// HeaderSessionID carries the page session id on HTMX requests.
const HeaderSessionID = "X-Session-ID"

// sessionID reads the page session id from the header, falling back to
// the "session" form or query value.
func sessionID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(HeaderSessionID)); id != "" {
		return id
	}
	return strings.TrimSpace(r.FormValue("session"))
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// execute renders a template into memory so a failure never leaves a
// half-written response.
func (s *Server) execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
