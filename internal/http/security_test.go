package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	e, err := NewClientIPExtractor(nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct", "203.0.113.5:1234", "", "", "203.0.113.5"},
		{"untrusted proxy ignored", "203.0.113.5:1234", "1.1.1.1", "", "203.0.113.5"},
		{"trusted proxy xff", "10.0.0.2:1234", "198.51.100.7, 10.0.0.2", "", "198.51.100.7"},
		{"trusted proxy real ip", "127.0.0.1:1234", "", "198.51.100.8", "198.51.100.8"},
		{"trusted proxy garbage", "127.0.0.1:1234", "nope", "", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, e.ClientIP(r))
		})
	}
}

func TestClientIPExtractorConfigured(t *testing.T) {
	e, err := NewClientIPExtractor([]string{"192.0.2.1"})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:80"
	r.Header.Set("X-Forwarded-For", "198.51.100.9")
	assert.Equal(t, "198.51.100.9", e.ClientIP(r))

	r.RemoteAddr = "10.0.0.1:80"
	assert.Equal(t, "10.0.0.1", e.ClientIP(r))

	_, err = NewClientIPExtractor([]string{"not-an-ip/99"})
	assert.Error(t, err)
}
