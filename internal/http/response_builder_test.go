package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Status(http.StatusOK).BodyString("test").Write(w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", w.Body.String())
	assert.Empty(t, w.Header().Get("HX-Trigger"))
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().
		TriggerFormReset().
		TriggerSuccessNotification("Task added successfully").
		Write(w)

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &got))
	assert.Len(t, got, 2)
	assert.Contains(t, got, "form:reset")
	assert.JSONEq(t, `{"type":"success","message":"Task added successfully","duration":3000}`, string(got["show-notification"]))
}

func TestHTMXResponseBuilder_Warning(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Status(http.StatusUnprocessableEntity).TriggerWarningNotification("careful").Write(w)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Header().Get("HX-Trigger"), `"type":"warning"`)
}

func TestErrorResponseEscapes(t *testing.T) {
	w := httptest.NewRecorder()
	BadRequestError("<b>bad</b>").Write(w)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, `<div class="error">&lt;b&gt;bad&lt;/b&gt;</div>`, w.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestInternalServerErrorNotifies(t *testing.T) {
	w := httptest.NewRecorder()
	InternalServerError("Could not save").Write(w)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Header().Get("HX-Trigger"), `"type":"error"`)
}

func TestSessionExpired(t *testing.T) {
	w := httptest.NewRecorder()
	SessionExpired().Write(w)
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, "true", w.Header().Get("HX-Refresh"))
	assert.Empty(t, w.Body.String())
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	NoContent().Write(w)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}
