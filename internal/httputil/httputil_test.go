package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claim-summarizer/internal/logger"
)

type questionRequest struct {
	Question string `json:"question" validate:"required"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"question":"What is claimed?"}`, ""},
		{"missing field", `{}`, "question failed on 'required'"},
		{"empty field", `{"question":""}`, "question failed on 'required'"},
		{"unknown field", `{"question":"q","extra":1}`, "invalid request body"},
		{"not json", `question=q`, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst questionRequest
			err := DecodeJSON(req, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "What is claimed?", dst.Question)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFailWritesJSON(t *testing.T) {
	w := httptest.NewRecorder()
	Fail(logger.Discard(), w, "session not found", errors.New("missing"), http.StatusNotFound)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body ErrorBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "session not found", body.Error)

	w = httptest.NewRecorder()
	Fail(logger.Discard(), w, "boom", nil, 0)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRouterRecoversPanics(t *testing.T) {
	r := NewRouter(logger.Discard(), time.Second)
	r.Get("/panic", func(w http.ResponseWriter, r *http.Request) { panic("kaboom") })
	r.Get("/healthz", HealthHandler(logger.Discard()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}
