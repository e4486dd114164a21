package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHealthServer(t *testing.T) {
	srv := NewHealthServer(discardLogger(), 8081)
	assert.Equal(t, ":8081", srv.Addr)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidationError(t *testing.T) {
	type payload struct {
		Name  string   `validate:"required"`
		Terms []string `validate:"required,min=1"`
	}

	tests := []struct {
		name       string
		err        error
		wantFields []string
	}{
		{
			name:       "field errors are listed",
			err:        Validator.Struct(payload{}),
			wantFields: []string{"name failed required", "terms failed required"},
		},
		{
			name: "other errors fall back to plain text",
			err:  errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ValidationError(discardLogger(), rec, tt.err)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			if tt.wantFields == nil {
				assert.Contains(t, rec.Body.String(), "invalid payload")
				return
			}
			var body struct {
				Error  string   `json:"error"`
				Fields []string `json:"fields"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "validation failed", body.Error)
			assert.Equal(t, tt.wantFields, body.Fields)
		})
	}
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
