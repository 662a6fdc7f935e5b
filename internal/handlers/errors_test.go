package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"companion-backend/internal/common"
	"companion-backend/internal/logging"

	"github.com/stretchr/testify/assert"
)

func TestErrorWriter(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", common.Invalid("title", "is required"), http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("create: %w", common.ErrValidation), http.StatusBadRequest},
		{"duplicate", common.ErrDuplicateIdentity, http.StatusConflict},
		{"credentials", common.ErrInvalidCredentials, http.StatusUnauthorized},
		{"no token", common.ErrNoToken, http.StatusForbidden},
		{"expired", common.ErrTokenExpired, http.StatusUnauthorized},
		{"forbidden", fmt.Errorf("%w: account is suspended", common.ErrForbidden), http.StatusForbidden},
		{"not found", fmt.Errorf("failed to get task: %w", common.ErrNotFound), http.StatusNotFound},
		{"anything else", errBoom, http.StatusInternalServerError},
	}

	errs := NewErrorWriter(logging.Nop{}, false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			errs.Write(rec, httptest.NewRequest("GET", "/", nil), tt.err)
			assert.Equal(t, tt.want, rec.Code)

			res := decodeEnvelope(t, rec, nil)
			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Code)
		})
	}
}

func TestErrorWriter_ValidationDetails(t *testing.T) {
	v := &common.ValidationError{}
	v.Add("title", "is required")
	v.Add("priority", "must be one of low, medium, high")

	rec := httptest.NewRecorder()
	NewErrorWriter(logging.Nop{}, false).Write(rec, httptest.NewRequest("POST", "/", nil), v)

	res := decodeEnvelope(t, rec, nil)
	assert.Equal(t, []string{"title: is required", "priority: must be one of low, medium, high"}, res.Details)
}

func TestErrorWriter_InternalDetailsOnlyInDevelopment(t *testing.T) {
	var logs bytes.Buffer
	log := logging.New(&logs, "production", "info")
	err := fmt.Errorf("failed to list tasks: %w", errBoom)

	rec := httptest.NewRecorder()
	NewErrorWriter(log, false).Write(rec, httptest.NewRequest("GET", "/api/tasks", nil), err)
	assert.NotContains(t, rec.Body.String(), "boom")
	assert.Contains(t, logs.String(), "failed to list tasks: boom")

	rec = httptest.NewRecorder()
	NewErrorWriter(log, true).Write(rec, httptest.NewRequest("GET", "/api/tasks", nil), err)
	assert.Contains(t, rec.Body.String(), "failed to list tasks: boom")
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Title string `json:"title"`
	}

	tests := []struct {
		name string
		body string
		ok   bool
		code int
	}{
		{"valid", `{"title":"x","unknown":1}`, true, http.StatusOK},
		{"empty", ``, false, http.StatusBadRequest},
		{"malformed", `{"title":`, false, http.StatusBadRequest},
		{"too large", `{"title":"` + strings.Repeat("a", maxJSONBody) + `"}`, false, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ok := decodeJSON(rec, httptest.NewRequest("POST", "/", strings.NewReader(tt.body)), &dst)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}
