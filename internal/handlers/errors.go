package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"companion-backend/internal/common"
	"companion-backend/internal/logging"
	"companion-backend/internal/middleware"
	"companion-backend/utils/response"

	"github.com/google/uuid"
)

const maxJSONBody = 1 << 20

// ErrorWriter turns service errors into responses. Anything it does not
// recognise is logged and answered with a bare 500; the underlying error
// reaches the client only in development.
type ErrorWriter struct {
	log         logging.Logger
	development bool
}

func NewErrorWriter(log logging.Logger, development bool) *ErrorWriter {
	return &ErrorWriter{log: log, development: development}
}

// Aborted records a failure after the response status has gone out, when
// the client can no longer be told.
func (e *ErrorWriter) Aborted(r *http.Request, msg string, err error) {
	e.log.Warn(r.Context(), msg,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.RequestIDFromContext(r.Context()),
		"error", err,
	)
}

func (e *ErrorWriter) Write(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *common.ValidationError
	switch {
	case errors.As(err, &invalid):
		response.ErrorWithDetails(w, http.StatusBadRequest, "Validation failed", invalid.Fields())
	case errors.Is(err, common.ErrValidation):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrDuplicateIdentity):
		response.Error(w, http.StatusConflict, "Username or email already registered")
	case errors.Is(err, common.ErrInvalidCredentials):
		response.Error(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, common.ErrNoToken):
		response.Error(w, http.StatusForbidden, "No token provided")
	case errors.Is(err, common.ErrUnauthorized):
		response.Error(w, http.StatusUnauthorized, middleware.UnauthorizedMessage(err))
	case errors.Is(err, common.ErrForbidden):
		response.ErrorWithDetails(w, http.StatusForbidden, "Access denied", forbiddenDetails(err))
	case errors.Is(err, common.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Not found")
	default:
		e.log.Error(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"error", err,
		)
		if e.development {
			response.ErrorWithDetails(w, http.StatusInternalServerError, "Internal server error", []string{err.Error()})
			return
		}
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

func forbiddenDetails(err error) []string {
	if err == common.ErrForbidden {
		return nil
	}
	return []string{err.Error()}
}

// decodeJSON reads a JSON body of at most 1 MiB into dst. On failure the
// response has already been written. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return false
	}
	if errors.Is(err, io.EOF) {
		response.Error(w, http.StatusBadRequest, "Request body is empty")
		return false
	}
	response.Error(w, http.StatusBadRequest, "Invalid request body")
	return false
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}
