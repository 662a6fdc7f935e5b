package middleware

import (
	"context"
	"net/http"
	"time"

	"companion-backend/internal/logging"

	"github.com/google/uuid"
)

// accessRecord is filled in by handlers further down the chain, e.g. the
// subject id once the token has been verified.
type accessRecord struct {
	subjectID uuid.UUID
}

func accessRecordFrom(ctx context.Context) *accessRecord {
	rec, _ := ctx.Value(accessLogKey).(*accessRecord)
	return rec
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// AccessLog writes one line per request once it has been served.
func AccessLog(log logging.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &accessRecord{}
			sw := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(sw, r.WithContext(context.WithValue(r.Context(), accessLogKey, rec)))

			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}
			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", sw.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", RequestIDFromContext(r.Context()),
			}
			if rec.subjectID != uuid.Nil {
				args = append(args, "subject_id", rec.subjectID.String())
			}

			if status >= http.StatusInternalServerError {
				log.Warn(r.Context(), "request", args...)
				return
			}
			log.Info(r.Context(), "request", args...)
		})
	}
}
