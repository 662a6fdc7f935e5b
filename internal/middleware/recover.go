package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"companion-backend/internal/logging"
	"companion-backend/utils/response"
)

// Recover turns a panic anywhere below it into a logged 500. The panic
// value reaches the client only in development.
func Recover(log logging.Logger, development bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.Error(r.Context(), "panic serving request",
					"path", r.URL.Path,
					"request_id", RequestIDFromContext(r.Context()),
					"panic", fmt.Sprint(rec),
					"stack", string(debug.Stack()),
				)

				if development {
					response.ErrorWithDetails(w, http.StatusInternalServerError, "Internal server error", []string{fmt.Sprint(rec)})
					return
				}
				response.Error(w, http.StatusInternalServerError, "Internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
