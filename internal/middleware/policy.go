package middleware

import (
	"context"
	"errors"
	"net/http"

	"companion-backend/internal/common"
	"companion-backend/internal/logging"
	"companion-backend/internal/models"
	"companion-backend/utils/response"

	"github.com/google/uuid"
)

type SubjectLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Policy holds the authorization checks that run after RequireAuth. Each
// check either answers the request itself or calls the next handler.
type Policy struct {
	users SubjectLoader
	log   logging.Logger
}

func NewPolicy(users SubjectLoader, log logging.Logger) *Policy {
	return &Policy{users: users, log: log}
}

// subject loads the authenticated user once per request. When it returns
// false the response has already been written.
func (p *Policy) subject(w http.ResponseWriter, r *http.Request) (*models.User, *http.Request, bool) {
	if user := SubjectFromContext(r.Context()); user != nil {
		return user, r, true
	}

	id, ok := SubjectIDFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Not authenticated")
		return nil, r, false
	}

	user, err := p.users.GetByID(r.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "User not found")
		return nil, r, false
	}
	if err != nil {
		p.log.Error(r.Context(), "failed to load subject", "subject_id", id, "error", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
		return nil, r, false
	}

	return user, r.WithContext(context.WithValue(r.Context(), subjectKey, user)), true
}

func (p *Policy) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, r, ok := p.subject(w, r)
		if !ok {
			return
		}
		if !user.IsAdmin() {
			response.Error(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (p *Policy) RequireActive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, r, ok := p.subject(w, r)
		if !ok {
			return
		}
		if !user.IsActive() {
			response.Error(w, http.StatusForbidden, "Account is not active")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdminOrSameUser lets the request through when the path value param
// names the caller, or when the caller is an admin.
func (p *Policy) RequireAdminOrSameUser(param string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			target, err := uuid.Parse(r.PathValue(param))
			if err != nil {
				response.Error(w, http.StatusBadRequest, "Invalid user id")
				return
			}

			if id, ok := SubjectIDFromContext(r.Context()); ok && id == target {
				next.ServeHTTP(w, r)
				return
			}

			user, r, ok := p.subject(w, r)
			if !ok {
				return
			}
			if !user.IsAdmin() {
				response.Error(w, http.StatusForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SubjectFromContext returns the user loaded by a Policy check, if any ran.
func SubjectFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(subjectKey).(*models.User)
	return user
}

// WithSubject is what a Policy check stores. Exposed for handler tests.
func WithSubject(ctx context.Context, user *models.User) context.Context {
	ctx = context.WithValue(ctx, subjectIDKey, user.ID)
	return context.WithValue(ctx, subjectKey, user)
}
