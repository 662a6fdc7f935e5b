package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"companion-backend/internal/auth"
	"companion-backend/internal/common"
	"companion-backend/utils/response"

	"github.com/google/uuid"
)

type contextKey string

const (
	subjectIDKey contextKey = "subjectID"
	subjectKey   contextKey = "subject"
	requestIDKey contextKey = "requestID"
	accessLogKey contextKey = "accessLog"
)

// AccessTokenHeader is checked before the Authorization header.
const AccessTokenHeader = "x-access-token"

type AuthMiddleware struct {
	codec *auth.Codec
}

func NewAuthMiddleware(codec *auth.Codec) *AuthMiddleware {
	return &AuthMiddleware{codec: codec}
}

// ExtractToken returns the bearer credential of r, or "" if it carries none.
func ExtractToken(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(AccessTokenHeader)); token != "" {
		return token
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAuth rejects requests without a token with 403 and requests with a
// bad one with 401. Otherwise the subject id is put in the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractToken(r)
		if token == "" {
			response.Error(w, http.StatusForbidden, "No token provided")
			return
		}

		subjectID, err := m.codec.Verify(token, auth.KindAccess)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, UnauthorizedMessage(err))
			return
		}

		if rec := accessRecordFrom(r.Context()); rec != nil {
			rec.subjectID = subjectID
		}
		ctx := context.WithValue(r.Context(), subjectIDKey, subjectID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UnauthorizedMessage is the client-facing text for a failed verification.
func UnauthorizedMessage(err error) string {
	if errors.Is(err, common.ErrTokenExpired) {
		return "Token expired"
	}
	return "Unauthorized"
}

func SubjectIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(subjectIDKey).(uuid.UUID)
	return id, ok
}

// WithSubjectID is what RequireAuth stores. Exposed for handler tests.
func WithSubjectID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, subjectIDKey, id)
}
