package handlers

import (
	"net/http"

	"companion-backend/internal/logging"
	"companion-backend/internal/middleware"
)

// Router holds everything the HTTP surface is assembled from.
type Router struct {
	Auth    *AuthHandler
	Users   *UserHandler
	Tasks   *TaskHandler
	Events  *EventHandler
	Health  *HealthHandler
	Mood    *MoodHandler
	Status  *StatusHandler
	Gate    *middleware.AuthMiddleware
	Policy  *middleware.Policy
	Limiter *middleware.RateLimiter // optional, guards the credential endpoints
	Log     logging.Logger
	Origins []string
	DevMode bool
}

type crudRoutes interface {
	Create(http.ResponseWriter, *http.Request)
	List(http.ResponseWriter, *http.Request)
	Get(http.ResponseWriter, *http.Request)
	Update(http.ResponseWriter, *http.Request)
	Delete(http.ResponseWriter, *http.Request)
}

// Handler registers every route and wraps the mux in the request-wide
// middleware: request id, access log, panic recovery and CORS.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	limited := func(h http.HandlerFunc) http.Handler {
		if rt.Limiter == nil {
			return h
		}
		return rt.Limiter.Middleware(h)
	}
	authed := func(h http.HandlerFunc, checks ...middleware.Middleware) http.Handler {
		return middleware.Chain(h, append([]middleware.Middleware{rt.Gate.RequireAuth, rt.Policy.RequireActive}, checks...)...)
	}
	admin := rt.Policy.RequireAdmin
	adminOrSelf := rt.Policy.RequireAdminOrSameUser("id")

	mux.HandleFunc("GET /api/status", rt.Status.Status)

	for _, path := range []string{"/api/auth/signup", "/api/auth/register"} {
		mux.Handle("POST "+path, limited(rt.Auth.RegisterUser))
	}
	for _, path := range []string{"/api/auth/signin", "/api/auth/login"} {
		mux.Handle("POST "+path, limited(rt.Auth.LoginUser))
	}
	mux.Handle("POST /api/auth/verify-token", limited(rt.Auth.VerifyToken))
	mux.Handle("POST /api/auth/refresh-token", limited(rt.Auth.RefreshToken))

	mux.Handle("GET /api/users/me", authed(rt.Users.GetUser))
	mux.Handle("PUT /api/users/me", authed(rt.Users.UpdateUser))
	mux.Handle("GET /api/users/me/notifications", authed(rt.Users.GetNotifications))
	mux.Handle("PUT /api/users/me/notifications", authed(rt.Users.UpdateNotifications))
	mux.Handle("GET /api/users/me/privacy", authed(rt.Users.GetPrivacy))
	mux.Handle("PUT /api/users/me/privacy", authed(rt.Users.UpdatePrivacy))
	mux.Handle("GET /api/users/me/avatar", authed(rt.Users.GetAvatar))
	mux.Handle("POST /api/users/me/avatar", authed(rt.Users.UploadAvatar))

	mux.Handle("GET /api/users", authed(rt.Users.ListUsers, admin))
	mux.Handle("GET /api/users/{id}", authed(rt.Users.GetUser, adminOrSelf))
	mux.Handle("PUT /api/users/{id}", authed(rt.Users.UpdateUser, adminOrSelf))
	mux.Handle("DELETE /api/users/{id}", authed(rt.Users.DeleteUser, adminOrSelf))
	mux.Handle("PUT /api/users/{id}/role", authed(rt.Users.UpdateRole, admin))
	mux.Handle("GET /api/users/{id}/avatar", authed(rt.Users.GetAvatar, adminOrSelf))
	mux.Handle("POST /api/users/{id}/avatar", authed(rt.Users.UploadAvatar, adminOrSelf))

	resource := func(prefix string, h crudRoutes) {
		mux.Handle("GET "+prefix, authed(h.List))
		mux.Handle("POST "+prefix, authed(h.Create))
		mux.Handle("GET "+prefix+"/{id}", authed(h.Get))
		mux.Handle("PUT "+prefix+"/{id}", authed(h.Update))
		mux.Handle("DELETE "+prefix+"/{id}", authed(h.Delete))
	}
	resource("/api/tasks", rt.Tasks)
	resource("/api/calendar/events", rt.Events)
	resource("/api/mood", rt.Mood)
	for _, prefix := range []string{"/api/health", "/api/health-metrics"} {
		resource(prefix, rt.Health)
		mux.Handle("GET "+prefix+"/summary", authed(rt.Health.Summary))
	}

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.AccessLog(rt.Log),
		middleware.Recover(rt.Log, rt.DevMode),
		middleware.CORS(rt.Origins),
	)
}
