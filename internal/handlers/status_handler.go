package handlers

import (
	"context"
	"net/http"
	"time"

	"companion-backend/utils/response"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

// StatusHandler is the liveness probe. A failing database ping is reported
// but still answers 200: the process itself is alive.
type StatusHandler struct {
	db      Pinger
	started time.Time
}

func NewStatusHandler(db Pinger) *StatusHandler {
	return &StatusHandler{db: db, started: time.Now()}
}

type statusResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	res := statusResponse{
		Status:   "ok",
		Database: "ok",
		Uptime:   time.Since(h.started).Round(time.Second).String(),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			res.Status = "degraded"
			res.Database = "unavailable"
		}
	}

	response.Success(w, res, "")
}
