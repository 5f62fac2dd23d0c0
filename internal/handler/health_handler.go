package handler

import (
	"context"
	"net/http"
	"time"

	"go-video-backend/pkg/apierror"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db pinger
}

// NewHealthHandler reports liveness. A nil db means the memory store is in
// use and there is nothing to ping.
func NewHealthHandler(db pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			writeError(w, apierror.New(apierror.CodeUnavailable, "database unavailable", "", http.StatusServiceUnavailable).WithCause(err))
			return
		}
	}

	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"}, nil)
}
