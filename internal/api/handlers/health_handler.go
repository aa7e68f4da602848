package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	appErr "github.com/recipebook/api/pkg/errors"
	"github.com/recipebook/api/pkg/logger"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler { return &HealthHandler{db: db} }

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness reports whether the database answers a ping within two seconds.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		logger.L().Warn("readiness check failed", zap.Error(err))
		writeError(w, r, appErr.Wrap(err, appErr.CodeUnavailable, "database unavailable"))
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ready"})
}
