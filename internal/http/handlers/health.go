package handlers

import (
	"context"
	"net/http"
	"time"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok", "chain": a.Chain != nil}
	if a.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.Ping(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("health: database ping failed")
			status["status"] = "degraded"
			a.json(w, http.StatusServiceUnavailable, status)
			return
		}
	}
	a.json(w, http.StatusOK, status)
}
