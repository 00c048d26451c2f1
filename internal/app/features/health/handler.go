// internal/app/features/health/handler.go
package health

import (
	"context"
	"net/http"
	"time"

	apierrors "github.com/dalemusser/articlio/internal/app/features/errors"
	"github.com/dalemusser/articlio/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler reports whether the API and its database are reachable.
type Handler struct {
	Client  *mongo.Client
	Log     *zap.Logger
	started time.Time
}

func NewHandler(client *mongo.Client, logger *zap.Logger) *Handler {
	return &Handler{
		Client:  client,
		Log:     logger,
		started: time.Now(),
	}
}

type healthResponse struct {
	Status        string `json:"status"`
	Database      string `json:"database"`
	LatencyMS     int64  `json:"latencyMs"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	Message       string `json:"message,omitempty"`
}

// Serve handles GET /health.
//
//	200 { "status":"ok", "database":"connected", ... }
//	503 { "status":"error", "database":"disconnected", "message":"Database unavailable", ... }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	begin := time.Now()
	err := h.Client.Ping(ctx, readpref.Primary())
	resp := healthResponse{
		Status:        "ok",
		Database:      "connected",
		LatencyMS:     time.Since(begin).Milliseconds(),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	}

	if err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		apierrors.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	apierrors.JSON(w, http.StatusOK, resp)
}
