package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/crewhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks. Client is nil when
// the service runs on the in-memory store.
type Handler struct {
	Client *mongo.Client
	Log    *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client and logger.
func NewHandler(client *mongo.Client, logger *zap.Logger) *Handler {
	return &Handler{Client: client, Log: logger}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected" }
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.Client == nil {
		_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok", Database: "memory"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(healthResponse{
			Status:   "error",
			Database: "disconnected",
			Message:  "Database unavailable",
			Error:    err.Error(),
		})
		return
	}

	_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok", Database: "connected"})
}
