// internal/app/features/health/handler.go
package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/memoria/internal/app/system/timeouts"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Check pings one backing service.
type Check func(ctx context.Context) error

// Handler holds the dependency checks run by GET /health.
type Handler struct {
	Database Check
	Locks    Check // nil when locks are in-process
	Log      *zap.Logger
}

// NewHandler builds a health Handler that pings client and, when given,
// the Redis lock backend.
func NewHandler(client *mongo.Client, rdb redis.UniversalClient, logger *zap.Logger) *Handler {
	h := &Handler{
		Database: func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
		Log:      logger,
	}
	if rdb != nil {
		h.Locks = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return h
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Locks    string `json:"locks"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "locks":"local" }
//
// When a dependency is down: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable", "error":"…" }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{Status: "ok", Database: "connected", Locks: "local"}

	if err := h.Database(ctx); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
	}

	if h.Locks != nil {
		resp.Locks = "redis"
		if err := h.Locks(ctx); err != nil {
			h.Log.Error("health-check: redis ping failed", zap.Error(err))
			resp.Locks = "disconnected"
			if resp.Status == "ok" {
				resp.Status = "error"
				resp.Message = "Lock backend unavailable"
				resp.Error = err.Error()
			}
		}
	}

	if resp.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
