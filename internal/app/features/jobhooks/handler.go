// internal/app/features/jobhooks/handler.go
package jobhooks

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/crewhub/internal/app/chat"
	"github.com/dalemusser/crewhub/internal/app/system/limits"
	"github.com/dalemusser/crewhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler receives calls from the job module: a job was created, or workers
// were allocated to it. Requests carry a shared token.
type Handler struct {
	Chat  *chat.Service
	Token string
	Log   *zap.Logger
}

func NewHandler(svc *chat.Service, token string, logger *zap.Logger) *Handler {
	return &Handler{Chat: svc, Token: token, Log: logger}
}

// RequireToken rejects requests without a matching bearer token. With no
// token configured every request is refused.
func (h *Handler) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Token == "" {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "job hooks disabled"})
			return
		}
		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.Token)) != 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type createChannelRequest struct {
	OrganizationID string `json:"organization_id"`
	JobID          string `json:"job_id"`
	Name           string `json:"name"`
	CreatorID      string `json:"creator_id"`
}

// HandleCreateChannel handles POST /hooks/jobs/channel.
func (h *Handler) HandleCreateChannel(w http.ResponseWriter, r *http.Request) {
	var req createChannelRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxHookBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	orgID, err1 := primitive.ObjectIDFromHex(req.OrganizationID)
	jobID, err2 := primitive.ObjectIDFromHex(req.JobID)
	creatorID, err3 := primitive.ObjectIDFromHex(req.CreatorID)
	if err := errors.Join(err1, err2, err3); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, err := h.Chat.CreateJobChannel(ctx, orgID, jobID, req.Name, creatorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Log.Info("job channel ready",
		zap.String("job_id", jobID.Hex()),
		zap.String("channel_id", id.Hex()))
	writeJSON(w, http.StatusOK, map[string]string{"channel_id": id.Hex()})
}

type workersRequest struct {
	UserIDs []string `json:"user_ids"`
}

// HandleAddWorkers handles POST /hooks/jobs/{jobID}/workers.
func (h *Handler) HandleAddWorkers(w http.ResponseWriter, r *http.Request) {
	jobID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "jobID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid jobID"})
		return
	}
	var req workersRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxHookBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	ids := make([]primitive.ObjectID, 0, len(req.UserIDs))
	for _, s := range req.UserIDs {
		oid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id " + s})
			return
		}
		ids = append(ids, oid)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Chat.AddJobWorkers(ctx, jobID, ids); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": chat.Kind(err)})
	case errors.Is(err, chat.ErrUnauthorized):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": chat.Kind(err)})
	case errors.Is(err, chat.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": chat.Kind(err)})
	default:
		h.Log.Error("job hook failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
