// internal/app/features/chat/handler.go
package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	chatcore "github.com/dalemusser/crewhub/internal/app/chat"
	"github.com/dalemusser/crewhub/internal/app/system/authz"
	"github.com/dalemusser/crewhub/internal/app/system/limits"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the chat JSON API on top of the chat service.
type Handler struct {
	Chat *chatcore.Service
	Log  *zap.Logger
}

// NewHandler creates a chat Handler.
func NewHandler(svc *chatcore.Service, logger *zap.Logger) *Handler {
	return &Handler{Chat: svc, Log: logger}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to HTTP statuses. Unexpected errors are
// logged and hidden behind a generic body.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, chatcore.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, chatcore.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, chatcore.ErrWindowExpired), errors.Is(err, chatcore.ErrAlreadyDeleted):
		status = http.StatusConflict
	case errors.Is(err, chatcore.ErrInvalidArgument):
		status = http.StatusBadRequest
	default:
		h.Log.Error("chat request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: chatcore.Kind(err)})
}

// caller returns the signed-in user's id, writing 401 when absent.
func caller(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return primitive.NilObjectID, false
	}
	return uid, true
}

// pathID parses a chi URL param as an ObjectID, writing 400 when malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid " + name})
		return primitive.NilObjectID, false
	}
	return oid, true
}

// decodeBody decodes a JSON body into v, writing 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxChatBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

type idResponse struct {
	ID string `json:"id"`
}

type channelIDResponse struct {
	ChannelID string `json:"channel_id"`
}

type countResponse struct {
	Count int64 `json:"count"`
}
