// internal/app/features/chat/channels.go
package chat

import (
	"context"
	"net/http"

	"github.com/dalemusser/crewhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeListChannels handles GET /api/chat/channels.
func (h *Handler) ServeListChannels(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	entries, err := h.Chat.ListChannels(ctx, uid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// ServeChannel handles GET /api/chat/channels/{channelID}. A channel the
// caller cannot see is reported as not found.
func (h *Handler) ServeChannel(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	chID, ok := pathID(w, r, "channelID")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	detail, err := h.Chat.GetChannel(ctx, uid, chID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if detail == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found"})
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleMarkRead handles POST /api/chat/channels/{channelID}/read.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	chID, ok := pathID(w, r, "channelID")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Chat.MarkAsRead(ctx, uid, chID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeChannelUnread handles GET /api/chat/channels/{channelID}/unread.
func (h *Handler) ServeChannelUnread(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	chID, ok := pathID(w, r, "channelID")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Chat.UnreadCountForChannel(ctx, uid, chID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

// ServeTotalUnread handles GET /api/chat/unread.
func (h *Handler) ServeTotalUnread(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := h.Chat.TotalUnreadCount(ctx, uid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

type dmRequest struct {
	UserID string `json:"user_id"`
}

// HandleDM handles POST /api/chat/dm.
func (h *Handler) HandleDM(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	var req dmRequest
	if !decodeBody(w, r, &req) {
		return
	}
	other, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid user_id"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, err := h.Chat.GetOrCreateDM(ctx, uid, other)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, channelIDResponse{ChannelID: id.Hex()})
}

// HandleCompany handles POST /api/chat/company.
func (h *Handler) HandleCompany(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id, err := h.Chat.GetOrCreateCompanyChannel(ctx, uid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, channelIDResponse{ChannelID: id.Hex()})
}
