// internal/app/features/chat/messages.go
package chat

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/crewhub/internal/app/system/timeouts"
)

// ServeMessages handles GET /api/chat/channels/{channelID}/messages?limit=N.
// limit is optional; absent or 0 returns the full history up to the
// server's maximum.
func (h *Handler) ServeMessages(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	chID, ok := pathID(w, r, "channelID")
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	entries, err := h.Chat.Messages(ctx, uid, chID, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type sendRequest struct {
	Content       string `json:"content"`
	AttachmentURL string `json:"attachment_url"`
}

// HandleSend handles POST /api/chat/channels/{channelID}/messages.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	chID, ok := pathID(w, r, "channelID")
	if !ok {
		return
	}
	var req sendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, err := h.Chat.Send(ctx, uid, chID, req.Content, req.AttachmentURL)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id.Hex()})
}

type editRequest struct {
	Content string `json:"content"`
}

// HandleEdit handles PATCH /api/chat/messages/{messageID}.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	msgID, ok := pathID(w, r, "messageID")
	if !ok {
		return
	}
	var req editRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Chat.Edit(ctx, uid, msgID, req.Content); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete handles DELETE /api/chat/messages/{messageID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	msgID, ok := pathID(w, r, "messageID")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Chat.SoftDelete(ctx, uid, msgID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reactionRequest struct {
	Emoji string `json:"emoji"`
}

type reactionResponse struct {
	Added bool `json:"added"`
}

// HandleReaction handles POST /api/chat/messages/{messageID}/reactions.
func (h *Handler) HandleReaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	msgID, ok := pathID(w, r, "messageID")
	if !ok {
		return
	}
	var req reactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	added, err := h.Chat.ToggleReaction(ctx, uid, msgID, req.Emoji)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reactionResponse{Added: added})
}
