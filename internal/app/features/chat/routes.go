// internal/app/features/chat/routes.go
package chat

import (
	"net/http"

	"github.com/dalemusser/crewhub/internal/app/system/auth"
	"github.com/dalemusser/crewhub/internal/app/system/authz"
	"github.com/dalemusser/crewhub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /api/chat. A non-nil sendLimit
// throttles message sends per user.
func Routes(h *Handler, sm *auth.SessionManager, sendLimit *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		// CHANNELS
		pr.Get("/channels", h.ServeListChannels)
		pr.Get("/channels/{channelID}", h.ServeChannel)
		pr.Post("/channels/{channelID}/read", h.HandleMarkRead)
		pr.Get("/channels/{channelID}/unread", h.ServeChannelUnread)
		pr.Post("/dm", h.HandleDM)
		pr.Post("/company", h.HandleCompany)
		pr.Get("/unread", h.ServeTotalUnread)

		// MESSAGES
		pr.Get("/channels/{channelID}/messages", h.ServeMessages)
		if sendLimit != nil {
			pr.With(sendLimit.Middleware(userKey, h.Log)).Post("/channels/{channelID}/messages", h.HandleSend)
		} else {
			pr.Post("/channels/{channelID}/messages", h.HandleSend)
		}
		pr.Patch("/messages/{messageID}", h.HandleEdit)
		pr.Delete("/messages/{messageID}", h.HandleDelete)
		pr.Post("/messages/{messageID}/reactions", h.HandleReaction)
	})

	return r
}

func userKey(r *http.Request) string {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return ""
	}
	return uid.Hex()
}
