// internal/app/features/jobhooks/routes.go
package jobhooks

import (
	"github.com/dalemusser/crewhub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /hooks/jobs. Requests are limited
// per client IP ahead of the token check.
func Routes(h *Handler, limit *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	if limit != nil {
		r.Use(limit.Middleware(ratelimit.ClientIP, h.Log))
	}
	r.Use(h.RequireToken)

	r.Post("/channel", h.HandleCreateChannel)
	r.Post("/{jobID}/workers", h.HandleAddWorkers)

	return r
}
