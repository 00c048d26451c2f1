// internal/app/features/interactions/routes.go
package interactions

import (
	"github.com/dalemusser/articlio/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Register adds the vote endpoints to r.
func Register(r chi.Router, h *Handler) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Post("/interact", h.HandleInteract)
		r.Post("/get-interactions", h.ServeState)
	})
}
