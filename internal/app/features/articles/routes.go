// internal/app/features/articles/routes.go
package articles

import (
	"github.com/dalemusser/articlio/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Register adds the article endpoints to r. All of them require a signed-in
// user.
func Register(r chi.Router, h *Handler) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/articles", h.ServeFeed)
		r.Get("/my-articles", h.ServeMine)
		r.Get("/article/{id}", h.ServeArticle)
		r.Post("/post-article", h.HandleCreate)
		r.Put("/update-article", h.HandleUpdate)
	})
}
