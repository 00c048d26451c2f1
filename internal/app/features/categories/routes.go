// internal/app/features/categories/routes.go
package categories

import "github.com/go-chi/chi/v5"

// Register adds the public category endpoints to r.
func Register(r chi.Router, h *Handler) {
	r.Get("/categories", h.ServePage)
	r.Get("/get-all-category", h.ServeAll)
}
