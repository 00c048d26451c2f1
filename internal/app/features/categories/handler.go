// internal/app/features/categories/handler.go
package categories

import (
	"net/http"

	apierrors "github.com/dalemusser/articlio/internal/app/features/errors"
	"github.com/dalemusser/articlio/internal/app/services/feed"
	"github.com/dalemusser/articlio/internal/app/system/paging"
	"github.com/dalemusser/articlio/internal/app/system/timeouts"
	"github.com/dalemusser/articlio/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves the public category catalog.
type Handler struct {
	Feed *feed.Feed
	Log  *zap.Logger
}

func NewHandler(f *feed.Feed, logger *zap.Logger) *Handler {
	return &Handler{Feed: f, Log: logger}
}

type listResponse struct {
	Success bool              `json:"success"`
	Data    []models.Category `json:"data"`
}

// ServePage handles GET /categories?skip=&limit=. It backs the
// incremental category picker.
func (h *Handler) ServePage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "category page")
	defer cancel()

	cats, err := h.Feed.CategoryPage(ctx, paging.ParseWindow(r, paging.DefaultCategoryLimit))
	h.write(w, r, cats, err)
}

// ServeAll handles GET /get-all-category.
func (h *Handler) ServeAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "category list")
	defer cancel()

	cats, err := h.Feed.Categories(ctx)
	h.write(w, r, cats, err)
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, cats []models.Category, err error) {
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	if cats == nil {
		cats = []models.Category{}
	}
	apierrors.JSON(w, http.StatusOK, listResponse{Success: true, Data: cats})
}
