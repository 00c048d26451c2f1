// internal/app/features/articles/handler.go
package articles

import (
	"context"
	"net/http"

	apierrors "github.com/dalemusser/articlio/internal/app/features/errors"
	"github.com/dalemusser/articlio/internal/app/services/authoring"
	"github.com/dalemusser/articlio/internal/app/services/feed"
	"github.com/dalemusser/articlio/internal/app/system/apperr"
	"github.com/dalemusser/articlio/internal/app/system/auth"
	"github.com/dalemusser/articlio/internal/app/system/paging"
	"github.com/dalemusser/articlio/internal/app/system/timeouts"
	"github.com/dalemusser/articlio/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the article feed and authoring endpoints.
type Handler struct {
	Feed      *feed.Feed
	Authoring *authoring.Authoring
	Log       *zap.Logger
}

func NewHandler(f *feed.Feed, a *authoring.Authoring, logger *zap.Logger) *Handler {
	return &Handler{Feed: f, Authoring: a, Log: logger}
}

type listResponse struct {
	Success     bool                 `json:"success"`
	Articles    []models.ArticleView `json:"articles"`
	Total       int64                `json:"total"`
	TotalPages  int64                `json:"totalPages"`
	CurrentPage int                  `json:"currentPage"`
}

type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ServeFeed handles GET /articles.
func (h *Handler) ServeFeed(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, h.Feed.ByPreferences)
}

// ServeMine handles GET /my-articles.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, h.Feed.Mine)
}

type lister func(ctx context.Context, viewer primitive.ObjectID, p paging.Page) (feed.Page, error)

func (h *Handler) serveList(w http.ResponseWriter, r *http.Request, list lister) {
	viewer, ok := auth.CurrentUserID(r)
	if !ok {
		apierrors.Write(w, r, h.Log, apperr.Unauthorizedf("unauthorized"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "article list")
	defer cancel()

	page, err := list(ctx, viewer, paging.Parse(r))
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	if page.Articles == nil {
		page.Articles = []models.ArticleView{}
	}
	apierrors.JSON(w, http.StatusOK, listResponse{
		Success:     true,
		Articles:    page.Articles,
		Total:       page.Total,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
	})
}

// ServeArticle handles GET /article/{id}.
func (h *Handler) ServeArticle(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.Write(w, r, h.Log, apperr.Invalidf("invalid article id"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "article by id")
	defer cancel()

	view, found, err := h.Feed.ByID(ctx, id)
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	if !found {
		apierrors.Write(w, r, h.Log, apperr.NotFoundf("article not found"))
		return
	}
	apierrors.JSON(w, http.StatusOK, dataResponse{Success: true, Data: view})
}

type createRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Images      []string `json:"images"`
}

// HandleCreate handles POST /post-article.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	author, ok := auth.CurrentUserID(r)
	if !ok {
		apierrors.Write(w, r, h.Log, apperr.Unauthorizedf("unauthorized"))
		return
	}
	var req createRequest
	if err := apierrors.Decode(w, r, &req); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "article create")
	defer cancel()

	a, err := h.Authoring.Create(ctx, author, authoring.Input{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags,
		Images:      req.Images,
	})
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	h.Log.Info("article created",
		zap.String("article_id", a.ID.Hex()),
		zap.String("author_id", author.Hex()))
	apierrors.JSON(w, http.StatusCreated, dataResponse{Success: true, Data: a})
}

type updateRequest struct {
	ArticleID   string    `json:"articleId"`
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Tags        *[]string `json:"tags"`
	Images      *[]string `json:"images"`
}

// HandleUpdate handles PUT /update-article.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	author, ok := auth.CurrentUserID(r)
	if !ok {
		apierrors.Write(w, r, h.Log, apperr.Unauthorizedf("unauthorized"))
		return
	}
	var req updateRequest
	if err := apierrors.Decode(w, r, &req); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "article update")
	defer cancel()

	err := h.Authoring.Update(ctx, author, authoring.UpdateInput{
		ArticleID:   req.ArticleID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags,
		Images:      req.Images,
	})
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	apierrors.OK(w, "Article updated successfully")
}
