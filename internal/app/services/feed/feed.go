// Package feed assembles paginated, populated article listings.
package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	articlestore "github.com/dalemusser/articlio/internal/app/store/articles"
	categorystore "github.com/dalemusser/articlio/internal/app/store/categories"
	userstore "github.com/dalemusser/articlio/internal/app/store/users"
	"github.com/dalemusser/articlio/internal/app/system/apperr"
	"github.com/dalemusser/articlio/internal/app/system/metrics"
	"github.com/dalemusser/articlio/internal/app/system/paging"
	"github.com/dalemusser/articlio/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Page is one page of a listing.
type Page struct {
	Articles    []models.ArticleView
	Total       int64
	TotalPages  int64
	CurrentPage int
}

type Feed struct {
	users      *userstore.Store
	articles   *articlestore.Store
	categories *categorystore.Store
	metrics    *metrics.Metrics
	log        *zap.Logger
}

func New(users *userstore.Store, articles *articlestore.Store, categories *categorystore.Store, m *metrics.Metrics, logger *zap.Logger) *Feed {
	return &Feed{users: users, articles: articles, categories: categories, metrics: m, log: logger}
}

// ByPreferences lists articles in the viewer's preferred categories,
// excluding the viewer's own.
func (f *Feed) ByPreferences(ctx context.Context, viewerID primitive.ObjectID, p paging.Page) (Page, error) {
	prefs, err := f.users.Preferences(ctx, viewerID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Page{}, apperr.NotFoundf("user not found")
		}
		return Page{}, apperr.Wrap(fmt.Errorf("load preferences user_id=%s: %w", viewerID.Hex(), err), "fetch failed")
	}
	if len(prefs) == 0 {
		return Page{}, apperr.Preconditionf("no preferences")
	}

	return f.list(ctx, "preferences", articlestore.Query{
		CategoryIn:    prefs,
		ExcludeAuthor: viewerID,
	}, p)
}

// Mine lists the viewer's own articles.
func (f *Feed) Mine(ctx context.Context, viewerID primitive.ObjectID, p paging.Page) (Page, error) {
	return f.list(ctx, "mine", articlestore.Query{AuthorID: viewerID}, p)
}

func (f *Feed) list(ctx context.Context, kind string, q articlestore.Query, p paging.Page) (Page, error) {
	start := time.Now()
	out := Page{CurrentPage: p.Number}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		views, err := f.articles.ListViews(gctx, q, p.Skip(), int64(p.Limit))
		out.Articles = views
		return err
	})
	g.Go(func() error {
		n, err := f.articles.Count(gctx, q)
		out.Total = n
		return err
	})
	if err := g.Wait(); err != nil {
		f.metrics.Feed(kind, "error", time.Since(start))
		return Page{}, apperr.Wrap(fmt.Errorf("list %s articles: %w", kind, err), "fetch failed")
	}

	out.TotalPages = p.TotalPages(out.Total)
	f.metrics.Feed(kind, "ok", time.Since(start))
	f.log.Debug("feed listed",
		zap.String("kind", kind),
		zap.Int("page", p.Number),
		zap.Int64("total", out.Total),
		zap.Duration("took", time.Since(start)))
	return out, nil
}

// ByID returns one populated article; found is false when it does not exist.
func (f *Feed) ByID(ctx context.Context, id primitive.ObjectID) (models.ArticleView, bool, error) {
	view, found, err := f.articles.ViewByID(ctx, id)
	if err != nil {
		return models.ArticleView{}, false, apperr.Wrap(fmt.Errorf("load article article_id=%s: %w", id.Hex(), err), "fetch failed")
	}
	return view, found, nil
}

// CategoryPage returns a skip/limit window of categories.
func (f *Feed) CategoryPage(ctx context.Context, w paging.Window) ([]models.Category, error) {
	cats, err := f.categories.Page(ctx, w.Skip, w.Limit)
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("category page: %w", err), "fetch failed")
	}
	return cats, nil
}

// Categories returns every category.
func (f *Feed) Categories(ctx context.Context) ([]models.Category, error) {
	cats, err := f.categories.All(ctx)
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("list categories: %w", err), "fetch failed")
	}
	return cats, nil
}
