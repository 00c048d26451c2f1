package articles_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/dalemusser/articlio/internal/app/features/articles"
	"github.com/dalemusser/articlio/internal/app/services/authoring"
	"github.com/dalemusser/articlio/internal/app/services/feed"
	articlestore "github.com/dalemusser/articlio/internal/app/store/articles"
	categorystore "github.com/dalemusser/articlio/internal/app/store/categories"
	userstore "github.com/dalemusser/articlio/internal/app/store/users"
	"github.com/dalemusser/articlio/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type listBody struct {
	Success  bool `json:"success"`
	Articles []struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Category struct {
			Name string `json:"name"`
		} `json:"category"`
		Author struct {
			FirstName string `json:"firstName"`
		} `json:"author"`
	} `json:"articles"`
	Total       int64 `json:"total"`
	TotalPages  int64 `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
}

func newTestHandler(t *testing.T) (*articles.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	as, cs := articlestore.New(db), categorystore.New(db)
	h := articles.NewHandler(
		feed.New(userstore.New(db), as, cs, nil, logger),
		authoring.New(as, cs, logger),
		logger,
	)
	return h, testutil.NewFixtures(t, db)
}

func TestServeFeed_PaginatesPreferredCategories(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testutil.Context(t)

	tech := fx.CreateCategory(ctx, "tech")
	sports := fx.CreateCategory(ctx, "sports")
	author := fx.CreateUser(ctx, "Author", "author@example.com")
	viewer := fx.CreateUser(ctx, "Viewer", "viewer@example.com", tech.ID)
	for i := 0; i < 15; i++ {
		fx.CreateArticle(ctx, "tech", author.ID, tech.ID)
	}
	for i := 0; i < 5; i++ {
		fx.CreateArticle(ctx, "sports", author.ID, sports.ID)
	}

	rec := testutil.NewRecorder()
	h.ServeFeed(rec, testutil.NewAuthenticatedRequest("GET", "/articles?page=2&limit=10", nil, viewer))

	rec.AssertStatus(t, http.StatusOK)
	var body listBody
	rec.DecodeJSON(t, &body)
	if !body.Success || body.Total != 15 || body.TotalPages != 2 || body.CurrentPage != 2 {
		t.Fatalf("body = %+v", body)
	}
	if len(body.Articles) != 5 {
		t.Fatalf("got %d articles, want 5", len(body.Articles))
	}
	for _, a := range body.Articles {
		if a.Category.Name != "tech" || a.Author.FirstName != "Author" {
			t.Errorf("article not populated: %+v", a)
		}
	}
}

func TestServeFeed_NoPreferences(t *testing.T) {
	h, fx := newTestHandler(t)
	viewer := fx.CreateUser(testutil.Context(t), "Viewer", "viewer@example.com")

	rec := testutil.NewRecorder()
	h.ServeFeed(rec, testutil.NewAuthenticatedRequest("GET", "/articles", nil, viewer))

	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	rec.AssertContains(t, `"success":false`)
}

func TestServeFeed_Unauthenticated(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := testutil.NewRecorder()
	h.ServeFeed(rec, testutil.NewRequest("GET", "/articles"))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestServeMine_EmptyListIsArray(t *testing.T) {
	h, fx := newTestHandler(t)
	u := fx.CreateUser(testutil.Context(t), "Solo", "solo@example.com")

	rec := testutil.NewRecorder()
	h.ServeMine(rec, testutil.NewAuthenticatedRequest("GET", "/my-articles", nil, u))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"articles":[]`)
}

func TestServeArticle(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testutil.Context(t)
	tech := fx.CreateCategory(ctx, "tech")
	u := fx.CreateUser(ctx, "Author", "author@example.com")
	a := fx.CreateArticle(ctx, "Hello", u.ID, tech.ID)

	tests := []struct {
		name   string
		id     string
		status int
	}{
		{"found", a.ID.Hex(), http.StatusOK},
		{"missing", primitive.NewObjectID().Hex(), http.StatusNotFound},
		{"bad id", "xyz", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewAuthenticatedRequest("GET", "/article/"+tt.id, nil, u)
			req = testutil.WithChiURLParam(req, "id", tt.id)
			rec := testutil.NewRecorder()
			h.ServeArticle(rec, req)
			rec.AssertStatus(t, tt.status)
		})
	}
}

func TestHandleCreate(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testutil.Context(t)
	tech := fx.CreateCategory(ctx, "tech")
	u := fx.CreateUser(ctx, "Author", "author@example.com")

	rec := testutil.NewRecorder()
	h.HandleCreate(rec, testutil.NewAuthenticatedRequest("POST", "/post-article", map[string]any{
		"title":       "First",
		"description": "plain text body",
		"category":    tech.ID.Hex(),
		"tags":        []string{" Go ", "go", ""},
		"images":      []string{"https://img.example.com/a.png"},
	}, u))

	rec.AssertStatus(t, http.StatusCreated)
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Title       string   `json:"title"`
			Description string   `json:"description"`
			Tags        []string `json:"tags"`
			AuthorID    string   `json:"authorId"`
		} `json:"data"`
	}
	rec.DecodeJSON(t, &body)
	if body.Data.Title != "First" || body.Data.AuthorID != u.ID.Hex() {
		t.Errorf("data = %+v", body.Data)
	}
	if body.Data.Description != "<p>plain text body</p>" {
		t.Errorf("description = %q", body.Data.Description)
	}
	if len(body.Data.Tags) != 1 || body.Data.Tags[0] != "go" {
		t.Errorf("tags = %v", body.Data.Tags)
	}
}

func TestHandleCreate_Invalid(t *testing.T) {
	h, fx := newTestHandler(t)
	u := fx.CreateUser(testutil.Context(t), "Author", "author@example.com")

	rec := testutil.NewRecorder()
	h.HandleCreate(rec, testutil.NewAuthenticatedRequest("POST", "/post-article", map[string]any{
		"title": "", "description": "x", "category": primitive.NewObjectID().Hex(),
	}, u))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleUpdate_OnlyAuthor(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testutil.Context(t)
	tech := fx.CreateCategory(ctx, "tech")
	author := fx.CreateUser(ctx, "Author", "author@example.com")
	other := fx.CreateUser(ctx, "Other", "other@example.com")
	a := fx.CreateArticle(ctx, "Original", author.ID, tech.ID)

	body := map[string]any{"articleId": a.ID.Hex(), "title": "Hijacked"}

	rec := testutil.NewRecorder()
	h.HandleUpdate(rec, testutil.NewAuthenticatedRequest("PUT", "/update-article", body, other))
	rec.AssertStatus(t, http.StatusForbidden)

	body["title"] = "Edited"
	rec = testutil.NewRecorder()
	h.HandleUpdate(rec, testutil.NewAuthenticatedRequest("PUT", "/update-article", body, author))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"success":true`)
}

func TestRegister_RequiresBearer(t *testing.T) {
	h, _ := newTestHandler(t)
	r := chi.NewRouter()
	articles.Register(r, h)

	for _, path := range []string{"/articles", "/my-articles", "/article/" + primitive.NewObjectID().Hex()} {
		rec := testutil.NewRecorder()
		r.ServeHTTP(rec, testutil.NewRequest("GET", path))
		rec.AssertStatus(t, http.StatusUnauthorized)
	}
}

func TestServeFeed_StorageFailureLoggedOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	core, logs := observer.New(zapcore.ErrorLevel)
	logger := zap.New(core)
	as, cs := articlestore.New(db), categorystore.New(db)
	h := articles.NewHandler(
		feed.New(userstore.New(db), as, cs, nil, logger),
		authoring.New(as, cs, logger),
		logger,
	)
	fx := testutil.NewFixtures(t, db)
	tech := fx.CreateCategory(testutil.Context(t), "tech")
	viewer := fx.CreateUser(testutil.Context(t), "Viewer", "viewer@example.com", tech.ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := testutil.WithUser(testutil.NewRequest("GET", "/articles").WithContext(ctx), viewer)

	rec := testutil.NewRecorder()
	h.ServeFeed(rec, req)

	rec.AssertStatus(t, http.StatusInternalServerError)
	rec.AssertNotContains(t, "context canceled")
	if n := logs.Len(); n != 1 {
		t.Fatalf("error log entries = %d, want 1", n)
	}
	entry := logs.All()[0]
	if cause, ok := entry.ContextMap()["error"].(string); !ok || !strings.Contains(cause, "load preferences") {
		t.Errorf("logged error = %v, want the service operation in the cause", entry.ContextMap()["error"])
	}
}
