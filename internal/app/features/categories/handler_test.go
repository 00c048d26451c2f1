package categories_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/dalemusser/articlio/internal/app/features/categories"
	"github.com/dalemusser/articlio/internal/app/services/feed"
	articlestore "github.com/dalemusser/articlio/internal/app/store/articles"
	categorystore "github.com/dalemusser/articlio/internal/app/store/categories"
	userstore "github.com/dalemusser/articlio/internal/app/store/users"
	"github.com/dalemusser/articlio/internal/testutil"
	"go.uber.org/zap"
)

type body struct {
	Success bool `json:"success"`
	Data    []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
}

func newTestHandler(t *testing.T, n int) *categories.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := testutil.Context(t)
	for i := 0; i < n; i++ {
		fx.CreateCategory(ctx, fmt.Sprintf("cat%02d", i))
	}
	f := feed.New(userstore.New(db), articlestore.New(db), categorystore.New(db), nil, zap.NewNop())
	return categories.NewHandler(f, zap.NewNop())
}

func TestServePage_DefaultsToSeven(t *testing.T) {
	h := newTestHandler(t, 10)

	rec := testutil.NewRecorder()
	h.ServePage(rec, testutil.NewRequest("GET", "/categories"))
	rec.AssertStatus(t, http.StatusOK)

	var b body
	rec.DecodeJSON(t, &b)
	if len(b.Data) != 7 {
		t.Fatalf("got %d categories, want 7", len(b.Data))
	}
	if b.Data[0].Name != "cat00" {
		t.Errorf("first = %q, want cat00", b.Data[0].Name)
	}
}

func TestServePage_SkipAndLimit(t *testing.T) {
	h := newTestHandler(t, 10)

	rec := testutil.NewRecorder()
	h.ServePage(rec, testutil.NewRequest("GET", "/categories?skip=7&limit=7"))

	var b body
	rec.DecodeJSON(t, &b)
	if len(b.Data) != 3 || b.Data[0].Name != "cat07" {
		t.Errorf("data = %+v", b.Data)
	}
}

func TestServeAll(t *testing.T) {
	h := newTestHandler(t, 10)

	rec := testutil.NewRecorder()
	h.ServeAll(rec, testutil.NewRequest("GET", "/get-all-category"))

	var b body
	rec.DecodeJSON(t, &b)
	if !b.Success || len(b.Data) != 10 {
		t.Errorf("success=%v len=%d, want true/10", b.Success, len(b.Data))
	}
}

func TestServeAll_Empty(t *testing.T) {
	h := newTestHandler(t, 0)

	rec := testutil.NewRecorder()
	h.ServeAll(rec, testutil.NewRequest("GET", "/get-all-category"))
	rec.AssertContains(t, `"data":[]`)
}
