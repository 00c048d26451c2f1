package interactions_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/articlio/internal/app/features/interactions"
	"github.com/dalemusser/articlio/internal/app/services/ledger"
	articlestore "github.com/dalemusser/articlio/internal/app/store/articles"
	interactionstore "github.com/dalemusser/articlio/internal/app/store/interactions"
	"github.com/dalemusser/articlio/internal/domain/models"
	"github.com/dalemusser/articlio/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type env struct {
	h        *interactions.Handler
	fx       *testutil.Fixtures
	articles *articlestore.Store
}

func setup(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	as := articlestore.New(db)
	l := ledger.New(db.Client(), as, interactionstore.New(db), nil, zap.NewNop())
	return env{h: interactions.NewHandler(l, zap.NewNop()), fx: testutil.NewFixtures(t, db), articles: as}
}

func (e env) interact(t *testing.T, u models.User, articleID, typ, action string) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	e.h.HandleInteract(rec, testutil.NewAuthenticatedRequest("POST", "/interact", map[string]string{
		"articleId": articleID, "type": typ, "action": action,
	}, u))
	return rec
}

func TestHandleInteract_LikeThenDislike(t *testing.T) {
	e := setup(t)
	ctx := testutil.Context(t)
	cat := e.fx.CreateCategory(ctx, "tech")
	author := e.fx.CreateUser(ctx, "Author", "author@example.com")
	voter := e.fx.CreateUser(ctx, "Voter", "voter@example.com")
	a := e.fx.CreateArticle(ctx, "post", author.ID, cat.ID)

	rec := e.interact(t, voter, a.ID.Hex(), "like", "add")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Interaction processed")

	e.interact(t, voter, a.ID.Hex(), "like", "add").AssertStatus(t, http.StatusConflict)
	e.interact(t, voter, a.ID.Hex(), "dislike", "add").AssertStatus(t, http.StatusOK)

	got, err := e.articles.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Stats != (models.Stats{Likes: 0, Dislikes: 1}) {
		t.Errorf("stats = %+v, want dislikes=1 only", got.Stats)
	}
}

func TestHandleInteract_BadInput(t *testing.T) {
	e := setup(t)
	ctx := testutil.Context(t)
	u := e.fx.CreateUser(ctx, "Voter", "voter@example.com")

	tests := []struct {
		name            string
		id, typ, action string
		status          int
	}{
		{"bad id", "nope", "like", "add", http.StatusBadRequest},
		{"bad type", primitive.NewObjectID().Hex(), "love", "add", http.StatusBadRequest},
		{"bad action", primitive.NewObjectID().Hex(), "like", "toggle", http.StatusBadRequest},
		{"unknown article", primitive.NewObjectID().Hex(), "like", "add", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.interact(t, u, tt.id, tt.typ, tt.action).AssertStatus(t, tt.status)
		})
	}
}

func TestServeState_PreservesRequestOrder(t *testing.T) {
	e := setup(t)
	ctx := testutil.Context(t)
	cat := e.fx.CreateCategory(ctx, "tech")
	author := e.fx.CreateUser(ctx, "Author", "author@example.com")
	voter := e.fx.CreateUser(ctx, "Voter", "voter@example.com")
	a1 := e.fx.CreateArticle(ctx, "one", author.ID, cat.ID)
	a2 := e.fx.CreateArticle(ctx, "two", author.ID, cat.ID)

	e.interact(t, voter, a2.ID.Hex(), "block", "add").AssertStatus(t, http.StatusOK)

	rec := testutil.NewRecorder()
	e.h.ServeState(rec, testutil.NewAuthenticatedRequest("POST", "/get-interactions", map[string]any{
		"articleIds": []string{a2.ID.Hex(), a1.ID.Hex()},
	}, voter))
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Success bool `json:"success"`
		Data    []struct {
			ArticleID string `json:"articleId"`
			Like      bool   `json:"like"`
			Block     bool   `json:"block"`
		} `json:"data"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Data) != 2 {
		t.Fatalf("got %d states, want 2", len(body.Data))
	}
	if body.Data[0].ArticleID != a2.ID.Hex() || !body.Data[0].Block {
		t.Errorf("first = %+v, want blocked %s", body.Data[0], a2.ID.Hex())
	}
	if body.Data[1].ArticleID != a1.ID.Hex() || body.Data[1].Block || body.Data[1].Like {
		t.Errorf("second = %+v, want all false", body.Data[1])
	}
}

func TestServeState_InvalidID(t *testing.T) {
	e := setup(t)
	u := e.fx.CreateUser(testutil.Context(t), "Voter", "voter@example.com")

	rec := testutil.NewRecorder()
	e.h.ServeState(rec, testutil.NewAuthenticatedRequest("POST", "/get-interactions", map[string]any{
		"articleIds": []string{"bogus"},
	}, u))
	rec.AssertStatus(t, http.StatusBadRequest)
}
