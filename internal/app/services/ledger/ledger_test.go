package ledger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dalemusser/articlio/internal/app/services/ledger"
	articlestore "github.com/dalemusser/articlio/internal/app/store/articles"
	interactionstore "github.com/dalemusser/articlio/internal/app/store/interactions"
	"github.com/dalemusser/articlio/internal/app/system/apperr"
	"github.com/dalemusser/articlio/internal/app/system/metrics"
	"github.com/dalemusser/articlio/internal/domain/models"
	"github.com/dalemusser/articlio/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	ledger   *ledger.Ledger
	articles *articlestore.Store
	votes    *interactionstore.Store
	article  models.Article
	user     primitive.ObjectID
	ctx      context.Context
}

func setup(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)

	articles := articlestore.New(db)
	votes := interactionstore.New(db)
	cat := fixtures.CreateCategory(ctx, "tech")
	author := fixtures.CreateUser(ctx, "Author", "author@example.com")
	reader := fixtures.CreateUser(ctx, "Reader", "reader@example.com")

	return &env{
		ledger:   ledger.New(db.Client(), articles, votes, metrics.New(), zap.NewNop()),
		articles: articles,
		votes:    votes,
		article:  fixtures.CreateArticle(ctx, "A", author.ID, cat.ID),
		user:     reader.ID,
		ctx:      ctx,
	}
}

func (e *env) stats(t *testing.T) models.Stats {
	t.Helper()
	a, err := e.articles.GetByID(e.ctx, e.article.ID)
	if err != nil {
		t.Fatalf("load article: %v", err)
	}
	return a.Stats
}

func (e *env) apply(t *testing.T, typ models.InteractionType, action models.InteractionAction) (bool, error) {
	t.Helper()
	return e.ledger.Apply(e.ctx, e.user, e.article.ID, typ, action)
}

func TestApply_LikeAfterDislike(t *testing.T) {
	e := setup(t)

	if _, err := e.apply(t, models.Dislike, models.ActionAdd); err != nil {
		t.Fatalf("dislike: %v", err)
	}
	if got := e.stats(t); got != (models.Stats{Dislikes: 1}) {
		t.Fatalf("after dislike stats = %+v", got)
	}

	if _, err := e.apply(t, models.Like, models.ActionAdd); err != nil {
		t.Fatalf("like: %v", err)
	}
	if got := e.stats(t); got != (models.Stats{Likes: 1}) {
		t.Errorf("after like stats = %+v, want likes=1 dislikes=0", got)
	}

	hasDislike, _ := e.votes.Has(e.ctx, e.user, e.article.ID, models.Dislike)
	hasLike, _ := e.votes.Has(e.ctx, e.user, e.article.ID, models.Like)
	if hasDislike || !hasLike {
		t.Errorf("ledger like=%v dislike=%v, want like only", hasLike, hasDislike)
	}
}

func TestApply_RedundantLikeIsConflict(t *testing.T) {
	e := setup(t)

	if _, err := e.apply(t, models.Like, models.ActionAdd); err != nil {
		t.Fatal(err)
	}
	_, err := e.apply(t, models.Like, models.ActionAdd)
	if !apperr.Is(err, apperr.Conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got := e.stats(t); got.Likes != 1 {
		t.Errorf("likes = %d after conflict, want 1", got.Likes)
	}

	_, err = e.apply(t, models.Dislike, models.ActionAdd)
	if err != nil {
		t.Fatal(err)
	}
	_, err = e.apply(t, models.Dislike, models.ActionAdd)
	if ae := apperr.As(err); ae == nil || ae.Kind != apperr.Conflict || ae.Message != "already disliked" {
		t.Errorf("expected already disliked conflict, got %v", err)
	}
}

func TestApply_BlockIsIdempotent(t *testing.T) {
	e := setup(t)

	changed, err := e.apply(t, models.Block, models.ActionAdd)
	if err != nil || !changed {
		t.Fatalf("first block = %v, %v", changed, err)
	}
	changed, err = e.apply(t, models.Block, models.ActionAdd)
	if err != nil || changed {
		t.Errorf("second block = %v, %v; want no-op", changed, err)
	}
	if got := e.stats(t); got != (models.Stats{Blocks: 1}) {
		t.Errorf("stats = %+v, want blocks=1 only", got)
	}

	changed, err = e.apply(t, models.Block, models.ActionRemove)
	if err != nil || !changed {
		t.Errorf("unblock = %v, %v", changed, err)
	}
	if got := e.stats(t); got.Blocks != 0 {
		t.Errorf("blocks = %d after unblock", got.Blocks)
	}
}

func TestApply_BlockDoesNotTouchVotes(t *testing.T) {
	e := setup(t)

	_, _ = e.apply(t, models.Like, models.ActionAdd)
	_, _ = e.apply(t, models.Block, models.ActionAdd)

	if got := e.stats(t); got != (models.Stats{Likes: 1, Blocks: 1}) {
		t.Errorf("stats = %+v, want likes=1 blocks=1", got)
	}
}

func TestApply_RemoveAbsentIsNoop(t *testing.T) {
	e := setup(t)

	for _, typ := range []models.InteractionType{models.Like, models.Dislike, models.Block} {
		changed, err := e.apply(t, typ, models.ActionRemove)
		if err != nil || changed {
			t.Errorf("remove %s = %v, %v; want no-op", typ, changed, err)
		}
	}
	if got := e.stats(t); got != (models.Stats{}) {
		t.Errorf("stats = %+v, want zero", got)
	}
}

func TestApply_CountersNeverNegative(t *testing.T) {
	e := setup(t)

	// Drift the counter below the ledger, then withdraw the vote.
	_, _ = e.apply(t, models.Like, models.ActionAdd)
	if err := e.articles.SetStats(e.ctx, e.article.ID, models.Stats{}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.apply(t, models.Like, models.ActionRemove); err != nil {
		t.Fatal(err)
	}
	if got := e.stats(t); got.Likes != 0 {
		t.Errorf("likes = %d, want 0", got.Likes)
	}
}

func TestApply_Exclusivity(t *testing.T) {
	e := setup(t)

	seq := []models.InteractionType{models.Like, models.Dislike, models.Like, models.Dislike}
	for _, typ := range seq {
		if _, err := e.apply(t, typ, models.ActionAdd); err != nil {
			t.Fatalf("add %s: %v", typ, err)
		}
		like, _ := e.votes.Has(e.ctx, e.user, e.article.ID, models.Like)
		dislike, _ := e.votes.Has(e.ctx, e.user, e.article.ID, models.Dislike)
		if like && dislike {
			t.Fatalf("both like and dislike present after %s", typ)
		}
	}
	if got := e.stats(t); got != (models.Stats{Dislikes: 1}) {
		t.Errorf("stats = %+v, want dislikes=1", got)
	}
}

func TestApply_UnknownArticle(t *testing.T) {
	e := setup(t)

	_, err := e.ledger.Apply(e.ctx, e.user, primitive.NewObjectID(), models.Like, models.ActionAdd)
	if !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestApply_InvalidInput(t *testing.T) {
	e := setup(t)

	if _, err := e.apply(t, "love", models.ActionAdd); !apperr.Is(err, apperr.Invalid) {
		t.Errorf("bad type: got %v", err)
	}
	if _, err := e.apply(t, models.Like, "toggle"); !apperr.Is(err, apperr.Invalid) {
		t.Errorf("bad action: got %v", err)
	}
}

func TestApply_WithoutTransactionClient(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	articles := articlestore.New(db)
	l := ledger.New((*mongo.Client)(nil), articles, interactionstore.New(db), nil, zap.NewNop())
	a := fixtures.CreateArticle(ctx, "A", primitive.NewObjectID(), primitive.NewObjectID())

	if _, err := l.Apply(ctx, primitive.NewObjectID(), a.ID, models.Like, models.ActionAdd); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got, _ := articles.GetByID(ctx, a.ID)
	if got.Stats.Likes != 1 {
		t.Errorf("likes = %d, want 1", got.Stats.Likes)
	}
}

func TestState_RequestOrderAndDefaults(t *testing.T) {
	e := setup(t)

	_, _ = e.apply(t, models.Like, models.ActionAdd)
	_, _ = e.apply(t, models.Block, models.ActionAdd)
	other := primitive.NewObjectID()

	got, err := e.ledger.State(e.ctx, e.user, []string{other.Hex(), e.article.ID.Hex()})
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d states, want 2", len(got))
	}
	if got[0].ArticleID != other || got[0].Like || got[0].Dislike || got[0].Block {
		t.Errorf("state[0] = %+v, want all false for %s", got[0], other.Hex())
	}
	if got[1].ArticleID != e.article.ID || !got[1].Like || got[1].Dislike || !got[1].Block {
		t.Errorf("state[1] = %+v, want like+block", got[1])
	}
}

func TestState_InvalidID(t *testing.T) {
	e := setup(t)

	_, err := e.ledger.State(e.ctx, e.user, []string{"nope"})
	if !apperr.Is(err, apperr.Invalid) {
		t.Errorf("expected invalid, got %v", err)
	}
}

func TestReconcile_FixesDrift(t *testing.T) {
	e := setup(t)

	_, _ = e.apply(t, models.Like, models.ActionAdd)
	_, _ = e.apply(t, models.Block, models.ActionAdd)
	if err := e.articles.SetStats(e.ctx, e.article.ID, models.Stats{Likes: 7, Dislikes: 2}); err != nil {
		t.Fatal(err)
	}

	fixed, err := e.ledger.Reconcile(e.ctx)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if fixed != 1 {
		t.Errorf("fixed = %d, want 1", fixed)
	}
	if got := e.stats(t); got != (models.Stats{Likes: 1, Blocks: 1}) {
		t.Errorf("stats = %+v, want likes=1 blocks=1", got)
	}

	fixed, _ = e.ledger.Reconcile(e.ctx)
	if fixed != 0 {
		t.Errorf("second pass fixed = %d, want 0", fixed)
	}
}

func TestReconcile_KeepsVoteAppliedDuringPass(t *testing.T) {
	e := setup(t)

	if _, err := e.apply(t, models.Like, models.ActionAdd); err != nil {
		t.Fatal(err)
	}
	other := primitive.NewObjectID()
	e.ledger.SetAfterTally(func() {
		if _, err := e.ledger.Apply(e.ctx, other, e.article.ID, models.Like, models.ActionAdd); err != nil {
			t.Errorf("Apply during reconcile: %v", err)
		}
	})

	fixed, err := e.ledger.Reconcile(e.ctx)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if fixed != 0 {
		t.Errorf("fixed = %d, want 0", fixed)
	}
	if got := e.stats(t); got != (models.Stats{Likes: 2}) {
		t.Errorf("stats = %+v, want likes=2", got)
	}
}

func TestReconcile_RecountsDriftedArticle(t *testing.T) {
	e := setup(t)

	_, _ = e.apply(t, models.Dislike, models.ActionAdd)
	if err := e.articles.SetStats(e.ctx, e.article.ID, models.Stats{Dislikes: 4}); err != nil {
		t.Fatal(err)
	}
	// A second vote lands after the tally; the recount must include it.
	other := primitive.NewObjectID()
	e.ledger.SetAfterTally(func() {
		if _, err := e.ledger.Apply(e.ctx, other, e.article.ID, models.Dislike, models.ActionAdd); err != nil {
			t.Errorf("Apply during reconcile: %v", err)
		}
	})

	fixed, err := e.ledger.Reconcile(e.ctx)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if fixed != 1 {
		t.Errorf("fixed = %d, want 1", fixed)
	}
	if got := e.stats(t); got != (models.Stats{Dislikes: 2}) {
		t.Errorf("stats = %+v, want dislikes=2", got)
	}
}

func TestApply_ConcurrentDoubleLike(t *testing.T) {
	e := setup(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.ledger.Apply(e.ctx, e.user, e.article.ID, models.Like, models.ActionAdd)
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperr.Is(err, apperr.Conflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != 1 {
		t.Errorf("ok = %d conflicts = %d, want 1 and 1", ok, conflicts)
	}
	if got := e.stats(t); got != (models.Stats{Likes: 1}) {
		t.Errorf("stats = %+v, want likes=1", got)
	}
	if has, _ := e.votes.Has(e.ctx, e.user, e.article.ID, models.Like); !has {
		t.Error("like row missing")
	}
}
