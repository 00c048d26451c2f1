package authoring_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dalemusser/articlio/internal/app/services/authoring"
	articlestore "github.com/dalemusser/articlio/internal/app/store/articles"
	categorystore "github.com/dalemusser/articlio/internal/app/store/categories"
	"github.com/dalemusser/articlio/internal/app/system/apperr"
	"github.com/dalemusser/articlio/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestNormalizeTags(t *testing.T) {
	got, err := authoring.NormalizeTags([]string{" Go ", "", "go", "MongoDB", "  "})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"go", "mongodb"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeTags = %v, want %v", got, want)
	}
}

func TestCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	svc := authoring.New(articlestore.New(db), categorystore.New(db), zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cat := fixtures.CreateCategory(ctx, "tech")
	author := fixtures.CreateUser(ctx, "Author", "author@example.com")

	a, err := svc.Create(ctx, author.ID, authoring.Input{
		Title:       "  Hello  ",
		Description: "<p>Body</p><script>alert(1)</script>",
		Category:    cat.ID.Hex(),
		Tags:        []string{" Go "},
		Images:      []string{"https://img.example/x.png", " "},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Title != "Hello" {
		t.Errorf("Title = %q", a.Title)
	}
	if strings.Contains(a.Description, "script") {
		t.Errorf("Description not sanitized: %q", a.Description)
	}
	if len(a.Tags) != 1 || a.Tags[0] != "go" {
		t.Errorf("Tags = %v", a.Tags)
	}
	if len(a.Images) != 1 {
		t.Errorf("Images = %v", a.Images)
	}
	if a.AuthorID != author.ID || a.CategoryID != cat.ID {
		t.Error("author or category not set")
	}
}

func TestCreate_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	svc := authoring.New(articlestore.New(db), categorystore.New(db), zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cat := fixtures.CreateCategory(ctx, "tech")
	author := primitive.NewObjectID()

	valid := authoring.Input{Title: "T", Description: "D", Category: cat.ID.Hex()}
	tests := []struct {
		name string
		mod  func(*authoring.Input)
	}{
		{"empty title", func(in *authoring.Input) { in.Title = "   " }},
		{"long title", func(in *authoring.Input) { in.Title = strings.Repeat("x", 256) }},
		{"empty description", func(in *authoring.Input) { in.Description = "<script></script>" }},
		{"bad category id", func(in *authoring.Input) { in.Category = "nope" }},
		{"unknown category", func(in *authoring.Input) { in.Category = primitive.NewObjectID().Hex() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mod(&in)
			if _, err := svc.Create(ctx, author, in); !apperr.Is(err, apperr.Invalid) {
				t.Errorf("expected invalid, got %v", err)
			}
		})
	}

	// 255 characters is allowed.
	in := valid
	in.Title = strings.Repeat("x", 255)
	if _, err := svc.Create(ctx, author, in); err != nil {
		t.Errorf("255-char title rejected: %v", err)
	}
}

func TestUpdate_NonAuthorRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	articles := articlestore.New(db)
	svc := authoring.New(articles, categorystore.New(db), zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cat := fixtures.CreateCategory(ctx, "tech")
	author := fixtures.CreateUser(ctx, "Author", "author@example.com")
	intruder := fixtures.CreateUser(ctx, "Intruder", "intruder@example.com")
	a := fixtures.CreateArticle(ctx, "Original", author.ID, cat.ID)

	title := "Hijacked"
	err := svc.Update(ctx, intruder.ID, authoring.UpdateInput{ArticleID: a.ID.Hex(), Title: &title})
	if !apperr.Is(err, apperr.Forbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	got, _ := articles.GetByID(ctx, a.ID)
	if got.Title != "Original" || !got.UpdatedAt.Equal(a.UpdatedAt) {
		t.Errorf("article changed: title=%q updated=%v", got.Title, got.UpdatedAt)
	}
}

func TestUpdate_ByAuthor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	articles := articlestore.New(db)
	svc := authoring.New(articles, categorystore.New(db), zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tech := fixtures.CreateCategory(ctx, "tech")
	sports := fixtures.CreateCategory(ctx, "sports")
	author := fixtures.CreateUser(ctx, "Author", "author@example.com")
	a := fixtures.CreateArticle(ctx, "Original", author.ID, tech.ID)

	title, cat := "New title", sports.ID.Hex()
	tags := []string{"A", "b"}
	err := svc.Update(ctx, author.ID, authoring.UpdateInput{
		ArticleID: a.ID.Hex(),
		Title:     &title,
		Category:  &cat,
		Tags:      &tags,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ := articles.GetByID(ctx, a.ID)
	if got.Title != "New title" || got.CategoryID != sports.ID {
		t.Errorf("got title=%q category=%s", got.Title, got.CategoryID.Hex())
	}
	if !reflect.DeepEqual(got.Tags, []string{"a", "b"}) {
		t.Errorf("Tags = %v", got.Tags)
	}
	if got.Description != a.Description {
		t.Error("description changed without being supplied")
	}
}

func TestUpdate_Missing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := authoring.New(articlestore.New(db), categorystore.New(db), zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := svc.Update(ctx, primitive.NewObjectID(), authoring.UpdateInput{ArticleID: primitive.NewObjectID().Hex()})
	if !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	err = svc.Update(ctx, primitive.NewObjectID(), authoring.UpdateInput{ArticleID: "bad"})
	if !apperr.Is(err, apperr.Invalid) {
		t.Errorf("expected invalid, got %v", err)
	}
}
