package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/articlio/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// FixturePassword is the plain-text password of every fixture user.
const FixturePassword = "Passw0rd!"

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T

	// created_at is stepped per article so ordering is deterministic.
	clock time.Time
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t, clock: time.Now().UTC().Add(-24 * time.Hour).Truncate(time.Millisecond)}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateCategory creates a category with the given name.
func (f *Fixtures) CreateCategory(ctx context.Context, name string) models.Category {
	f.t.Helper()

	now := time.Now().UTC()
	name = strings.ToLower(strings.TrimSpace(name))
	c := models.Category{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("categories").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test category: %v", err)
	}
	return c
}

// CreateUser creates an active, verified user with the given preferences.
// The password is FixturePassword.
func (f *Fixtures) CreateUser(ctx context.Context, firstName, email string, prefs ...primitive.ObjectID) models.User {
	f.t.Helper()
	return f.insertUser(ctx, firstName, email, models.UserActive, true, prefs)
}

// CreatePendingUser creates a registered user who has not verified their OTP.
func (f *Fixtures) CreatePendingUser(ctx context.Context, firstName, email string) models.User {
	f.t.Helper()
	return f.insertUser(ctx, firstName, email, models.UserPending, false, nil)
}

func (f *Fixtures) insertUser(ctx context.Context, firstName, email, status string, verified bool, prefs []primitive.ObjectID) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}
	if prefs == nil {
		prefs = []primitive.ObjectID{}
	}

	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		FirstName:    firstName,
		LastName:     "Tester",
		Email:        strings.ToLower(email),
		EmailCI:      text.Fold(email),
		Phone:        "5551234567",
		DOB:          time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		PasswordHash: string(hash),
		Preferences:  prefs,
		Status:       status,
		Verified:     verified,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateArticle creates an article by author in category. Each call is
// one second newer than the previous one.
func (f *Fixtures) CreateArticle(ctx context.Context, title string, authorID, categoryID primitive.ObjectID) models.Article {
	f.t.Helper()

	f.clock = f.clock.Add(time.Second)
	a := models.Article{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: "<p>" + title + "</p>",
		Images:      []string{},
		Tags:        []string{},
		CategoryID:  categoryID,
		AuthorID:    authorID,
		CreatedAt:   f.clock,
		UpdatedAt:   f.clock,
	}
	if _, err := f.db.Collection("articles").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test article: %v", err)
	}
	return a
}
