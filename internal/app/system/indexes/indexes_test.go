package indexes_test

import (
	"testing"
	"time"

	"github.com/dalemusser/articlio/internal/app/system/indexes"
	"github.com/dalemusser/articlio/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_InteractionTripleIsUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	userID, articleID := primitive.NewObjectID(), primitive.NewObjectID()
	doc := func() bson.M {
		return bson.M{
			"_id":        primitive.NewObjectID(),
			"user_id":    userID,
			"article_id": articleID,
			"type":       "like",
			"created_at": time.Now().UTC(),
		}
	}

	coll := db.Collection("interactions")
	if _, err := coll.InsertOne(ctx, doc()); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	_, err := coll.InsertOne(ctx, doc())
	if !mongo.IsDuplicateKeyError(err) {
		t.Errorf("expected duplicate key error, got %v", err)
	}

	// A different type for the same pair is allowed.
	other := doc()
	other["type"] = "block"
	if _, err := coll.InsertOne(ctx, other); err != nil {
		t.Errorf("insert of a second type failed: %v", err)
	}
}
