package txn_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/articlio/internal/app/system/txn"
	"github.com/dalemusser/articlio/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestRun_NilClientRunsDirectly(t *testing.T) {
	calls := 0
	err := txn.Run(context.Background(), nil, zap.NewNop(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRun_PropagatesError(t *testing.T) {
	want := errors.New("boom")
	err := txn.Run(context.Background(), nil, zap.NewNop(), func(ctx context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}

func TestRun_WritesVisibleAfterCommit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coll := db.Collection("txn_probe")
	err := txn.Run(ctx, db.Client(), zap.NewNop(), func(ctx context.Context) error {
		if _, err := coll.InsertOne(ctx, bson.M{"n": 1}); err != nil {
			return err
		}
		_, err := coll.InsertOne(ctx, bson.M{"n": 2})
		return err
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	n, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}
