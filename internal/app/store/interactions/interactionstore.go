package interactionstore

import (
	"context"
	"time"

	"github.com/dalemusser/articlio/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the interaction ledger: at most one row per
// (user_id, article_id, type), enforced by a unique index.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("interactions")}
}

func key(userID, articleID primitive.ObjectID, t models.InteractionType) bson.M {
	return bson.M{"user_id": userID, "article_id": articleID, "type": t}
}

// Add records the vote. created is false when it was already present,
// including when a concurrent request inserted it first.
func (s *Store) Add(ctx context.Context, userID, articleID primitive.ObjectID, t models.InteractionType) (created bool, err error) {
	res, err := s.c.UpdateOne(ctx,
		key(userID, articleID, t),
		bson.M{"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"created_at": time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return false, nil
		}
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

// Remove deletes the vote and reports whether one existed.
func (s *Store) Remove(ctx context.Context, userID, articleID primitive.ObjectID, t models.InteractionType) (bool, error) {
	res, err := s.c.DeleteOne(ctx, key(userID, articleID, t))
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// Has reports whether the vote exists.
func (s *Store) Has(ctx context.Context, userID, articleID primitive.ObjectID, t models.InteractionType) (bool, error) {
	n, err := s.c.CountDocuments(ctx, key(userID, articleID, t), options.Count().SetLimit(1))
	return n > 0, err
}

// ForUser returns userID's votes on any of articleIDs.
func (s *Store) ForUser(ctx context.Context, userID primitive.ObjectID, articleIDs []primitive.ObjectID) ([]models.Interaction, error) {
	out := []models.Interaction{}
	if len(articleIDs) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID, "article_id": bson.M{"$in": articleIDs}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountFor counts the ledger rows of one article by type.
func (s *Store) CountFor(ctx context.Context, articleID primitive.ObjectID) (models.Stats, error) {
	var st models.Stats
	for _, c := range []struct {
		t   models.InteractionType
		dst *int64
	}{
		{models.Like, &st.Likes},
		{models.Dislike, &st.Dislikes},
		{models.Block, &st.Blocks},
	} {
		n, err := s.c.CountDocuments(ctx, bson.M{"article_id": articleID, "type": c.t})
		if err != nil {
			return models.Stats{}, err
		}
		*c.dst = n
	}
	return st, nil
}

// Tally counts ledger rows per article and type.
func (s *Store) Tally(ctx context.Context) (map[primitive.ObjectID]models.Stats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"article_id": "$article_id", "type": "$type"},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[primitive.ObjectID]models.Stats{}
	for cur.Next(ctx) {
		var row struct {
			ID struct {
				ArticleID primitive.ObjectID     `bson:"article_id"`
				Type      models.InteractionType `bson:"type"`
			} `bson:"_id"`
			Count int64 `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		st := out[row.ID.ArticleID]
		switch row.ID.Type {
		case models.Like:
			st.Likes = row.Count
		case models.Dislike:
			st.Dislikes = row.Count
		case models.Block:
			st.Blocks = row.Count
		}
		out[row.ID.ArticleID] = st
	}
	return out, cur.Err()
}
