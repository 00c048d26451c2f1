package articlestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/articlio/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Stat counter names, as stored under "stats".
const (
	StatLikes    = "likes"
	StatDislikes = "dislikes"
	StatBlocks   = "blocks"
)

var errBadStat = errors.New(`stat must be "likes"|"dislikes"|"blocks"`)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("articles")}
}

// Create inserts a new article with zeroed stats.
func (s *Store) Create(ctx context.Context, a models.Article) (models.Article, error) {
	a.ID = primitive.NewObjectID()
	a.Stats = models.Stats{}
	if a.Images == nil {
		a.Images = []string{}
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Article{}, err
	}
	return a, nil
}

// GetByID loads a raw article. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Article, error) {
	var a models.Article
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Exists reports whether an article with id exists.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

// Update holds editable article fields. Nil pointers are left unchanged.
type Update struct {
	Title       *string
	Description *string
	CategoryID  *primitive.ObjectID
	Tags        *[]string
	Images      *[]string
}

// Update applies upd to the article if authorID wrote it. It returns
// mongo.ErrNoDocuments when no article matches both.
func (s *Store) Update(ctx context.Context, id, authorID primitive.ObjectID, upd Update) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.CategoryID != nil {
		set["category_id"] = *upd.CategoryID
	}
	if upd.Tags != nil {
		set["tags"] = *upd.Tags
	}
	if upd.Images != nil {
		set["images"] = *upd.Images
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "author_id": authorID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Counters                                                                    */
/* -------------------------------------------------------------------------- */

// IncStat adds delta to stats.<stat>. Negative deltas only apply while the
// counter is positive, so counters never go below zero. It reports whether
// the document changed.
func (s *Store) IncStat(ctx context.Context, id primitive.ObjectID, stat string, delta int64) (bool, error) {
	if !validStat(stat) {
		return false, errBadStat
	}
	field := "stats." + stat
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter[field] = bson.M{"$gte": -delta}
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{field: delta}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// SetStats overwrites all three counters.
func (s *Store) SetStats(ctx context.Context, id primitive.ObjectID, st models.Stats) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"stats": st}})
	return err
}

// SwapStats sets the counters to next only while they still equal prev.
// It reports whether the write happened.
func (s *Store) SwapStats(ctx context.Context, id primitive.ObjectID, prev, next models.Stats) (bool, error) {
	filter := bson.M{
		"_id":            id,
		"stats.likes":    prev.Likes,
		"stats.dislikes": prev.Dislikes,
		"stats.blocks":   prev.Blocks,
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"stats": next}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// StatsEntry is an article ID with its stored counters.
type StatsEntry struct {
	ID    primitive.ObjectID `bson:"_id"`
	Stats models.Stats       `bson:"stats"`
}

// EachStats streams every article's counters to fn, stopping on the first
// error fn returns.
func (s *Store) EachStats(ctx context.Context, fn func(StatsEntry) error) error {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"stats": 1}))
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var e StatsEntry
		if err := cur.Decode(&e); err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return cur.Err()
}

func validStat(s string) bool {
	switch s {
	case StatLikes, StatDislikes, StatBlocks:
		return true
	}
	return false
}
