package articlestore

import (
	"context"

	"github.com/dalemusser/articlio/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Query selects articles for a listing. Empty fields do not filter.
type Query struct {
	CategoryIn    []primitive.ObjectID
	AuthorID      primitive.ObjectID
	ExcludeAuthor primitive.ObjectID
}

func (q Query) filter() bson.M {
	f := bson.M{}
	if q.CategoryIn != nil {
		f["category_id"] = bson.M{"$in": q.CategoryIn}
	}
	author := bson.M{}
	if !q.AuthorID.IsZero() {
		author["$eq"] = q.AuthorID
	}
	if !q.ExcludeAuthor.IsZero() {
		author["$ne"] = q.ExcludeAuthor
	}
	if len(author) > 0 {
		f["author_id"] = author
	}
	return f
}

// Count returns how many articles match q.
func (s *Store) Count(ctx context.Context, q Query) (int64, error) {
	return s.c.CountDocuments(ctx, q.filter())
}

// ListViews returns one page of articles matching q, newest first, with
// category and author populated.
func (s *Store) ListViews(ctx context.Context, q Query, skip, limit int64) ([]models.ArticleView, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: q.filter()}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$skip", Value: skip}},
		{{Key: "$limit", Value: limit}},
	}
	pipeline = append(pipeline, populateStages()...)
	return s.aggregateViews(ctx, pipeline)
}

// ViewByID returns one populated article. found is false when it does not exist.
func (s *Store) ViewByID(ctx context.Context, id primitive.ObjectID) (view models.ArticleView, found bool, err error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		{{Key: "$limit", Value: 1}},
	}
	pipeline = append(pipeline, populateStages()...)
	views, err := s.aggregateViews(ctx, pipeline)
	if err != nil || len(views) == 0 {
		return models.ArticleView{}, false, err
	}
	return views[0], true, nil
}

func (s *Store) aggregateViews(ctx context.Context, pipeline mongo.Pipeline) ([]models.ArticleView, error) {
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.ArticleView{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// populateStages joins category name and author first name/avatar and
// drops everything else from the joined documents.
func populateStages() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         "categories",
			"localField":   "category_id",
			"foreignField": "_id",
			"as":           "category",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$category", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "author_id",
			"foreignField": "_id",
			"as":           "author",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$author", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{
			"title":                1,
			"description":          1,
			"images":               1,
			"tags":                 1,
			"stats":                1,
			"created_at":           1,
			"updated_at":           1,
			"category._id":         1,
			"category.name":        1,
			"author._id":           1,
			"author.first_name":    1,
			"author.profile_image": 1,
		}}},
	}
}
