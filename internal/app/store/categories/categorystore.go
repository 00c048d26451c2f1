package categorystore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/articlio/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateName is returned when a category with the same name exists.
	ErrDuplicateName = errors.New("a category with this name already exists")
	errEmptyName     = errors.New("category name is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("categories")}
}

// NormalizeName trims and lowercases a category name.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Create inserts a category.
func (s *Store) Create(ctx context.Context, name string) (models.Category, error) {
	name = NormalizeName(name)
	if name == "" {
		return models.Category{}, errEmptyName
	}
	now := time.Now().UTC()
	c := models.Category{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Category{}, ErrDuplicateName
		}
		return models.Category{}, err
	}
	return c, nil
}

// Seed inserts each name that does not exist yet and returns how many were
// added. Existing categories are left untouched.
func (s *Store) Seed(ctx context.Context, names []string) (int, error) {
	added := 0
	now := time.Now().UTC()
	for _, raw := range names {
		name := NormalizeName(raw)
		if name == "" {
			continue
		}
		res, err := s.c.UpdateOne(ctx,
			bson.M{"name_ci": text.Fold(name)},
			bson.M{"$setOnInsert": bson.M{
				"_id":        primitive.NewObjectID(),
				"name":       name,
				"name_ci":    text.Fold(name),
				"created_at": now,
				"updated_at": now,
			}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			if wafflemongo.IsDup(err) {
				continue
			}
			return added, err
		}
		if res.UpsertedCount > 0 {
			added++
		}
	}
	return added, nil
}

// GetByID loads a category. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	var c models.Category
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Exists reports whether a category with id exists.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

// CountExisting returns how many of ids refer to existing categories.
// Duplicates in ids count once.
func (s *Store) CountExisting(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.c.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// ByIDs returns the categories among ids, ordered by name.
func (s *Store) ByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Category, error) {
	if len(ids) == 0 {
		return []models.Category{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
}

// Page returns a window of categories ordered by name.
func (s *Store) Page(ctx context.Context, skip, limit int64) ([]models.Category, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)
	return s.find(ctx, bson.M{}, opts)
}

// All returns every category ordered by name.
func (s *Store) All(ctx context.Context) ([]models.Category, error) {
	return s.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Category, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Category{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
