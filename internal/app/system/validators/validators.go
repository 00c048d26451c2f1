// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/articlio/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("categories", categoriesSchema())
	ensure("articles", articlesSchema())
	ensure("interactions", interactionsSchema())
	ensure("otp_codes", otpSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var (
	nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
	objectID = bson.M{"bsonType": "objectId"}
	counter  = bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0}
)

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"first_name", "last_name", "email", "email_ci", "password_hash", "status"},
			"properties": bson.M{
				"first_name":    nonBlank,
				"last_name":     nonBlank,
				"email":         nonBlank,
				"email_ci":      nonBlank,
				"phone":         bson.M{"bsonType": "string"},
				"dob":           bson.M{"bsonType": "date"},
				"password_hash": nonBlank,
				"preferences":   bson.M{"bsonType": bson.A{"array", "null"}, "items": objectID},
				"status":        bson.M{"enum": bson.A{models.UserPending, models.UserActive}},
				"verified":      bson.M{"bsonType": "bool"},
			},
		},
	}
}

func categoriesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci"},
			"properties": bson.M{
				"name":    nonBlank,
				"name_ci": nonBlank,
			},
		},
	}
}

// articlesSchema also guards the counters: a decrement that would take a
// stat below zero is rejected by the server.
func articlesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "description", "category_id", "author_id", "stats"},
			"properties": bson.M{
				"title":       bson.M{"bsonType": "string", "minLength": 1, "maxLength": 255, "pattern": ".*\\S.*"},
				"description": nonBlank,
				"images":      bson.M{"bsonType": bson.A{"array", "null"}, "items": bson.M{"bsonType": "string"}},
				"tags":        bson.M{"bsonType": bson.A{"array", "null"}, "items": bson.M{"bsonType": "string"}},
				"category_id": objectID,
				"author_id":   objectID,
				"stats": bson.M{
					"bsonType": "object",
					"required": bson.A{"likes", "dislikes", "blocks"},
					"properties": bson.M{
						"likes":    counter,
						"dislikes": counter,
						"blocks":   counter,
					},
				},
			},
		},
	}
}

func interactionsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "article_id", "type"},
			"properties": bson.M{
				"user_id":    objectID,
				"article_id": objectID,
				"type":       bson.M{"enum": bson.A{string(models.Like), string(models.Dislike), string(models.Block)}},
			},
		},
	}
}

func otpSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "code_hash", "expires_at"},
			"properties": bson.M{
				"user_id":    objectID,
				"code_hash":  nonBlank,
				"expires_at": bson.M{"bsonType": "date"},
				"attempts":   counter,
			},
		},
	}
}
