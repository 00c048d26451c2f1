// internal/domain/models/interaction.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InteractionType is the kind of vote a user casts on an article.
type InteractionType string

const (
	Like    InteractionType = "like"
	Dislike InteractionType = "dislike"
	Block   InteractionType = "block"
)

// Valid reports whether t is one of the known interaction types.
func (t InteractionType) Valid() bool {
	switch t {
	case Like, Dislike, Block:
		return true
	}
	return false
}

// InteractionAction selects whether a vote is cast or withdrawn.
type InteractionAction string

const (
	ActionAdd    InteractionAction = "add"
	ActionRemove InteractionAction = "remove"
)

// Valid reports whether a is add or remove.
func (a InteractionAction) Valid() bool {
	return a == ActionAdd || a == ActionRemove
}

// Interaction is one ledger entry. At most one exists per
// (user_id, article_id, type); a unique index enforces it.
type Interaction struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"userId"`
	ArticleID primitive.ObjectID `bson:"article_id" json:"articleId"`
	Type      InteractionType    `bson:"type" json:"type"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// InteractionState is a viewer's active votes on one article.
type InteractionState struct {
	ArticleID primitive.ObjectID `json:"articleId"`
	Like      bool               `json:"like"`
	Dislike   bool               `json:"dislike"`
	Block     bool               `json:"block"`
}
