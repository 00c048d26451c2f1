// internal/domain/models/article.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stats holds the denormalized interaction counters of an article.
// Only the interaction ledger writes these.
type Stats struct {
	Likes    int64 `bson:"likes" json:"likes"`
	Dislikes int64 `bson:"dislikes" json:"dislikes"`
	Blocks   int64 `bson:"blocks" json:"blocks"`
}

// Article is a short piece authored by a user.
type Article struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"` // sanitized HTML
	Images      []string           `bson:"images" json:"images"`
	Tags        []string           `bson:"tags" json:"tags"`
	CategoryID  primitive.ObjectID `bson:"category_id" json:"categoryId"`
	AuthorID    primitive.ObjectID `bson:"author_id" json:"authorId"`
	Stats       Stats              `bson:"stats" json:"stats"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// ArticleCategory is the populated category of an ArticleView.
type ArticleCategory struct {
	ID   primitive.ObjectID `bson:"_id" json:"id"`
	Name string             `bson:"name" json:"name"`
}

// ArticleAuthor is the populated author of an ArticleView.
type ArticleAuthor struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	FirstName    string             `bson:"first_name" json:"firstName"`
	ProfileImage string             `bson:"profile_image,omitempty" json:"profileImage,omitempty"`
}

// ArticleView is an article with its category and author joined in.
// This is what leaves the API; raw foreign keys are not exposed.
type ArticleView struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Images      []string           `bson:"images" json:"images"`
	Tags        []string           `bson:"tags" json:"tags"`
	Category    ArticleCategory    `bson:"category" json:"category"`
	Author      ArticleAuthor      `bson:"author" json:"author"`
	Stats       Stats              `bson:"stats" json:"stats"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}
