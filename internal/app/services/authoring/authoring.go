// Package authoring creates and edits articles on behalf of their authors.
package authoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	articlestore "github.com/dalemusser/articlio/internal/app/store/articles"
	categorystore "github.com/dalemusser/articlio/internal/app/store/categories"
	"github.com/dalemusser/articlio/internal/app/system/apperr"
	"github.com/dalemusser/articlio/internal/app/system/htmlsanitize"
	"github.com/dalemusser/articlio/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	MaxTitleLen = 255
	MaxTags     = 20
	MaxImages   = 10
)

// Input is a new article as submitted by its author.
type Input struct {
	Title       string
	Description string
	Category    string
	Tags        []string
	Images      []string
}

// UpdateInput carries the fields to change; nil leaves a field as is.
type UpdateInput struct {
	ArticleID   string
	Title       *string
	Description *string
	Category    *string
	Tags        *[]string
	Images      *[]string
}

type Authoring struct {
	articles   *articlestore.Store
	categories *categorystore.Store
	log        *zap.Logger
}

func New(articles *articlestore.Store, categories *categorystore.Store, logger *zap.Logger) *Authoring {
	return &Authoring{articles: articles, categories: categories, log: logger}
}

// Create validates in and stores a new article by authorID.
func (a *Authoring) Create(ctx context.Context, authorID primitive.ObjectID, in Input) (models.Article, error) {
	title, err := cleanTitle(in.Title)
	if err != nil {
		return models.Article{}, err
	}
	desc, err := cleanDescription(in.Description)
	if err != nil {
		return models.Article{}, err
	}
	catID, err := a.category(ctx, in.Category)
	if err != nil {
		return models.Article{}, err
	}
	tags, err := NormalizeTags(in.Tags)
	if err != nil {
		return models.Article{}, err
	}
	images, err := cleanImages(in.Images)
	if err != nil {
		return models.Article{}, err
	}

	art, err := a.articles.Create(ctx, models.Article{
		Title:       title,
		Description: desc,
		Images:      images,
		Tags:        tags,
		CategoryID:  catID,
		AuthorID:    authorID,
	})
	if err != nil {
		return models.Article{}, apperr.Wrap(fmt.Errorf("create article author_id=%s: %w", authorID.Hex(), err), "could not save article")
	}
	a.log.Info("article created",
		zap.String("article_id", art.ID.Hex()),
		zap.String("author_id", authorID.Hex()))
	return art, nil
}

// Update applies in to an article. Only its author may update it.
func (a *Authoring) Update(ctx context.Context, authorID primitive.ObjectID, in UpdateInput) error {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(in.ArticleID))
	if err != nil {
		return apperr.Invalidf("invalid article id")
	}

	existing, err := a.articles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFoundf("article not found")
		}
		return apperr.Wrap(fmt.Errorf("load article article_id=%s: %w", id.Hex(), err), "fetch failed")
	}
	if existing.AuthorID != authorID {
		return apperr.Forbiddenf("only the author can update this article")
	}

	var upd articlestore.Update
	if in.Title != nil {
		t, err := cleanTitle(*in.Title)
		if err != nil {
			return err
		}
		upd.Title = &t
	}
	if in.Description != nil {
		d, err := cleanDescription(*in.Description)
		if err != nil {
			return err
		}
		upd.Description = &d
	}
	if in.Category != nil {
		c, err := a.category(ctx, *in.Category)
		if err != nil {
			return err
		}
		upd.CategoryID = &c
	}
	if in.Tags != nil {
		tags, err := NormalizeTags(*in.Tags)
		if err != nil {
			return err
		}
		upd.Tags = &tags
	}
	if in.Images != nil {
		imgs, err := cleanImages(*in.Images)
		if err != nil {
			return err
		}
		upd.Images = &imgs
	}

	if err := a.articles.Update(ctx, id, authorID, upd); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFoundf("article not found")
		}
		return apperr.Wrap(fmt.Errorf("update article article_id=%s: %w", id.Hex(), err), "could not save article")
	}
	return nil
}

func (a *Authoring) category(ctx context.Context, raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, apperr.Invalidf("invalid category")
	}
	ok, err := a.categories.Exists(ctx, id)
	if err != nil {
		return primitive.NilObjectID, apperr.Wrap(fmt.Errorf("check category category_id=%s: %w", id.Hex(), err), "fetch failed")
	}
	if !ok {
		return primitive.NilObjectID, apperr.Invalidf("category does not exist")
	}
	return id, nil
}

func cleanTitle(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.Invalidf("title is required")
	}
	if utf8.RuneCountInString(s) > MaxTitleLen {
		return "", apperr.Invalidf("title must be at most 255 characters")
	}
	return s, nil
}

func cleanDescription(s string) (string, error) {
	d := htmlsanitize.Description(s)
	if d == "" {
		return "", apperr.Invalidf("description is required")
	}
	return d, nil
}

// NormalizeTags trims and lowercases tags, dropping blanks and repeats.
func NormalizeTags(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) > MaxTags {
		return nil, apperr.Invalidf("too many tags")
	}
	return out, nil
}

func cleanImages(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) > MaxImages {
		return nil, apperr.Invalidf("too many images")
	}
	return out, nil
}
