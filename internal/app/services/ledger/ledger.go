// Package ledger owns the vote state machine: the interactions collection
// and the denormalized stats counters on articles.
package ledger

import (
	"context"
	"errors"
	"fmt"

	articlestore "github.com/dalemusser/articlio/internal/app/store/articles"
	interactionstore "github.com/dalemusser/articlio/internal/app/store/interactions"
	"github.com/dalemusser/articlio/internal/app/system/apperr"
	"github.com/dalemusser/articlio/internal/app/system/metrics"
	"github.com/dalemusser/articlio/internal/app/system/txn"
	"github.com/dalemusser/articlio/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// rule describes one interaction type.
type rule struct {
	stat     string                 // counter under article.stats
	partner  models.InteractionType // cleared on add; "" when none
	conflict string                 // message for a redundant add; "" makes it a no-op
}

var rules = map[models.InteractionType]rule{
	models.Like:    {stat: articlestore.StatLikes, partner: models.Dislike, conflict: "already liked"},
	models.Dislike: {stat: articlestore.StatDislikes, partner: models.Like, conflict: "already disliked"},
	models.Block:   {stat: articlestore.StatBlocks},
}

// Ledger applies votes and keeps article counters in step with them.
type Ledger struct {
	client       *mongo.Client
	articles     *articlestore.Store
	interactions *interactionstore.Store
	metrics      *metrics.Metrics
	log          *zap.Logger

	afterTally func()
}

// New builds a ledger. client may be nil, in which case writes are never
// wrapped in a transaction.
func New(client *mongo.Client, articles *articlestore.Store, interactions *interactionstore.Store, m *metrics.Metrics, logger *zap.Logger) *Ledger {
	return &Ledger{
		client:       client,
		articles:     articles,
		interactions: interactions,
		metrics:      m,
		log:          logger,
	}
}

// Apply casts or withdraws userID's vote of type t on articleID. changed is
// false for no-ops (withdrawing an absent vote, re-blocking).
func (l *Ledger) Apply(ctx context.Context, userID, articleID primitive.ObjectID, t models.InteractionType, action models.InteractionAction) (changed bool, err error) {
	r, ok := rules[t]
	if !ok {
		return false, apperr.Invalidf("invalid interaction type")
	}
	if !action.Valid() {
		return false, apperr.Invalidf("invalid interaction action")
	}

	err = txn.Run(ctx, l.client, l.log, func(ctx context.Context) error {
		changed = false

		exists, err := l.articles.Exists(ctx, articleID)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFoundf("article not found")
		}

		if action == models.ActionAdd {
			changed, err = l.add(ctx, userID, articleID, t, r)
		} else {
			changed, err = l.remove(ctx, userID, articleID, t, r)
		}
		return err
	})

	l.metrics.Interaction(string(t), string(action), outcome(changed, err))
	if err != nil {
		if apperr.As(err) != nil {
			return false, err
		}
		return false, apperr.Wrap(fmt.Errorf("%s %s article_id=%s: %w", action, t, articleID.Hex(), err), "interaction failed")
	}
	return changed, nil
}

func (l *Ledger) add(ctx context.Context, userID, articleID primitive.ObjectID, t models.InteractionType, r rule) (bool, error) {
	created, err := l.interactions.Add(ctx, userID, articleID, t)
	if err != nil {
		return false, err
	}
	if !created {
		if r.conflict != "" {
			return false, apperr.Conflictf(r.conflict)
		}
		return false, nil
	}

	if r.partner != "" {
		removed, err := l.interactions.Remove(ctx, userID, articleID, r.partner)
		if err != nil {
			return false, err
		}
		if removed {
			if _, err := l.articles.IncStat(ctx, articleID, rules[r.partner].stat, -1); err != nil {
				return false, err
			}
		}
	}

	if _, err := l.articles.IncStat(ctx, articleID, r.stat, 1); err != nil {
		return false, err
	}
	return true, nil
}

func (l *Ledger) remove(ctx context.Context, userID, articleID primitive.ObjectID, t models.InteractionType, r rule) (bool, error) {
	removed, err := l.interactions.Remove(ctx, userID, articleID, t)
	if err != nil || !removed {
		return false, err
	}
	if _, err := l.articles.IncStat(ctx, articleID, r.stat, -1); err != nil {
		return false, err
	}
	return true, nil
}

// State returns userID's votes on each of articleIDs, in request order.
// Articles without votes report all false.
func (l *Ledger) State(ctx context.Context, userID primitive.ObjectID, articleIDs []string) ([]models.InteractionState, error) {
	ids := make([]primitive.ObjectID, 0, len(articleIDs))
	for _, s := range articleIDs {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, apperr.Invalidf("invalid article id")
		}
		ids = append(ids, id)
	}

	rows, err := l.interactions.ForUser(ctx, userID, ids)
	if err != nil {
		return nil, apperr.Wrap(err, "fetch failed")
	}

	byArticle := make(map[primitive.ObjectID]models.InteractionState, len(rows))
	for _, row := range rows {
		st := byArticle[row.ArticleID]
		switch row.Type {
		case models.Like:
			st.Like = true
		case models.Dislike:
			st.Dislike = true
		case models.Block:
			st.Block = true
		}
		byArticle[row.ArticleID] = st
	}

	out := make([]models.InteractionState, len(ids))
	for i, id := range ids {
		st := byArticle[id]
		st.ArticleID = id
		out[i] = st
	}
	return out, nil
}

// Reconcile recomputes every article's counters from the ledger and
// rewrites those that drifted. It returns how many articles were fixed.
// Articles flagged by the bulk tally are recounted individually and written
// only while their stored counters are unchanged.
func (l *Ledger) Reconcile(ctx context.Context) (int64, error) {
	tally, err := l.interactions.Tally(ctx)
	if err != nil {
		l.metrics.Reconcile(0, err)
		return 0, err
	}
	if l.afterTally != nil {
		l.afterTally()
	}

	var fixed int64
	err = l.articles.EachStats(ctx, func(e articlestore.StatsEntry) error {
		if e.Stats == tally[e.ID] {
			return nil
		}
		want, err := l.interactions.CountFor(ctx, e.ID)
		if err != nil {
			return err
		}
		if e.Stats == want {
			return nil
		}
		swapped, err := l.articles.SwapStats(ctx, e.ID, e.Stats, want)
		if err != nil {
			return err
		}
		if !swapped {
			l.log.Debug("article stats changed during reconcile; skipped",
				zap.String("article_id", e.ID.Hex()))
			return nil
		}
		l.log.Info("article stats reconciled",
			zap.String("article_id", e.ID.Hex()),
			zap.Int64("likes", want.Likes),
			zap.Int64("dislikes", want.Dislikes),
			zap.Int64("blocks", want.Blocks))
		fixed++
		return nil
	})
	l.metrics.Reconcile(fixed, err)
	return fixed, err
}

func outcome(changed bool, err error) string {
	switch {
	case err == nil && changed:
		return "ok"
	case err == nil:
		return "noop"
	case apperr.Is(err, apperr.Conflict):
		return "conflict"
	case apperr.Is(err, apperr.NotFound):
		return "not_found"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
