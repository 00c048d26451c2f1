// internal/app/features/interactions/handler.go
package interactions

import (
	"net/http"

	apierrors "github.com/dalemusser/articlio/internal/app/features/errors"
	"github.com/dalemusser/articlio/internal/app/services/ledger"
	"github.com/dalemusser/articlio/internal/app/system/apperr"
	"github.com/dalemusser/articlio/internal/app/system/auth"
	"github.com/dalemusser/articlio/internal/app/system/timeouts"
	"github.com/dalemusser/articlio/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MaxStateIDs caps how many articles one get-interactions call may ask about.
const MaxStateIDs = 100

// Handler serves the vote endpoints.
type Handler struct {
	Ledger *ledger.Ledger
	Log    *zap.Logger
}

func NewHandler(l *ledger.Ledger, logger *zap.Logger) *Handler {
	return &Handler{Ledger: l, Log: logger}
}

type interactRequest struct {
	ArticleID string `json:"articleId"`
	Type      string `json:"type"`
	Action    string `json:"action"`
}

// HandleInteract handles POST /interact.
func (h *Handler) HandleInteract(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUserID(r)
	if !ok {
		apierrors.Write(w, r, h.Log, apperr.Unauthorizedf("unauthorized"))
		return
	}
	var req interactRequest
	if err := apierrors.Decode(w, r, &req); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	articleID, err := primitive.ObjectIDFromHex(req.ArticleID)
	if err != nil {
		apierrors.Write(w, r, h.Log, apperr.Invalidf("invalid article id"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "apply interaction")
	defer cancel()

	if _, err := h.Ledger.Apply(ctx, userID, articleID,
		models.InteractionType(req.Type), models.InteractionAction(req.Action)); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	apierrors.OK(w, "Interaction processed")
}

type stateRequest struct {
	ArticleIDs []string `json:"articleIds"`
}

type stateResponse struct {
	Success bool                      `json:"success"`
	Data    []models.InteractionState `json:"data"`
}

// ServeState handles POST /get-interactions.
func (h *Handler) ServeState(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUserID(r)
	if !ok {
		apierrors.Write(w, r, h.Log, apperr.Unauthorizedf("unauthorized"))
		return
	}
	var req stateRequest
	if err := apierrors.Decode(w, r, &req); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	if len(req.ArticleIDs) > MaxStateIDs {
		apierrors.Write(w, r, h.Log, apperr.Invalidf("too many article ids"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "interaction state")
	defer cancel()

	states, err := h.Ledger.State(ctx, userID, req.ArticleIDs)
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	if states == nil {
		states = []models.InteractionState{}
	}
	apierrors.JSON(w, http.StatusOK, stateResponse{Success: true, Data: states})
}
