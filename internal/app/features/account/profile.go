// internal/app/features/account/profile.go
package account

import (
	"net/http"
	"time"

	apierrors "github.com/dalemusser/articlio/internal/app/features/errors"
	"github.com/dalemusser/articlio/internal/app/services/accounts"
	"github.com/dalemusser/articlio/internal/app/system/apperr"
	"github.com/dalemusser/articlio/internal/app/system/auth"
	"github.com/dalemusser/articlio/internal/app/system/timeouts"
	"github.com/dalemusser/articlio/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// profileView is the user as shown on the profile page, with preferences
// resolved to category names.
type profileView struct {
	ID           primitive.ObjectID `json:"id"`
	FirstName    string             `json:"firstName"`
	LastName     string             `json:"lastName"`
	Email        string             `json:"email"`
	Phone        string             `json:"phone"`
	DOB          string             `json:"dob"`
	ProfileImage string             `json:"profileImage,omitempty"`
	Preferences  []models.Category  `json:"preferences"`
	CreatedAt    time.Time          `json:"createdAt"`
}

type profileResponse struct {
	Success bool        `json:"success"`
	Data    profileView `json:"data"`
}

// ServeProfile handles GET /my-profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.CurrentUserID(r)
	if !ok {
		apierrors.Write(w, r, h.Log, apperr.Unauthorizedf("unauthorized"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "profile")
	defer cancel()

	p, err := h.Accounts.Profile(ctx, uid)
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	prefs := p.Preferences
	if prefs == nil {
		prefs = []models.Category{}
	}
	u := p.User
	apierrors.JSON(w, http.StatusOK, profileResponse{Success: true, Data: profileView{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Phone:        u.Phone,
		DOB:          u.DOB.Format("2006-01-02"),
		ProfileImage: u.ProfileImage,
		Preferences:  prefs,
		CreatedAt:    u.CreatedAt,
	}})
}

type updateProfileRequest struct {
	FirstName    *string   `json:"firstName"`
	LastName     *string   `json:"lastName"`
	Phone        *string   `json:"phone"`
	DOB          *string   `json:"dob"`
	Preferences  *[]string `json:"preferences"`
	ProfileImage *string   `json:"profileImage"`
}

// HandleUpdateProfile handles PUT /update-profile.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.CurrentUserID(r)
	if !ok {
		apierrors.Write(w, r, h.Log, apperr.Unauthorizedf("unauthorized"))
		return
	}
	var req updateProfileRequest
	if err := apierrors.Decode(w, r, &req); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update profile")
	defer cancel()

	err := h.Accounts.UpdateProfile(ctx, uid, accounts.ProfileInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		DOB:          req.DOB,
		Preferences:  req.Preferences,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	apierrors.OK(w, "Profile updated successfully")
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// HandleChangePassword handles POST /password-change. The caller's refresh
// cookie is cleared because the stored session ends with the change.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.CurrentUserID(r)
	if !ok {
		apierrors.Write(w, r, h.Log, apperr.Unauthorizedf("unauthorized"))
		return
	}
	var req passwordRequest
	if err := apierrors.Decode(w, r, &req); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "change password")
	defer cancel()

	if err := h.Accounts.ChangePassword(ctx, uid, req.CurrentPassword, req.NewPassword); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	auth.ClearRefreshCookie(w, h.Cookie)
	h.Log.Info("password changed", zap.String("user_id", uid.Hex()))
	apierrors.OK(w, "Password changed successfully")
}
