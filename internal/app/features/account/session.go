// internal/app/features/account/session.go
package account

import (
	"net/http"

	apierrors "github.com/dalemusser/articlio/internal/app/features/errors"
	"github.com/dalemusser/articlio/internal/app/system/auth"
	"github.com/dalemusser/articlio/internal/app/system/timeouts"
	"github.com/dalemusser/articlio/internal/domain/models"
	"go.uber.org/zap"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success     bool        `json:"success"`
	AccessToken string      `json:"accessToken"`
	User        models.User `json:"user"`
}

type tokenResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken"`
}

// HandleLogin handles POST /login. The refresh token goes into an httpOnly
// cookie; only the access token is in the body.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := apierrors.Decode(w, r, &req); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	if !h.allow(w, r, h.LoginGuard, req.Email) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	sess, err := h.Accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	if h.LoginGuard != nil {
		h.LoginGuard.ResetIdentity(req.Email)
	}

	auth.SetRefreshCookie(w, sess.RefreshToken, h.RefreshTTL, h.Cookie)
	h.Log.Info("user logged in", zap.String("user_id", sess.User.ID.Hex()))
	apierrors.JSON(w, http.StatusOK, loginResponse{
		Success:     true,
		AccessToken: sess.AccessToken,
		User:        sess.User,
	})
}

// HandleRefresh handles POST /refresh-token.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "refresh token")
	defer cancel()

	sess, err := h.Accounts.Refresh(ctx, auth.RefreshToken(r))
	if err != nil {
		auth.ClearRefreshCookie(w, h.Cookie)
		apierrors.Write(w, r, h.Log, err)
		return
	}
	auth.SetRefreshCookie(w, sess.RefreshToken, h.RefreshTTL, h.Cookie)
	apierrors.JSON(w, http.StatusOK, tokenResponse{Success: true, AccessToken: sess.AccessToken})
}

// HandleLogout handles POST /logout. It always clears the cookie.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "logout")
	defer cancel()

	err := h.Accounts.Logout(ctx, auth.RefreshToken(r))
	auth.ClearRefreshCookie(w, h.Cookie)
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	apierrors.OK(w, "Logged out successfully")
}
