// internal/app/features/account/register.go
package account

import (
	"net/http"

	apierrors "github.com/dalemusser/articlio/internal/app/features/errors"
	"github.com/dalemusser/articlio/internal/app/services/accounts"
	"github.com/dalemusser/articlio/internal/app/system/ratelimit"
	"github.com/dalemusser/articlio/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type registerRequest struct {
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	DOB         string   `json:"dob"`
	Password    string   `json:"password"`
	Preferences []string `json:"preferences"`
}

type registerResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// HandleRegister handles POST /registration.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := apierrors.Decode(w, r, &req); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "registration")
	defer cancel()

	u, err := h.Accounts.Register(ctx, accounts.RegisterInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		DOB:         req.DOB,
		Password:    req.Password,
		Preferences: req.Preferences,
	})
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	h.Log.Info("user registered", zap.String("user_id", u.ID.Hex()))
	apierrors.JSON(w, http.StatusCreated, registerResponse{
		Success: true,
		Message: "Registration successful. Check your e-mail for the verification code.",
		UserID:  u.ID.Hex(),
	})
}

type emailRequest struct {
	Email string `json:"email"`
}

// HandleResendOTP handles POST /resend-otp.
func (h *Handler) HandleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := apierrors.Decode(w, r, &req); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	if !h.allow(w, r, h.OTPGuard, req.Email) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "resend otp")
	defer cancel()

	if err := h.Accounts.ResendOTP(ctx, req.Email); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	apierrors.OK(w, "A new verification code has been sent.")
}

type verifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// HandleVerifyOTP handles POST /verify-otp.
func (h *Handler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := apierrors.Decode(w, r, &req); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	if !h.allow(w, r, h.OTPGuard, req.Email) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "verify otp")
	defer cancel()

	if err := h.Accounts.VerifyOTP(ctx, req.Email, req.OTP); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	if h.OTPGuard != nil {
		h.OTPGuard.ResetIdentity(req.Email)
	}
	apierrors.OK(w, "Account verified. You can now log in.")
}

// allow applies g to the request and writes a 429 when it refuses.
func (h *Handler) allow(w http.ResponseWriter, r *http.Request, g *ratelimit.Guard, email string) bool {
	if g == nil {
		return true
	}
	ok, msg := g.Check(r, email)
	if !ok {
		h.Log.Warn("rate limited",
			zap.String("path", r.URL.Path),
			zap.String("ip", ratelimit.ClientIP(r)))
		ratelimit.WriteTooMany(w, msg)
	}
	return ok
}
