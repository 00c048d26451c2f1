// internal/app/features/account/routes.go
package account

import (
	"github.com/dalemusser/articlio/internal/app/system/auth"
	"github.com/dalemusser/articlio/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Register adds the account endpoints to r. registerLimit, when non-nil,
// throttles /registration per client IP.
func Register(r chi.Router, h *Handler, registerLimit *ratelimit.Limiter) {
	r.Group(func(r chi.Router) {
		if registerLimit != nil {
			r.Use(ratelimit.PerIP(registerLimit))
		}
		r.Post("/registration", h.HandleRegister)
	})

	r.Post("/resend-otp", h.HandleResendOTP)
	r.Post("/verify-otp", h.HandleVerifyOTP)
	r.Post("/login", h.HandleLogin)
	r.Post("/refresh-token", h.HandleRefresh)
	r.Post("/logout", h.HandleLogout)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/my-profile", h.ServeProfile)
		r.Put("/update-profile", h.HandleUpdateProfile)
		r.Post("/password-change", h.HandleChangePassword)
	})
}
