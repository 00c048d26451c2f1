// internal/app/features/account/handler.go
package account

import (
	"time"

	"github.com/dalemusser/articlio/internal/app/services/accounts"
	"github.com/dalemusser/articlio/internal/app/system/auth"
	"github.com/dalemusser/articlio/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Handler serves registration, session and profile endpoints.
type Handler struct {
	Accounts   *accounts.Service
	Cookie     auth.CookieOptions
	RefreshTTL time.Duration
	LoginGuard *ratelimit.Guard
	OTPGuard   *ratelimit.Guard
	Log        *zap.Logger
}

// NewHandler wires the account service. Guards may be nil to disable
// per-account rate limiting.
func NewHandler(svc *accounts.Service, cookie auth.CookieOptions, refreshTTL time.Duration, loginGuard, otpGuard *ratelimit.Guard, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts:   svc,
		Cookie:     cookie,
		RefreshTTL: refreshTTL,
		LoginGuard: loginGuard,
		OTPGuard:   otpGuard,
		Log:        logger,
	}
}
