// internal/app/bootstrap/runtime.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/articlio/internal/app/services/accounts"
	"github.com/dalemusser/articlio/internal/app/services/authoring"
	"github.com/dalemusser/articlio/internal/app/services/feed"
	"github.com/dalemusser/articlio/internal/app/services/ledger"
	articlestore "github.com/dalemusser/articlio/internal/app/store/articles"
	categorystore "github.com/dalemusser/articlio/internal/app/store/categories"
	interactionstore "github.com/dalemusser/articlio/internal/app/store/interactions"
	otpstore "github.com/dalemusser/articlio/internal/app/store/otp"
	userstore "github.com/dalemusser/articlio/internal/app/store/users"
	"github.com/dalemusser/articlio/internal/app/system/auth"
	"github.com/dalemusser/articlio/internal/app/system/mailer"
	"github.com/dalemusser/articlio/internal/app/system/metrics"
	"github.com/dalemusser/articlio/internal/app/system/ratelimit"
	"github.com/dalemusser/articlio/internal/app/system/workers"
	"go.uber.org/zap"
)

// Runtime holds the services and background workers built at startup.
type Runtime struct {
	Metrics *metrics.Metrics
	Tokens  *auth.TokenManager

	Ledger    *ledger.Ledger
	Feed      *feed.Feed
	Authoring *authoring.Authoring
	Accounts  *accounts.Service

	LoginGuard    *ratelimit.Guard
	OTPGuard      *ratelimit.Guard
	RegisterLimit *ratelimit.Limiter

	Reconciler *workers.StatsReconcile
}

// build wires stores into services. Every dependency is passed explicitly.
func (rt *Runtime) build(appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	tokens, err := auth.NewTokenManager(
		appCfg.AccessTokenSecret, appCfg.RefreshTokenSecret,
		appCfg.AccessTokenExpiry, appCfg.RefreshTokenExpiry, logger)
	if err != nil {
		return fmt.Errorf("token manager: %w", err)
	}

	db := deps.MongoDatabase
	users := userstore.New(db)
	categories := categorystore.New(db)
	articles := articlestore.New(db)
	interactions := interactionstore.New(db)
	otps := otpstore.New(db, appCfg.OTPExpiry)

	m := metrics.New()
	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)

	rt.Metrics = m
	rt.Tokens = tokens
	rt.Ledger = ledger.New(deps.MongoClient, articles, interactions, m, logger)
	rt.Feed = feed.New(users, articles, categories, m, logger)
	rt.Authoring = authoring.New(articles, categories, logger)
	rt.Accounts = accounts.New(users, categories, otps, tokens, mail, m, logger)
	if appCfg.MailFromName != "" {
		rt.Accounts.SiteName = appCfg.MailFromName
	}

	rt.LoginGuard = ratelimit.NewLoginGuard()
	rt.OTPGuard = ratelimit.NewOTPGuard()
	rt.RegisterLimit = ratelimit.New(5, 10*time.Minute)

	if appCfg.ReconcileInterval > 0 {
		rt.Reconciler = workers.NewStatsReconcile(rt.Ledger, logger, appCfg.ReconcileInterval)
	}
	return nil
}

// close stops background goroutines. Safe on a partially built Runtime.
func (rt *Runtime) close() {
	if rt == nil {
		return
	}
	if rt.Reconciler != nil {
		rt.Reconciler.Stop()
	}
	if rt.LoginGuard != nil {
		rt.LoginGuard.Stop()
	}
	if rt.OTPGuard != nil {
		rt.OTPGuard.Stop()
	}
	if rt.RegisterLimit != nil {
		rt.RegisterLimit.Stop()
	}
}
