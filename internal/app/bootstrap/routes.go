// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"
	"time"

	accountfeature "github.com/dalemusser/articlio/internal/app/features/account"
	articlesfeature "github.com/dalemusser/articlio/internal/app/features/articles"
	categoriesfeature "github.com/dalemusser/articlio/internal/app/features/categories"
	apierrors "github.com/dalemusser/articlio/internal/app/features/errors"
	healthfeature "github.com/dalemusser/articlio/internal/app/features/health"
	interactionsfeature "github.com/dalemusser/articlio/internal/app/features/interactions"
	"github.com/dalemusser/articlio/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed, so deps.Runtime holds built services.
//
// Middleware order: request ID, real IP, panic recovery, CORS, then bearer
// token loading. Feature routers add RequireSignedIn where needed.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	rt := deps.Runtime
	if rt == nil || rt.Tokens == nil {
		return nil, errors.New("runtime not initialized; Startup must run before BuildHandler")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if appCfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           int((12 * time.Hour).Seconds()),
	}))
	r.Use(rt.Tokens.LoadBearerUser)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apierrors.Fail(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apierrors.Fail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Prometheus scrape endpoint
	r.Handle("/metrics", rt.Metrics.Handler())

	// Accounts and sessions
	accountHandler := accountfeature.NewHandler(rt.Accounts,
		auth.CookieOptions{Domain: appCfg.CookieDomain, Secure: appCfg.CookieSecure},
		rt.Tokens.RefreshTTL(), rt.LoginGuard, rt.OTPGuard, logger)
	accountfeature.Register(r, accountHandler, rt.RegisterLimit)

	// Category catalog
	categoriesfeature.Register(r, categoriesfeature.NewHandler(rt.Feed, logger))

	// Articles: feed and authoring
	articlesfeature.Register(r, articlesfeature.NewHandler(rt.Feed, rt.Authoring, logger))

	// Votes
	interactionsfeature.Register(r, interactionsfeature.NewHandler(rt.Ledger, logger))

	logger.Info("routes mounted", zap.Strings("cors_origins", appCfg.CORSAllowedOrigins))
	return r, nil
}
