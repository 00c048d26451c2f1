// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const (
	devAccessSecret  = "dev-only-access-secret-change-me-0123456789"
	devRefreshSecret = "dev-only-refresh-secret-change-me-0123456789"
)

// appConfigKeys defines the configuration keys for Articlio.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, access_token_secret, etc.
//   - Environment variables: ARTICLIO_MONGO_URI, ARTICLIO_ACCESS_TOKEN_SECRET, etc.
//   - Command-line flags: --mongo_uri, --access_token_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "articlio", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size (default: 5)"},

	// Tokens
	{Name: "access_token_secret", Default: devAccessSecret, Desc: "HMAC secret for access tokens (must be strong in production)"},
	{Name: "refresh_token_secret", Default: devRefreshSecret, Desc: "HMAC secret for refresh tokens (must differ from the access secret)"},
	{Name: "access_token_expiry", Default: "15m", Desc: "Access token lifetime (e.g., 15m, 1h)"},
	{Name: "refresh_token_expiry", Default: "168h", Desc: "Refresh token lifetime (e.g., 168h)"},
	{Name: "cookie_domain", Default: "", Desc: "Refresh cookie domain (blank means current host)"},
	{Name: "cookie_secure", Default: false, Desc: "Mark the refresh cookie Secure with SameSite=None (always on in prod)"},

	{Name: "trust_proxy", Default: false, Desc: "Take the client IP from forwarding headers (enable only behind a trusted proxy)"},

	// OTP
	{Name: "otp_expiry", Default: "5m", Desc: "Verification code lifetime"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank logs e-mails instead of sending)"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@articlio.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "Articlio", Desc: "From display name"},

	// CORS
	{Name: "cors_allowed_origins", Default: "http://localhost:3000,http://localhost:5173", Desc: "Comma-separated origins allowed to call the API with credentials"},

	// Workers
	{Name: "reconcile_interval", Default: "10m", Desc: "How often article stats are recomputed from the ledger (0 disables)"},

	// Reference data
	{Name: "seed_categories", Default: "technology,sports,politics,business,health,science,entertainment,travel,food,education", Desc: "Comma-separated categories created at startup"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, ARTICLIO_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ARTICLIO", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		AccessTokenSecret:  appValues.String("access_token_secret"),
		RefreshTokenSecret: appValues.String("refresh_token_secret"),
		AccessTokenExpiry:  appValues.Duration("access_token_expiry", 15*time.Minute),
		RefreshTokenExpiry: appValues.Duration("refresh_token_expiry", 7*24*time.Hour),
		CookieDomain:       appValues.String("cookie_domain"),
		CookieSecure:       appValues.Bool("cookie_secure") || coreCfg.Env == "prod",
		TrustProxy:         appValues.Bool("trust_proxy"),

		OTPExpiry: appValues.Duration("otp_expiry", 5*time.Minute),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),
		ReconcileInterval:  appValues.Duration("reconcile_interval", 10*time.Minute),
		SeedCategories:     splitList(appValues.String("seed_categories")),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Articlio validates the MongoDB URI format to catch configuration errors
// early, and refuses to run in prod with the built-in token secrets.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if err := validateSecrets(coreCfg.Env, appCfg); err != nil {
		logger.Error("invalid token configuration", zap.Error(err))
		return err
	}
	if appCfg.AccessTokenExpiry <= 0 || appCfg.RefreshTokenExpiry <= 0 {
		return errors.New("token expiries must be positive")
	}
	if appCfg.AccessTokenExpiry >= appCfg.RefreshTokenExpiry {
		return errors.New("access_token_expiry must be shorter than refresh_token_expiry")
	}
	if appCfg.OTPExpiry <= 0 {
		return errors.New("otp_expiry must be positive")
	}
	return nil
}

func validateSecrets(env string, appCfg AppConfig) error {
	if appCfg.AccessTokenSecret == "" || appCfg.RefreshTokenSecret == "" {
		return errors.New("access_token_secret and refresh_token_secret are required")
	}
	if appCfg.AccessTokenSecret == appCfg.RefreshTokenSecret {
		return errors.New("access_token_secret and refresh_token_secret must differ")
	}
	if env == "dev" {
		return nil
	}
	if appCfg.AccessTokenSecret == devAccessSecret || appCfg.RefreshTokenSecret == devRefreshSecret {
		return fmt.Errorf("default token secrets are not allowed in %s", env)
	}
	if len(appCfg.AccessTokenSecret) < 32 || len(appCfg.RefreshTokenSecret) < 32 {
		return errors.New("token secrets must be at least 32 characters")
	}
	return nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
