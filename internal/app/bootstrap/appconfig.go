// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration. Ports, TLS, log level and
// request limits live in WAFFLE's CoreConfig.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Token configuration
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	// Refresh cookie
	CookieDomain string // blank means current host
	CookieSecure bool   // Secure + SameSite=None; forced on in prod

	// TrustProxy takes the client IP from X-Forwarded-For/X-Real-IP. Only
	// enable behind a proxy that overwrites those headers.
	TrustProxy bool

	// OTP verification
	OTPExpiry time.Duration

	// Email/SMTP configuration. An empty host logs messages instead of
	// sending them.
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// CORS
	CORSAllowedOrigins []string

	// Background stats reconciliation; zero disables the worker.
	ReconcileInterval time.Duration

	// Categories created at startup when missing.
	SeedCategories []string
}
