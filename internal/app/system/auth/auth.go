package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Token constants                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	// RefreshCookieName carries the refresh token between the SPA and the API.
	RefreshCookieName = "refreshToken"

	issuer = "articlio"

	kindAccess  = "access"
	kindRefresh = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrWrongKind    = errors.New("token kind mismatch")
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the acting user decoded from a bearer token and injected
// into r.Context().
type SessionUser struct {
	ID    string
	Email string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// CurrentUserID returns the acting user's ObjectID. It reports false when
// no user is signed in or the token subject is not a valid ID.
func CurrentUserID(r *http.Request) (primitive.ObjectID, bool) {
	u, ok := CurrentUser(r)
	if !ok || u == nil {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// WithTestUser injects u into the request context, bypassing token parsing.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Claims & token manager                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// Claims are the JWT claims used for both access and refresh tokens.
// Subject holds the user ID; ID (jti) is set on refresh tokens only.
type Claims struct {
	Email string `json:"email,omitempty"`
	Kind  string `json:"kind"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 access and refresh tokens.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	log           *zap.Logger
	now           func() time.Time
}

// NewTokenManager validates the secrets and returns a manager.
func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, logger *zap.Logger) (*TokenManager, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, fmt.Errorf("token secrets must not be empty")
	}
	if accessSecret == refreshSecret {
		return nil, fmt.Errorf("access and refresh secrets must differ")
	}
	if len(accessSecret) < 32 || len(refreshSecret) < 32 {
		logger.Warn("token secret is short; 32+ chars recommended")
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		log:           logger,
		now:           time.Now,
	}, nil
}

// RefreshTTL is the lifetime of refresh tokens (and the refresh cookie).
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// IssueAccess signs a short-lived access token for userID.
func (m *TokenManager) IssueAccess(userID, email string) (string, error) {
	now := m.now()
	c := Claims{
		Email: email,
		Kind:  kindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.accessSecret)
}

// IssueRefresh signs a refresh token and returns it with its jti. Callers
// store the jti on the user so only the latest refresh token is honored.
func (m *TokenManager) IssueRefresh(userID string) (token, jti string, err error) {
	now := m.now()
	jti = uuid.NewString()
	c := Claims{
		Kind: kindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.refreshSecret)
	return token, jti, err
}

// ParseAccess verifies an access token.
func (m *TokenManager) ParseAccess(token string) (*Claims, error) {
	return m.parse(token, m.accessSecret, kindAccess)
}

// ParseRefresh verifies a refresh token.
func (m *TokenManager) ParseRefresh(token string) (*Claims, error) {
	return m.parse(token, m.refreshSecret, kindRefresh)
}

func (m *TokenManager) parse(token string, secret []byte, kind string) (*Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Kind != kind {
		return nil, ErrWrongKind
	}
	if c.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &c, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// LoadBearerUser injects the user into context when the request carries a
// valid access token. Invalid tokens are ignored here; RequireSignedIn
// rejects the request.
func (m *TokenManager) LoadBearerUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearerToken(r)
		if tok == "" {
			next.ServeHTTP(w, r)
			return
		}
		c, err := m.ParseAccess(tok)
		if err != nil {
			m.log.Debug("rejected bearer token", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		r = withUser(r, &SessionUser{ID: c.Subject, Email: c.Email})
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadBearerUser).
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "unauthorized",
		})
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Refresh cookie                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// CookieOptions controls the refresh cookie. In production (Secure=true) the
// cookie is SameSite=None so the SPA can send it cross-site; in local dev over
// http://localhost it is Lax.
type CookieOptions struct {
	Domain string
	Secure bool
}

// SetRefreshCookie writes the refresh token as an httpOnly cookie.
func SetRefreshCookie(w http.ResponseWriter, token string, ttl time.Duration, opts CookieOptions) {
	http.SetCookie(w, refreshCookie(token, int(ttl.Seconds()), opts))
}

// ClearRefreshCookie expires the refresh cookie.
func ClearRefreshCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, refreshCookie("", -1, opts))
}

// RefreshToken reads the refresh token from the cookie.
func RefreshToken(r *http.Request) string {
	c, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func refreshCookie(value string, maxAge int, opts CookieOptions) *http.Cookie {
	c := &http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if opts.Secure {
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
