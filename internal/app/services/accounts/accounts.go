// Package accounts handles registration, OTP verification, token sessions
// and profile maintenance.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	categorystore "github.com/dalemusser/articlio/internal/app/store/categories"
	otpstore "github.com/dalemusser/articlio/internal/app/store/otp"
	userstore "github.com/dalemusser/articlio/internal/app/store/users"
	"github.com/dalemusser/articlio/internal/app/system/apperr"
	"github.com/dalemusser/articlio/internal/app/system/auth"
	"github.com/dalemusser/articlio/internal/app/system/mailer"
	"github.com/dalemusser/articlio/internal/app/system/metrics"
	"github.com/dalemusser/articlio/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/validate"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLen = 8
	dobLayout      = "2006-01-02"
)

var phoneRE = regexp.MustCompile(`^[0-9]{10,15}$`)

// Service wires the account stores to token issuance and mail delivery.
type Service struct {
	users      *userstore.Store
	categories *categorystore.Store
	otps       *otpstore.Store
	tokens     *auth.TokenManager
	mail       mailer.Sender
	metrics    *metrics.Metrics
	log        *zap.Logger

	SiteName   string
	BcryptCost int
}

func New(users *userstore.Store, categories *categorystore.Store, otps *otpstore.Store, tokens *auth.TokenManager, mail mailer.Sender, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		users:      users,
		categories: categories,
		otps:       otps,
		tokens:     tokens,
		mail:       mail,
		metrics:    m,
		log:        logger,
		SiteName:   "Articlio",
		BcryptCost: bcrypt.DefaultCost,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Registration & OTP                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// RegisterInput is the registration form.
type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	DOB         string // YYYY-MM-DD
	Password    string
	Preferences []string
}

// Register creates a pending account and e-mails its verification code.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	first, last := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	if first == "" || last == "" {
		return models.User{}, apperr.Invalidf("first and last name are required")
	}
	email, err := cleanEmail(in.Email)
	if err != nil {
		return models.User{}, err
	}
	phone, err := cleanPhone(in.Phone)
	if err != nil {
		return models.User{}, err
	}
	dob, err := parseDOB(in.DOB)
	if err != nil {
		return models.User{}, err
	}
	if len(in.Password) < MinPasswordLen {
		return models.User{}, apperr.Invalidf(fmt.Sprintf("password must be at least %d characters", MinPasswordLen))
	}
	prefs, err := s.preferences(ctx, in.Preferences)
	if err != nil {
		return models.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.BcryptCost)
	if err != nil {
		return models.User{}, apperr.Wrap(err, "registration failed")
	}

	u, err := s.users.Create(ctx, models.User{
		FirstName:    first,
		LastName:     last,
		Email:        email,
		Phone:        phone,
		DOB:          dob,
		PasswordHash: string(hash),
		Preferences:  prefs,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			return models.User{}, apperr.Conflictf("email already registered")
		}
		return models.User{}, apperr.Wrap(fmt.Errorf("create user: %w", err), "registration failed")
	}

	// The account exists either way; a failed send is recoverable via resend.
	if err := s.sendOTP(ctx, u, false); err != nil {
		s.log.Warn("verification e-mail not sent",
			zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}
	return u, nil
}

// ResendOTP issues a fresh code to a pending account.
func (s *Service) ResendOTP(ctx context.Context, email string) error {
	u, err := s.byEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.IsActive() {
		return apperr.Conflictf("account already verified")
	}
	if err := s.sendOTP(ctx, *u, true); err != nil {
		if ae := apperr.As(err); ae != nil {
			return ae
		}
		return apperr.Wrap(fmt.Errorf("resend otp user_id=%s: %w", u.ID.Hex(), err), "could not send verification code")
	}
	return nil
}

// VerifyOTP activates the account when code matches.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) error {
	u, err := s.byEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.IsActive() {
		return apperr.Conflictf("account already verified")
	}

	switch err := s.otps.Verify(ctx, u.ID, strings.TrimSpace(code)); {
	case err == nil:
	case errors.Is(err, otpstore.ErrNotFound):
		return apperr.Invalidf("OTP expired. Please request a new one.")
	case errors.Is(err, otpstore.ErrInvalidCode):
		return apperr.Invalidf("Invalid OTP. Please try again")
	case errors.Is(err, otpstore.ErrTooManyAttempts):
		return apperr.New(apperr.TooMany, "too many attempts. Please request a new code.")
	default:
		return apperr.Wrap(fmt.Errorf("verify otp user_id=%s: %w", u.ID.Hex(), err), "verification failed")
	}

	if err := s.users.Activate(ctx, u.ID); err != nil {
		return apperr.Wrap(fmt.Errorf("activate user user_id=%s: %w", u.ID.Hex(), err), "verification failed")
	}
	return nil
}

func (s *Service) sendOTP(ctx context.Context, u models.User, isResend bool) error {
	code, err := s.otps.Issue(ctx, u.ID, u.Email, isResend)
	if err != nil {
		if errors.Is(err, otpstore.ErrTooManyResends) {
			return apperr.New(apperr.TooMany, "too many resend requests. Please wait a few minutes.")
		}
		return err
	}
	s.metrics.OTPSent()
	return s.mail.Send(ctx, mailer.BuildOTPEmail(u.Email, mailer.OTPEmailData{
		SiteName:  s.SiteName,
		FirstName: u.FirstName,
		Code:      code,
		ExpiresIn: humanize(s.otps.Expiry()),
	}))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Sessions                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// Session is the outcome of a login or refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         models.User
}

// Login checks credentials and starts a new session, replacing any other.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Session{}, apperr.Unauthorizedf("invalid email or password")
		}
		return Session{}, apperr.Wrap(fmt.Errorf("load user: %w", err), "login failed")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Session{}, apperr.Unauthorizedf("invalid email or password")
	}
	if !u.IsActive() {
		return Session{}, apperr.Forbiddenf("signup not completed")
	}
	return s.startSession(ctx, *u)
}

// Refresh exchanges a current refresh token for a new access token and a
// rotated refresh token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	u, jti, err := s.sessionUser(ctx, refreshToken)
	if err != nil {
		return Session{}, err
	}
	if u.RefreshID == "" || u.RefreshID != jti {
		return Session{}, apperr.Unauthorizedf("session expired")
	}
	if !u.IsActive() {
		return Session{}, apperr.Forbiddenf("signup not completed")
	}
	return s.startSession(ctx, *u)
}

// Logout ends the session named by refreshToken. Unknown or stale tokens
// are not an error.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	c, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(c.Subject)
	if err != nil {
		return nil
	}
	if _, err := s.users.ClearRefreshID(ctx, id, c.ID); err != nil {
		return apperr.Wrap(fmt.Errorf("clear refresh id user_id=%s: %w", id.Hex(), err), "logout failed")
	}
	return nil
}

func (s *Service) sessionUser(ctx context.Context, refreshToken string) (*models.User, string, error) {
	if refreshToken == "" {
		return nil, "", apperr.Unauthorizedf("missing refresh token")
	}
	c, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, "", apperr.Unauthorizedf("invalid refresh token")
	}
	id, err := primitive.ObjectIDFromHex(c.Subject)
	if err != nil {
		return nil, "", apperr.Unauthorizedf("invalid refresh token")
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, "", apperr.Unauthorizedf("invalid refresh token")
		}
		return nil, "", apperr.Wrap(err, "refresh failed")
	}
	return u, c.ID, nil
}

func (s *Service) startSession(ctx context.Context, u models.User) (Session, error) {
	access, err := s.tokens.IssueAccess(u.ID.Hex(), u.Email)
	if err != nil {
		return Session{}, apperr.Wrap(err, "could not issue token")
	}
	refresh, jti, err := s.tokens.IssueRefresh(u.ID.Hex())
	if err != nil {
		return Session{}, apperr.Wrap(err, "could not issue token")
	}
	if err := s.users.SetRefreshID(ctx, u.ID, jti); err != nil {
		return Session{}, apperr.Wrap(fmt.Errorf("store refresh id user_id=%s: %w", u.ID.Hex(), err), "could not start session")
	}
	u.RefreshID = jti
	return Session{AccessToken: access, RefreshToken: refresh, User: u}, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Profile                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// Profile is a user with preferences resolved to categories.
type Profile struct {
	User        models.User
	Preferences []models.Category
}

// Profile loads userID's profile.
func (s *Service) Profile(ctx context.Context, userID primitive.ObjectID) (Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Profile{}, apperr.NotFoundf("user not found")
		}
		return Profile{}, apperr.Wrap(err, "fetch failed")
	}
	cats, err := s.categories.ByIDs(ctx, u.Preferences)
	if err != nil {
		return Profile{}, apperr.Wrap(err, "fetch failed")
	}
	return Profile{User: *u, Preferences: cats}, nil
}

// ProfileInput holds profile edits; nil leaves a field as is.
type ProfileInput struct {
	FirstName    *string
	LastName     *string
	Phone        *string
	DOB          *string
	Preferences  *[]string
	ProfileImage *string
}

// UpdateProfile validates and applies in.
func (s *Service) UpdateProfile(ctx context.Context, userID primitive.ObjectID, in ProfileInput) error {
	var upd userstore.ProfileUpdate
	if in.FirstName != nil {
		if strings.TrimSpace(*in.FirstName) == "" {
			return apperr.Invalidf("first name is required")
		}
		upd.FirstName = in.FirstName
	}
	if in.LastName != nil {
		if strings.TrimSpace(*in.LastName) == "" {
			return apperr.Invalidf("last name is required")
		}
		upd.LastName = in.LastName
	}
	if in.Phone != nil {
		p, err := cleanPhone(*in.Phone)
		if err != nil {
			return err
		}
		upd.Phone = &p
	}
	if in.DOB != nil {
		d, err := parseDOB(*in.DOB)
		if err != nil {
			return err
		}
		upd.DOB = &d
	}
	if in.Preferences != nil {
		prefs, err := s.preferences(ctx, *in.Preferences)
		if err != nil {
			return err
		}
		upd.Preferences = &prefs
	}
	upd.ProfileImage = in.ProfileImage

	if err := s.users.UpdateProfile(ctx, userID, upd); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFoundf("user not found")
		}
		return apperr.Wrap(fmt.Errorf("update profile user_id=%s: %w", userID.Hex(), err), "could not update profile")
	}
	return nil
}

// ChangePassword replaces the password after checking the current one.
// Other sessions end because the stored refresh ID is cleared.
func (s *Service) ChangePassword(ctx context.Context, userID primitive.ObjectID, current, next string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFoundf("user not found")
		}
		return apperr.Wrap(err, "fetch failed")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return apperr.Invalidf("current password is incorrect")
	}
	if len(next) < MinPasswordLen {
		return apperr.Invalidf(fmt.Sprintf("password must be at least %d characters", MinPasswordLen))
	}
	if next == current {
		return apperr.Invalidf("new password must differ from the current one")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.BcryptCost)
	if err != nil {
		return apperr.Wrap(err, "could not change password")
	}
	if err := s.users.SetPasswordHash(ctx, userID, string(hash)); err != nil {
		return apperr.Wrap(fmt.Errorf("set password user_id=%s: %w", userID.Hex(), err), "could not change password")
	}
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (s *Service) byEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFoundf("user not found")
		}
		return nil, apperr.Wrap(err, "fetch failed")
	}
	return u, nil
}

// preferences parses category IDs and checks they all exist.
func (s *Service) preferences(ctx context.Context, raw []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(raw))
	seen := map[primitive.ObjectID]struct{}{}
	for _, r := range raw {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(r))
		if err != nil {
			return nil, apperr.Invalidf("invalid preference id")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return ids, nil
	}
	n, err := s.categories.CountExisting(ctx, ids)
	if err != nil {
		return nil, apperr.Wrap(err, "fetch failed")
	}
	if n != int64(len(ids)) {
		return nil, apperr.Invalidf("unknown preference category")
	}
	return ids, nil
}

func cleanEmail(s string) (string, error) {
	s = userstore.NormalizeEmail(s)
	if !validate.SimpleEmailValid(s) || strings.ContainsAny(s, " \t") {
		return "", apperr.Invalidf("invalid email address")
	}
	return s, nil
}

func cleanPhone(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !phoneRE.MatchString(s) {
		return "", apperr.Invalidf("phone must be 10 to 15 digits")
	}
	return s, nil
}

func parseDOB(s string) (time.Time, error) {
	d, err := time.Parse(dobLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperr.Invalidf("date of birth must be YYYY-MM-DD")
	}
	if !d.Before(time.Now()) {
		return time.Time{}, apperr.Invalidf("date of birth must be in the past")
	}
	return d, nil
}

func humanize(d time.Duration) string {
	if m := int(d.Minutes()); m > 0 && d%time.Minute == 0 {
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return d.String()
}
