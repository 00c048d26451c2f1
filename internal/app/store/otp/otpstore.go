// internal/app/store/otp/otpstore.go
package otpstore

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

const (
	// CodeLength is the number of digits in a code.
	CodeLength = 6
	// DefaultExpiry is how long a code is valid.
	DefaultExpiry = 5 * time.Minute
	// BcryptCost for hashing codes.
	BcryptCost = 10
	// MaxVerifyAttempts caps guesses against one code.
	MaxVerifyAttempts = 5
	// MaxResends caps resends within ResendWindow.
	MaxResends = 3
	// ResendWindow is the rate limit window for resends.
	ResendWindow = 10 * time.Minute
)

var (
	ErrNotFound        = errors.New("code not found or expired")
	ErrInvalidCode     = errors.New("invalid verification code")
	ErrTooManyAttempts = errors.New("too many verification attempts")
	ErrTooManyResends  = errors.New("too many resend requests")
)

// Code is a pending one-time password for a user.
type Code struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      primitive.ObjectID `bson:"user_id"`
	Email       string             `bson:"email"`
	CodeHash    string             `bson:"code_hash"`
	ExpiresAt   time.Time          `bson:"expires_at"` // TTL index field
	CreatedAt   time.Time          `bson:"created_at"`
	Attempts    int                `bson:"attempts"`
	ResendCount int                `bson:"resend_count"`
	WindowStart time.Time          `bson:"window_start"`
}

type Store struct {
	c      *mongo.Collection
	expiry time.Duration
	now    func() time.Time
}

// New returns a store; expiry <= 0 selects DefaultExpiry.
func New(db *mongo.Database, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{c: db.Collection("otp_codes"), expiry: expiry, now: time.Now}
}

// Expiry returns how long issued codes are valid.
func (s *Store) Expiry() time.Duration { return s.expiry }

// Issue replaces any pending code for userID with a fresh one and returns
// the plain code for delivery. Resends within ResendWindow are capped at
// MaxResends.
func (s *Store) Issue(ctx context.Context, userID primitive.ObjectID, email string, isResend bool) (string, error) {
	now := s.now().UTC()

	var existing Code
	err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&existing)
	found := err == nil
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return "", err
	}

	resendCount, windowStart := 0, now
	if found && now.Before(existing.WindowStart.Add(ResendWindow)) {
		if isResend && existing.ResendCount >= MaxResends {
			return "", ErrTooManyResends
		}
		windowStart = existing.WindowStart
		resendCount = existing.ResendCount
		if isResend {
			resendCount++
		}
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}

	if _, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return "", err
	}
	doc := Code{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		Email:       email,
		CodeHash:    string(hash),
		ExpiresAt:   now.Add(s.expiry),
		CreatedAt:   now,
		ResendCount: resendCount,
		WindowStart: windowStart,
	}
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert code: %w", err)
	}
	return code, nil
}

// Verify checks code for userID. A correct code is consumed. Every attempt,
// right or wrong, counts toward MaxVerifyAttempts.
func (s *Store) Verify(ctx context.Context, userID primitive.ObjectID, code string) error {
	var c Code
	err := s.c.FindOne(ctx, bson.M{
		"user_id":    userID,
		"expires_at": bson.M{"$gt": s.now().UTC()},
	}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	}
	if c.Attempts >= MaxVerifyAttempts {
		return ErrTooManyAttempts
	}

	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{"$inc": bson.M{"attempts": 1}}); err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(c.CodeHash), []byte(code)) != nil {
		return ErrInvalidCode
	}

	_, err = s.c.DeleteOne(ctx, bson.M{"_id": c.ID})
	return err
}

// DeleteByUser removes all pending codes for userID.
func (s *Store) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}

// generateCode returns a uniformly random code of CodeLength digits with no
// leading zero.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
