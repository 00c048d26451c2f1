package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/articlio/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errStatus         = errors.New(`status must be "pending"|"active"`)
)

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Create inserts a new user after normalizing fields. Status defaults to
// pending until the OTP is verified.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)
	u.Email = NormalizeEmail(u.Email)
	u.EmailCI = text.Fold(u.Email)
	if u.Status == "" {
		u.Status = models.UserPending
	}
	if u.Status != models.UserPending && u.Status != models.UserActive {
		return models.User{}, errStatus
	}
	if u.Preferences == nil {
		u.Preferences = []primitive.ObjectID{}
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(NormalizeEmail(email))}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Preferences returns only the user's preferred category IDs.
func (s *Store) Preferences(ctx context.Context, id primitive.ObjectID) ([]primitive.ObjectID, error) {
	var doc struct {
		Preferences []primitive.ObjectID `bson:"preferences"`
	}
	opts := options.FindOne().SetProjection(bson.M{"preferences": 1})
	if err := s.c.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&doc); err != nil {
		return nil, err
	}
	return doc.Preferences, nil
}

// Activate marks the account verified and active.
func (s *Store) Activate(ctx context.Context, id primitive.ObjectID) error {
	return s.update(ctx, bson.M{"_id": id}, bson.M{
		"status":   models.UserActive,
		"verified": true,
	})
}

// SetRefreshID records the jti of the user's current refresh token,
// replacing any previous one.
func (s *Store) SetRefreshID(ctx context.Context, id primitive.ObjectID, jti string) error {
	return s.update(ctx, bson.M{"_id": id}, bson.M{"refresh_id": jti})
}

// ClearRefreshID removes the stored jti if it still equals jti. It reports
// whether a session was cleared.
func (s *Store) ClearRefreshID(ctx context.Context, id primitive.ObjectID, jti string) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "refresh_id": jti},
		bson.M{"$unset": bson.M{"refresh_id": ""}, "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// ProfileUpdate holds the editable profile fields. Nil pointers are left
// unchanged.
type ProfileUpdate struct {
	FirstName    *string
	LastName     *string
	Phone        *string
	DOB          *time.Time
	Preferences  *[]primitive.ObjectID
	ProfileImage *string
}

// UpdateProfile applies the non-nil fields of upd.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	set := bson.M{}
	if upd.FirstName != nil {
		set["first_name"] = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		set["last_name"] = strings.TrimSpace(*upd.LastName)
	}
	if upd.Phone != nil {
		set["phone"] = strings.TrimSpace(*upd.Phone)
	}
	if upd.DOB != nil {
		set["dob"] = upd.DOB.UTC()
	}
	if upd.Preferences != nil {
		set["preferences"] = *upd.Preferences
	}
	if upd.ProfileImage != nil {
		set["profile_image"] = strings.TrimSpace(*upd.ProfileImage)
	}
	return s.update(ctx, bson.M{"_id": id}, set)
}

// SetPasswordHash stores a new bcrypt hash and ends the current session.
func (s *Store) SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":   bson.M{"password_hash": hash, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"refresh_id": ""},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *Store) update(ctx context.Context, filter bson.M, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
