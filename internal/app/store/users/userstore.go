package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskquest/internal/app/system/normalize"
	"github.com/dalemusser/taskquest/internal/app/system/status"
	"github.com/dalemusser/taskquest/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no user matches.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadStatus      = errors.New(`status must be "active"|"disabled"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

func (s *Store) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, filter, opts...).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

// Create inserts a new user after normalizing fields. Points, completions
// and badges always start empty.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FirstName = normalize.Name(u.FirstName)
	u.LastName = normalize.Name(u.LastName)
	u.FullNameCI = text.Fold(u.FullName())
	u.Email = normalize.Email(u.Email)
	u.Gender = normalize.Gender(u.Gender)
	u.Nationality = normalize.Name(u.Nationality)
	u.Points = 0
	u.TasksCompleted = 0
	u.Badges = []string{}
	if u.Status == "" {
		u.Status = status.Active
	}
	if !status.IsValid(u.Status) {
		return models.User{}, errBadStatus
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

// ProfileUpdate holds the editable profile fields; nil means unchanged.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	Nationality *string
	Gender      *string
	Age         *int
}

// UpdateProfile applies upd and returns the updated user.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	first, last := cur.FirstName, cur.LastName
	if upd.FirstName != nil {
		first = normalize.Name(*upd.FirstName)
		set["first_name"] = first
	}
	if upd.LastName != nil {
		last = normalize.Name(*upd.LastName)
		set["last_name"] = last
	}
	if upd.FirstName != nil || upd.LastName != nil {
		set["full_name_ci"] = text.Fold(models.User{FirstName: first, LastName: last}.FullName())
	}
	if upd.Nationality != nil {
		set["nationality"] = normalize.Name(*upd.Nationality)
	}
	if upd.Gender != nil {
		set["gender"] = normalize.Gender(*upd.Gender)
	}
	if upd.Age != nil {
		set["age"] = *upd.Age
	}

	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, options.After)
}

// SetPasswordHash replaces the stored bcrypt hash.
func (s *Store) SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"password_hash": hash,
		"updated_at":    time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetProfileImage records a new image key and returns the previous key ("" if
// none) so the caller can delete the old object.
func (s *Store) SetProfileImage(ctx context.Context, id primitive.ObjectID, path, contentType string) (string, error) {
	prev, err := s.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"profile_image_path": path,
		"profile_image_type": contentType,
		"updated_at":         time.Now().UTC(),
	}}, options.Before)
	if err != nil {
		return "", err
	}
	return prev.ProfileImagePath, nil
}

// ApplyAward atomically adds points and one completion, returning the
// updated totals.
func (s *Store) ApplyAward(ctx context.Context, id primitive.ObjectID, points int) (*models.User, error) {
	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"points": points, "tasks_completed": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}, options.After)
}

// AddBadges adds badge IDs without duplicating existing ones.
func (s *Store) AddBadges(ctx context.Context, id primitive.ObjectID, badges []string) error {
	if len(badges) == 0 {
		return nil
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$addToSet": bson.M{"badges": bson.M{"$each": badges}},
	})
	return err
}

// SetStatus enables or disables an account.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, st string) error {
	if !status.IsValid(st) {
		return errBadStatus
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"status": st, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) findOneAndUpdate(ctx context.Context, filter, update bson.M, doc options.ReturnDocument) (*models.User, error) {
	var u models.User
	opts := options.FindOneAndUpdate().SetReturnDocument(doc)
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank           int                `json:"rank"`
	UserID         primitive.ObjectID `json:"user_id"`
	Name           string             `json:"name"`
	Points         int                `json:"points"`
	TasksCompleted int                `json:"tasks_completed"`
	Badges         []string           `json:"badges"`
}

// Leaderboard returns the top active users by points. Ties are ordered by
// name and share a rank.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "points", Value: -1}, {Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"first_name": 1, "last_name": 1, "points": 1, "tasks_completed": 1, "badges": 1})

	cur, err := s.c.Find(ctx, bson.M{"status": status.Active}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}

	out := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		rank := i + 1
		if i > 0 && u.Points == out[i-1].Points {
			rank = out[i-1].Rank
		}
		badges := u.Badges
		if badges == nil {
			badges = []string{}
		}
		out = append(out, LeaderboardEntry{
			Rank:           rank,
			UserID:         u.ID,
			Name:           u.FullName(),
			Points:         u.Points,
			TasksCompleted: u.TasksCompleted,
			Badges:         badges,
		})
	}
	return out, nil
}

// Rank returns 1 + the number of active users with more points.
func (s *Store) Rank(ctx context.Context, points int) (int, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"status": status.Active, "points": bson.M{"$gt": points}})
	if err != nil {
		return 0, err
	}
	return int(n) + 1, nil
}
