package categorystore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskquest/internal/app/system/normalize"
	"github.com/dalemusser/taskquest/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when the category does not exist or belongs to
	// another user.
	ErrNotFound = errors.New("category not found")
	// ErrDuplicateName is returned when the owner already has a category
	// with the same (case-folded) name.
	ErrDuplicateName = errors.New("a category with this name already exists")
)

// Store manages categories. Every method is scoped by owner.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("categories")}
}

// Create inserts c for c.UserID.
func (s *Store) Create(ctx context.Context, c models.Category) (models.Category, error) {
	c.ID = primitive.NewObjectID()
	c.Name = normalize.Name(c.Name)
	c.NameCI = text.Fold(c.Name)
	c.Label = normalize.Name(c.Label)
	c.Color = normalize.Color(c.Color)
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Category{}, ErrDuplicateName
		}
		return models.Category{}, err
	}
	return c, nil
}

// Get loads a category owned by userID.
func (s *Store) Get(ctx context.Context, userID, id primitive.ObjectID) (*models.Category, error) {
	var c models.Category
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Exists reports whether userID owns category id.
func (s *Store) Exists(ctx context.Context, userID, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id, "user_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns the user's categories sorted by name.
func (s *Store) List(ctx context.Context, userID primitive.ObjectID) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Category{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Names maps category IDs to names for one user.
func (s *Store) Names(ctx context.Context, userID primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	cats, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]string, len(cats))
	for _, c := range cats {
		out[c.ID] = c.Name
	}
	return out, nil
}

// Update holds the editable fields; nil means unchanged.
type Update struct {
	Name  *string
	Label *string
	Color *string
}

// Update applies upd and returns the updated category.
func (s *Store) Update(ctx context.Context, userID, id primitive.ObjectID, upd Update) (*models.Category, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		name := normalize.Name(*upd.Name)
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if upd.Label != nil {
		set["label"] = normalize.Name(*upd.Label)
	}
	if upd.Color != nil {
		set["color"] = normalize.Color(*upd.Color)
	}

	var c models.Category
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "user_id": userID}, bson.M{"$set": set}, opts).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return &c, nil
}

// Delete removes the category. Tasks are removed by the caller (see
// taskstore.DeleteByCategory) in the same transaction.
func (s *Store) Delete(ctx context.Context, userID, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
