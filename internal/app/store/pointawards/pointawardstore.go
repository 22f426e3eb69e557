package pointawardstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskquest/internal/app/system/paging"
	"github.com/dalemusser/taskquest/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicate is returned when the task already has a ledger entry.
var ErrDuplicate = errors.New("task already rewarded")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("point_awards")}
}

// Record appends a ledger entry. The unique index on task_id makes a second
// award for the same task fail with ErrDuplicate.
func (s *Store) Record(ctx context.Context, a models.PointAward) (models.PointAward, error) {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.CreatedAt = a.CreatedAt.UTC()
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.PointAward{}, ErrDuplicate
		}
		return models.PointAward{}, err
	}
	return a, nil
}

// ListByUser returns the user's ledger newest first, keyset-paginated on
// created_at.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID, after *paging.TimeCursor, limit int) ([]models.PointAward, bool, error) {
	if limit <= 0 || limit > paging.MaxLimit {
		limit = paging.DefaultLimit
	}
	filter := bson.M{"user_id": userID}
	if after != nil {
		filter["$or"] = bson.A{
			bson.M{"created_at": bson.M{"$lt": after.At}},
			bson.M{"created_at": after.At, "_id": bson.M{"$lt": after.ID}},
		}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit + 1))

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, false, err
	}
	defer cur.Close(ctx)

	var out []models.PointAward
	if err := cur.All(ctx, &out); err != nil {
		return nil, false, err
	}
	hasNext := paging.TrimPage(&out, limit)
	return out, hasNext, nil
}

// SumByUser totals the points in the user's ledger. It should always match
// the points field on the user document.
func (s *Store) SumByUser(ctx context.Context, userID primitive.ObjectID) (int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$points"}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Total int `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
