package taskstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CategoryCounts are the per-category task totals.
type CategoryCounts struct {
	CategoryID primitive.ObjectID `bson:"_id" json:"category_id"`
	Total      int                `bson:"total" json:"total"`
	Completed  int                `bson:"completed" json:"completed"`
	Overdue    int                `bson:"overdue" json:"overdue"`
}

// Counts are the user's task totals.
type Counts struct {
	Total      int              `json:"total"`
	Open       int              `json:"open"`
	Completed  int              `json:"completed"`
	Overdue    int              `json:"overdue"`
	ByCategory []CategoryCounts `json:"by_category"`
}

// Counts aggregates the user's tasks by category at now.
func (s *Store) Counts(ctx context.Context, userID primitive.ObjectID, now time.Time) (Counts, error) {
	overdue := bson.M{"$and": bson.A{
		bson.M{"$eq": bson.A{"$completed", false}},
		bson.M{"$lt": bson.A{"$deadline", now.UTC()}},
	}}
	pipeline := bson.A{
		bson.M{"$match": bson.M{"user_id": userID}},
		bson.M{"$group": bson.M{
			"_id":       "$category_id",
			"total":     bson.M{"$sum": 1},
			"completed": bson.M{"$sum": bson.M{"$cond": bson.A{"$completed", 1, 0}}},
			"overdue":   bson.M{"$sum": bson.M{"$cond": bson.A{overdue, 1, 0}}},
		}},
		bson.M{"$sort": bson.M{"_id": 1}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return Counts{}, err
	}
	var rows []CategoryCounts
	if err := cur.All(ctx, &rows); err != nil {
		return Counts{}, err
	}

	out := Counts{ByCategory: []CategoryCounts{}}
	for _, r := range rows {
		out.Total += r.Total
		out.Completed += r.Completed
		out.Overdue += r.Overdue
		out.ByCategory = append(out.ByCategory, r)
	}
	out.Open = out.Total - out.Completed
	return out, nil
}
