package reminderstore

import (
	"context"
	"errors"
	"time"

	taskstore "github.com/dalemusser/taskquest/internal/app/store/tasks"
	"github.com/dalemusser/taskquest/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DayLayout formats the digest day key.
const DayLayout = "2006-01-02"

var ErrNotFound = errors.New("reminder not found")

// Store persists daily reminder digests. Day keys are computed in loc.
type Store struct {
	c     *mongo.Collection
	tasks *taskstore.Store
	loc   *time.Location
}

func New(db *mongo.Database, loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{
		c:     db.Collection("reminders"),
		tasks: taskstore.New(db),
		loc:   loc,
	}
}

// DayIn returns the digest key for t in loc.
func DayIn(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}

// Day returns the digest key for t in the store's time zone.
func (s *Store) Day(t time.Time) string {
	return DayIn(t, s.loc)
}

// Upsert replaces the digest for (r.UserID, r.Day).
func (s *Store) Upsert(ctx context.Context, r models.Reminder) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if r.Overdue == nil {
		r.Overdue = []models.TaskSummary{}
	}
	if r.DueSoon == nil {
		r.DueSoon = []models.TaskSummary{}
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"user_id": r.UserID, "day": r.Day},
		bson.M{
			"$set": bson.M{
				"overdue":    r.Overdue,
				"due_soon":   r.DueSoon,
				"created_at": r.CreatedAt.UTC(),
			},
			"$setOnInsert": bson.M{"_id": primitive.NewObjectID()},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// GetForDay loads the user's digest for day (YYYY-MM-DD).
func (s *Store) GetForDay(ctx context.Context, userID primitive.ObjectID, day string) (*models.Reminder, error) {
	var r models.Reminder
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID, "day": day}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// BuildDigests writes one digest per user that has open tasks which are
// overdue at now or due within dueWithin of now. Digests already stored for
// the same day whose user no longer qualifies are removed, so a rerun leaves
// exactly the current set. It returns the number of digests written.
func (s *Store) BuildDigests(ctx context.Context, now time.Time, dueWithin time.Duration) (int, error) {
	now = now.UTC()
	day := s.Day(now)

	var (
		written int
		current *models.Reminder
		users   = []primitive.ObjectID{}
	)
	flush := func() error {
		if current == nil {
			return nil
		}
		if err := s.Upsert(ctx, *current); err != nil {
			return err
		}
		written++
		users = append(users, current.UserID)
		current = nil
		return nil
	}

	err := s.tasks.OpenDueBefore(ctx, now.Add(dueWithin), func(t models.Task) error {
		if current != nil && current.UserID != t.UserID {
			if err := flush(); err != nil {
				return err
			}
		}
		if current == nil {
			current = &models.Reminder{UserID: t.UserID, Day: day, CreatedAt: now}
		}
		sum := models.TaskSummary{TaskID: t.ID, Name: t.Name, Deadline: t.Deadline}
		if t.Deadline.Before(now) {
			current.Overdue = append(current.Overdue, sum)
		} else {
			current.DueSoon = append(current.DueSoon, sum)
		}
		return nil
	})
	if err != nil {
		return written, err
	}
	if err := flush(); err != nil {
		return written, err
	}
	if _, err := s.c.DeleteMany(ctx, bson.M{"day": day, "user_id": bson.M{"$nin": users}}); err != nil {
		return written, err
	}
	return written, nil
}
