package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/taskquest/internal/app/system/authutil"
	"github.com/dalemusser/taskquest/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// FixturePassword is the password of every user created by Fixtures.
const FixturePassword = "quest-pass-42"

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that call a handler method directly.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts an active user whose password is FixturePassword.
func (f *Fixtures) CreateUser(ctx context.Context, first, last, email string) models.User {
	f.t.Helper()
	return f.insertUser(ctx, first, last, email, "active")
}

// CreateDisabledUser inserts a disabled user.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, first, last, email string) models.User {
	f.t.Helper()
	return f.insertUser(ctx, first, last, email, "disabled")
}

func (f *Fixtures) insertUser(ctx context.Context, first, last, email, status string) models.User {
	f.t.Helper()

	hash, err := authutil.HashPassword(FixturePassword)
	if err != nil {
		f.t.Fatalf("hash fixture password: %v", err)
	}
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		FirstName:    first,
		LastName:     last,
		FullNameCI:   text.Fold(first + " " + last),
		Email:        email,
		PasswordHash: &hash,
		Status:       status,
		Badges:       []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// SetUserPoints overwrites a user's points and completion count.
func (f *Fixtures) SetUserPoints(ctx context.Context, userID primitive.ObjectID, points, completed int) {
	f.t.Helper()
	_, err := f.db.Collection("users").UpdateByID(ctx, userID, bson.M{
		"$set": bson.M{"points": points, "tasks_completed": completed},
	})
	if err != nil {
		f.t.Fatalf("failed to set user points: %v", err)
	}
}

// CreateCategory inserts a category owned by userID.
func (f *Fixtures) CreateCategory(ctx context.Context, userID primitive.ObjectID, name, color string) models.Category {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Category{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Name:      name,
		NameCI:    text.Fold(name),
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("categories").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test category: %v", err)
	}
	return c
}

// CreateTask inserts an open task.
func (f *Fixtures) CreateTask(ctx context.Context, userID, categoryID primitive.ObjectID, name string, deadline time.Time) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.Task{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		CategoryID: categoryID,
		Name:       name,
		NameCI:     text.Fold(name),
		Deadline:   deadline.UTC().Truncate(time.Millisecond),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

// CreateCompletedTask inserts a task already marked complete.
func (f *Fixtures) CreateCompletedTask(ctx context.Context, userID, categoryID primitive.ObjectID, name string, deadline time.Time, points int) models.Task {
	f.t.Helper()

	task := f.CreateTask(ctx, userID, categoryID, name, deadline)
	done := time.Now().UTC()
	_, err := f.db.Collection("tasks").UpdateByID(ctx, task.ID, bson.M{
		"$set": bson.M{"completed": true, "completed_at": done, "points_awarded": points},
	})
	if err != nil {
		f.t.Fatalf("failed to complete test task: %v", err)
	}
	task.Completed = true
	task.CompletedAt = &done
	task.PointsAwarded = points
	return task
}
