package reminderstore_test

import (
	"errors"
	"testing"
	"time"

	reminderstore "github.com/dalemusser/taskquest/internal/app/store/reminders"
	"github.com/dalemusser/taskquest/internal/domain/models"
	"github.com/dalemusser/taskquest/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDayIn(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	at := time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)
	if got := reminderstore.DayIn(at, loc); got != "2026-03-01" {
		t.Errorf("Day = %q, want 2026-03-01", got)
	}
}

func TestStore_BuildDigests(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := reminderstore.New(db, time.UTC)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	alice, bob, carol := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	cat := primitive.NewObjectID()

	fx.CreateTask(ctx, alice, cat, "late report", now.Add(-3*time.Hour))
	fx.CreateTask(ctx, alice, cat, "dentist", now.Add(5*time.Hour))
	fx.CreateTask(ctx, bob, cat, "pay rent", now.Add(30*time.Hour))
	fx.CreateTask(ctx, carol, cat, "someday", now.Add(200*time.Hour))
	fx.CreateCompletedTask(ctx, carol, cat, "finished", now.Add(-time.Hour), 0)

	n, err := store.BuildDigests(ctx, now, 48*time.Hour)
	if err != nil {
		t.Fatalf("BuildDigests: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 digests, got %d", n)
	}

	day := store.Day(now)
	a, err := store.GetForDay(ctx, alice, day)
	if err != nil {
		t.Fatalf("GetForDay alice: %v", err)
	}
	if len(a.Overdue) != 1 || a.Overdue[0].Name != "late report" {
		t.Errorf("unexpected overdue %+v", a.Overdue)
	}
	if len(a.DueSoon) != 1 || a.DueSoon[0].Name != "dentist" {
		t.Errorf("unexpected due soon %+v", a.DueSoon)
	}

	b, err := store.GetForDay(ctx, bob, day)
	if err != nil {
		t.Fatalf("GetForDay bob: %v", err)
	}
	if len(b.Overdue) != 0 || len(b.DueSoon) != 1 {
		t.Errorf("unexpected bob digest %+v", b)
	}

	if _, err := store.GetForDay(ctx, carol, day); !errors.Is(err, reminderstore.ErrNotFound) {
		t.Errorf("expected no digest for carol, got %v", err)
	}

	// Rerunning the same day replaces rather than duplicates.
	if _, err := store.BuildDigests(ctx, now, 48*time.Hour); err != nil {
		t.Fatalf("BuildDigests rerun: %v", err)
	}
	count, err := db.Collection("reminders").CountDocuments(ctx, bson.M{"user_id": alice})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 digest for alice after rerun, got %d", count)
	}
}

func TestStore_BuildDigests_RerunDropsStale(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := reminderstore.New(db, time.UTC)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	dave, erin := primitive.NewObjectID(), primitive.NewObjectID()
	cat := primitive.NewObjectID()
	daveTask := fx.CreateTask(ctx, dave, cat, "renew passport", now.Add(2*time.Hour))
	fx.CreateTask(ctx, erin, cat, "water plants", now.Add(3*time.Hour))

	if n, err := store.BuildDigests(ctx, now, 48*time.Hour); err != nil || n != 2 {
		t.Fatalf("first build: n=%d err=%v", n, err)
	}

	// dave finishes his only task before the same-day rerun.
	if _, err := db.Collection("tasks").UpdateByID(ctx, daveTask.ID, bson.M{"$set": bson.M{"completed": true}}); err != nil {
		t.Fatalf("complete task: %v", err)
	}
	if n, err := store.BuildDigests(ctx, now, 48*time.Hour); err != nil || n != 1 {
		t.Fatalf("rerun: n=%d err=%v", n, err)
	}

	day := store.Day(now)
	if _, err := store.GetForDay(ctx, dave, day); !errors.Is(err, reminderstore.ErrNotFound) {
		t.Errorf("expected dave's stale digest to be removed, got %v", err)
	}
	if _, err := store.GetForDay(ctx, erin, day); err != nil {
		t.Errorf("expected erin's digest to remain, got %v", err)
	}

	// A digest from another day is untouched.
	old := models.Reminder{UserID: dave, Day: "2000-01-01"}
	if err := store.Upsert(ctx, old); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, err := store.BuildDigests(ctx, now, 48*time.Hour); err != nil {
		t.Fatalf("third build: %v", err)
	}
	if _, err := store.GetForDay(ctx, dave, "2000-01-01"); err != nil {
		t.Errorf("expected older digest to be kept, got %v", err)
	}
}

func TestStore_Upsert_EmptyLists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := reminderstore.New(db, time.UTC)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := primitive.NewObjectID()
	if err := store.Upsert(ctx, models.Reminder{UserID: user, Day: "2026-01-01"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	r, err := store.GetForDay(ctx, user, "2026-01-01")
	if err != nil {
		t.Fatalf("GetForDay: %v", err)
	}
	if r.Overdue == nil || r.DueSoon == nil {
		t.Errorf("expected empty, non-nil lists")
	}
}
