package pointawardstore_test

import (
	"errors"
	"testing"
	"time"

	pointawardstore "github.com/dalemusser/taskquest/internal/app/store/pointawards"
	"github.com/dalemusser/taskquest/internal/app/system/indexes"
	"github.com/dalemusser/taskquest/internal/app/system/paging"
	"github.com/dalemusser/taskquest/internal/domain/models"
	"github.com/dalemusser/taskquest/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Record_UniquePerTask(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	store := pointawardstore.New(db)

	user := primitive.NewObjectID()
	task := primitive.NewObjectID()

	a, err := store.Record(ctx, models.PointAward{UserID: user, TaskID: task, Points: 10, Reason: models.AwardOnTime})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if a.ID.IsZero() || a.CreatedAt.IsZero() {
		t.Errorf("expected id and created_at to be set: %+v", a)
	}

	_, err = store.Record(ctx, models.PointAward{UserID: user, TaskID: task, Points: 10, Reason: models.AwardOnTime})
	if !errors.Is(err, pointawardstore.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestStore_ListAndSum(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pointawardstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := primitive.NewObjectID()
	base := time.Now().UTC().Truncate(time.Millisecond)
	points := []int{10, 0, 10, 10, 0}
	for i, p := range points {
		reason := models.AwardOnTime
		if p == 0 {
			reason = models.AwardOverdue
		}
		_, err := store.Record(ctx, models.PointAward{
			UserID:    user,
			TaskID:    primitive.NewObjectID(),
			Points:    p,
			Reason:    reason,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}
	_, _ = store.Record(ctx, models.PointAward{UserID: primitive.NewObjectID(), TaskID: primitive.NewObjectID(), Points: 10})

	total, err := store.SumByUser(ctx, user)
	if err != nil {
		t.Fatalf("SumByUser: %v", err)
	}
	if total != 30 {
		t.Errorf("total = %d, want 30", total)
	}

	first, hasNext, err := store.ListByUser(ctx, user, nil, 3)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(first) != 3 || !hasNext {
		t.Fatalf("expected a full first page with more, got %d hasNext=%v", len(first), hasNext)
	}
	if !first[0].CreatedAt.After(first[1].CreatedAt) {
		t.Errorf("expected newest first")
	}

	last := first[len(first)-1]
	second, hasNext, err := store.ListByUser(ctx, user, &paging.TimeCursor{At: last.CreatedAt, ID: last.ID}, 3)
	if err != nil {
		t.Fatalf("ListByUser page 2: %v", err)
	}
	if len(second) != 2 || hasNext {
		t.Errorf("expected 2 rows on the last page, got %d hasNext=%v", len(second), hasNext)
	}
}

func TestStore_SumByUser_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pointawardstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	total, err := store.SumByUser(ctx, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("SumByUser: %v", err)
	}
	if total != 0 {
		t.Errorf("total = %d, want 0", total)
	}
}
