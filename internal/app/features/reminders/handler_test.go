package reminders_test

import (
	"net/http"
	"testing"
	"time"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	"github.com/dalemusser/taskquest/internal/app/features/reminders"
	reminderstore "github.com/dalemusser/taskquest/internal/app/store/reminders"
	"github.com/dalemusser/taskquest/internal/testutil"
	"go.uber.org/zap"
)

func TestServeToday(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	logger := zap.NewNop()
	h := reminders.NewHandler(db, time.UTC, uierrors.NewErrorLogger(logger), logger)

	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUser(ctx, "Rem", "User", "rem@example.com")
	cat := fx.CreateCategory(ctx, u.ID, "Work", "#123456")

	// Before the job runs the digest is empty.
	rec := testutil.NewRecorder()
	h.ServeToday(rec, testutil.NewAuthenticatedRequest("GET", "/api/reminders/today", nil, u))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"overdue":[]`)
	rec.AssertContains(t, `"due_soon":[]`)
	rec.AssertContains(t, `"day":"`+reminderstore.DayIn(time.Now(), time.UTC)+`"`)

	now := time.Now()
	fx.CreateTask(ctx, u.ID, cat.ID, "Late", now.Add(-time.Hour))
	fx.CreateTask(ctx, u.ID, cat.ID, "Tomorrow", now.Add(20*time.Hour))
	fx.CreateTask(ctx, u.ID, cat.ID, "Next week", now.Add(7*24*time.Hour))
	if _, err := reminderstore.New(db, time.UTC).BuildDigests(ctx, now, 48*time.Hour); err != nil {
		t.Fatalf("BuildDigests: %v", err)
	}

	rec = testutil.NewRecorder()
	h.ServeToday(rec, testutil.NewAuthenticatedRequest("GET", "/api/reminders/today", nil, u))
	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		Overdue []struct {
			Name string `json:"name"`
		} `json:"overdue"`
		DueSoon []struct {
			Name string `json:"name"`
		} `json:"due_soon"`
		GeneratedAt *time.Time `json:"generated_at"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Overdue) != 1 || body.Overdue[0].Name != "Late" {
		t.Errorf("overdue = %+v", body.Overdue)
	}
	if len(body.DueSoon) != 1 || body.DueSoon[0].Name != "Tomorrow" {
		t.Errorf("due soon = %+v", body.DueSoon)
	}
	if body.GeneratedAt == nil {
		t.Error("expected generated_at once the digest exists")
	}
}
