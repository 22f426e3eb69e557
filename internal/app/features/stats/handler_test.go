package stats_test

import (
	"net/http"
	"testing"
	"time"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	"github.com/dalemusser/taskquest/internal/app/features/stats"
	pointawardstore "github.com/dalemusser/taskquest/internal/app/store/pointawards"
	"github.com/dalemusser/taskquest/internal/domain/models"
	"github.com/dalemusser/taskquest/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestServeStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	logger := zap.NewNop()
	h := stats.NewHandler(db, uierrors.NewErrorLogger(logger), logger)

	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUser(ctx, "Stat", "User", "stats@example.com")
	fx.SetUserPoints(ctx, u.ID, 20, 2)
	if _, err := db.Collection("users").UpdateByID(ctx, u.ID, bson.M{"$set": bson.M{"badges": []string{"starter", "first_task"}}}); err != nil {
		t.Fatalf("seed badges: %v", err)
	}
	work := fx.CreateCategory(ctx, u.ID, "Work", "#111111")
	home := fx.CreateCategory(ctx, u.ID, "Home", "#222222")
	now := time.Now()
	fx.CreateTask(ctx, u.ID, work.ID, "Open", now.Add(time.Hour))
	fx.CreateTask(ctx, u.ID, work.ID, "Late", now.Add(-time.Hour))
	fx.CreateCompletedTask(ctx, u.ID, work.ID, "Done", now.Add(-time.Hour), 0)
	fx.CreateCompletedTask(ctx, u.ID, home.ID, "Chores", now.Add(time.Hour), 10)

	rec := testutil.NewRecorder()
	h.ServeStats(rec, testutil.NewAuthenticatedRequest("GET", "/api/stats", nil, u))
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Total      int `json:"total"`
		Open       int `json:"open"`
		Completed  int `json:"completed"`
		Overdue    int `json:"overdue"`
		ByCategory []struct {
			Name      string `json:"name"`
			Total     int    `json:"total"`
			Completed int    `json:"completed"`
			Overdue   int    `json:"overdue"`
		} `json:"by_category"`
		Points int `json:"points"`
		Badges []struct {
			ID string `json:"id"`
		} `json:"badges"`
	}
	rec.DecodeJSON(t, &body)

	if body.Total != 4 || body.Open != 2 || body.Completed != 2 || body.Overdue != 1 {
		t.Errorf("totals = %d/%d/%d/%d, want 4/2/2/1", body.Total, body.Open, body.Completed, body.Overdue)
	}
	if body.Points != 20 || len(body.Badges) != 2 {
		t.Errorf("points=%d badges=%v", body.Points, body.Badges)
	}
	byName := map[string][3]int{}
	for _, c := range body.ByCategory {
		byName[c.Name] = [3]int{c.Total, c.Completed, c.Overdue}
	}
	if byName["Work"] != [3]int{3, 1, 1} || byName["Home"] != [3]int{1, 1, 0} {
		t.Errorf("by category = %v", byName)
	}
}

func TestServeAwards_Paging(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	logger := zap.NewNop()
	h := stats.NewHandler(db, uierrors.NewErrorLogger(logger), logger)
	u := testutil.NewFixtures(t, db).CreateUser(ctx, "Award", "User", "awards@example.com")

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	awards := pointawardstore.New(db)
	for i, reason := range []string{models.AwardOnTime, models.AwardOverdue, models.AwardOnTime} {
		if _, err := awards.Record(ctx, models.PointAward{
			UserID:    u.ID,
			TaskID:    primitive.NewObjectID(),
			Points:    10 * (i % 2),
			Reason:    reason,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	type page struct {
		Awards []struct {
			Reason    string    `json:"reason"`
			CreatedAt time.Time `json:"created_at"`
		} `json:"awards"`
		NextCursor string `json:"next_cursor"`
	}

	rec := testutil.NewRecorder()
	h.ServeAwards(rec, testutil.NewAuthenticatedRequest("GET", "/api/stats/awards?limit=2", nil, u))
	rec.AssertStatus(t, http.StatusOK)
	var p1 page
	rec.DecodeJSON(t, &p1)
	if len(p1.Awards) != 2 || p1.NextCursor == "" {
		t.Fatalf("first page = %+v", p1)
	}
	if !p1.Awards[0].CreatedAt.After(p1.Awards[1].CreatedAt) {
		t.Errorf("awards not newest first: %+v", p1.Awards)
	}

	rec = testutil.NewRecorder()
	h.ServeAwards(rec, testutil.NewAuthenticatedRequest("GET", "/api/stats/awards?limit=2&after="+p1.NextCursor, nil, u))
	rec.AssertStatus(t, http.StatusOK)
	var p2 page
	rec.DecodeJSON(t, &p2)
	if len(p2.Awards) != 1 || p2.NextCursor != "" {
		t.Errorf("second page = %+v", p2)
	}

	rec = testutil.NewRecorder()
	h.ServeAwards(rec, testutil.NewAuthenticatedRequest("GET", "/api/stats/awards?after=garbage", nil, u))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
}
