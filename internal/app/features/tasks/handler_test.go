package tasks_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"sort"
	"testing"
	"time"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	"github.com/dalemusser/taskquest/internal/app/features/tasks"
	pointawardstore "github.com/dalemusser/taskquest/internal/app/store/pointawards"
	taskstore "github.com/dalemusser/taskquest/internal/app/store/tasks"
	userstore "github.com/dalemusser/taskquest/internal/app/store/users"
	"github.com/dalemusser/taskquest/internal/app/system/indexes"
	"github.com/dalemusser/taskquest/internal/domain/models"
	"github.com/dalemusser/taskquest/internal/testutil"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	h   *tasks.Handler
	db  *mongo.Database
	fx  *testutil.Fixtures
	u   models.User
	cat models.Category
}

func setup(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	blobs, err := storage.NewLocal(storage.LocalConfig{BasePath: t.TempDir()})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	logger := zap.NewNop()
	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUser(ctx, "Task", "Owner", "tasks@example.com")
	return env{
		h:   tasks.NewHandler(db, blobs, 0, uierrors.NewErrorLogger(logger), logger),
		db:  db,
		fx:  fx,
		u:   u,
		cat: fx.CreateCategory(ctx, u.ID, "Work", "#112233"),
	}
}

func withID(r *http.Request, id string) *http.Request {
	return testutil.WithChiURLParam(r, "id", id)
}

func TestHandleCreate(t *testing.T) {
	e := setup(t)
	deadline := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)

	rec := testutil.NewRecorder()
	e.h.HandleCreate(rec, testutil.NewJSONRequest(t, "POST", "/api/tasks", map[string]any{
		"name":        "  Write <b>report</b> ",
		"description": "<script>alert(1)</script>Quarterly numbers",
		"category_id": e.cat.ID.Hex(),
		"deadline":    deadline,
		"location":    map[string]float64{"lat": 0, "long": 36.8},
	}, e.u))
	rec.AssertStatus(t, http.StatusCreated)

	var got models.Task
	rec.DecodeJSON(t, &got)
	if got.Name != "Write report" {
		t.Errorf("Name = %q, want sanitized", got.Name)
	}
	if got.Description != "Quarterly numbers" {
		t.Errorf("Description = %q, want sanitized", got.Description)
	}
	if !got.Deadline.Equal(deadline) {
		t.Errorf("Deadline = %v, want %v", got.Deadline, deadline)
	}
	if got.Location == nil || got.Location.Long != 36.8 {
		t.Errorf("Location = %+v", got.Location)
	}
	if got.Documents == nil || len(got.Documents) != 0 {
		t.Errorf("Documents = %v, want empty list", got.Documents)
	}
	rec.AssertContains(t, `"documents":[]`)
}

func TestHandleCreate_Validation(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	other := e.fx.CreateUser(ctx, "Other", "User", "other@example.com")
	foreign := e.fx.CreateCategory(ctx, other.ID, "Theirs", "#000000")
	deadline := time.Now().Add(time.Hour)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"category_id": e.cat.ID.Hex(), "deadline": deadline}},
		{"markup only name", map[string]any{"name": "<i></i>", "category_id": e.cat.ID.Hex(), "deadline": deadline}},
		{"missing deadline", map[string]any{"name": "x", "category_id": e.cat.ID.Hex()}},
		{"bad category id", map[string]any{"name": "x", "category_id": "nope", "deadline": deadline}},
		{"foreign category", map[string]any{"name": "x", "category_id": foreign.ID.Hex(), "deadline": deadline}},
		{"bad latitude", map[string]any{"name": "x", "category_id": e.cat.ID.Hex(), "deadline": deadline,
			"location": map[string]float64{"lat": 91, "long": 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			e.h.HandleCreate(rec, testutil.NewJSONRequest(t, "POST", "/api/tasks", tt.body, e.u))
			rec.AssertStatus(t, http.StatusUnprocessableEntity)
		})
	}
}

func TestHandleCreate_PaddedCategoryID(t *testing.T) {
	e := setup(t)

	rec := testutil.NewRecorder()
	e.h.HandleCreate(rec, testutil.NewJSONRequest(t, "POST", "/api/tasks", map[string]any{
		"name":        "Padded",
		"category_id": "  " + e.cat.ID.Hex() + " ",
		"deadline":    time.Now().Add(time.Hour),
	}, e.u))
	rec.AssertStatus(t, http.StatusCreated)

	var got models.Task
	rec.DecodeJSON(t, &got)
	if got.CategoryID != e.cat.ID {
		t.Errorf("CategoryID = %s, want %s", got.CategoryID.Hex(), e.cat.ID.Hex())
	}
}

func TestServeGet_ScopedByOwner(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	task := e.fx.CreateTask(ctx, e.u.ID, e.cat.ID, "Mine", time.Now().Add(time.Hour))
	other := e.fx.CreateUser(ctx, "Other", "User", "other@example.com")

	rec := testutil.NewRecorder()
	e.h.ServeGet(rec, withID(testutil.NewAuthenticatedRequest("GET", "/", nil, e.u), task.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"name":"Mine"`)

	rec = testutil.NewRecorder()
	e.h.ServeGet(rec, withID(testutil.NewAuthenticatedRequest("GET", "/", nil, other), task.ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)

	rec = testutil.NewRecorder()
	e.h.ServeGet(rec, withID(testutil.NewAuthenticatedRequest("GET", "/", nil, e.u), "bogus"))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeList_FiltersAndCursor(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	now := time.Now()
	home := e.fx.CreateCategory(ctx, e.u.ID, "Home", "#445566")
	e.fx.CreateTask(ctx, e.u.ID, e.cat.ID, "Late report", now.Add(-2*time.Hour))
	e.fx.CreateTask(ctx, e.u.ID, e.cat.ID, "Plan sprint", now.Add(time.Hour))
	e.fx.CreateTask(ctx, e.u.ID, home.ID, "Groceries", now.Add(2*time.Hour))
	e.fx.CreateCompletedTask(ctx, e.u.ID, home.ID, "Laundry", now.Add(3*time.Hour), 10)

	list := func(query string) (int, []string, string) {
		rec := testutil.NewRecorder()
		e.h.ServeList(rec, testutil.NewAuthenticatedRequest("GET", "/api/tasks"+query, nil, e.u))
		if rec.Code != http.StatusOK {
			return rec.Code, nil, ""
		}
		var body struct {
			Tasks      []models.Task `json:"tasks"`
			NextCursor string        `json:"next_cursor"`
		}
		rec.DecodeJSON(t, &body)
		var names []string
		for _, tk := range body.Tasks {
			names = append(names, tk.Name)
		}
		return rec.Code, names, body.NextCursor
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Late report", "Plan sprint", "Groceries", "Laundry"}},
		{"?status=open", []string{"Late report", "Plan sprint", "Groceries"}},
		{"?status=overdue", []string{"Late report"}},
		{"?status=completed", []string{"Laundry"}},
		{"?category=" + home.ID.Hex(), []string{"Groceries", "Laundry"}},
		{"?q=REPORT", []string{"Late report"}},
	}
	for _, tt := range tests {
		code, got, _ := list(tt.query)
		if code != http.StatusOK {
			t.Fatalf("%q: status %d", tt.query, code)
		}
		if len(got) != len(tt.want) {
			t.Errorf("%q: got %v, want %v", tt.query, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%q: got %v, want %v", tt.query, got, tt.want)
				break
			}
		}
	}

	_, page1, next := list("?limit=3")
	if len(page1) != 3 || next == "" {
		t.Fatalf("first page = %v next=%q", page1, next)
	}
	_, page2, next2 := list("?limit=3&after=" + next)
	if len(page2) != 1 || page2[0] != "Laundry" || next2 != "" {
		t.Errorf("second page = %v next=%q", page2, next2)
	}

	for _, q := range []string{"?status=someday", "?category=xyz", "?after=garbage"} {
		if code, _, _ := list(q); code != http.StatusUnprocessableEntity {
			t.Errorf("%q: status %d, want 422", q, code)
		}
	}
}

func TestHandleUpdate(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	task := e.fx.CreateTask(ctx, e.u.ID, e.cat.ID, "Draft", time.Now().Add(time.Hour))
	_, err := e.db.Collection("tasks").UpdateByID(ctx, task.ID, bson.M{"$set": bson.M{"location": models.Location{Lat: 1, Long: 2}}})
	if err != nil {
		t.Fatalf("seed location: %v", err)
	}

	newDeadline := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	rec := testutil.NewRecorder()
	e.h.HandleUpdate(rec, withID(testutil.NewJSONRequest(t, "PATCH", "/", map[string]any{
		"name":     "Final",
		"deadline": newDeadline,
		"location": nil,
	}, e.u), task.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	var got models.Task
	rec.DecodeJSON(t, &got)
	if got.Name != "Final" || got.DeadlineChanges != 1 || got.Location != nil {
		t.Errorf("unexpected task %+v", got)
	}

	// Sending the same deadline again is not a change.
	rec = testutil.NewRecorder()
	e.h.HandleUpdate(rec, withID(testutil.NewJSONRequest(t, "PATCH", "/", map[string]any{
		"deadline": newDeadline,
	}, e.u), task.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &got)
	if got.DeadlineChanges != 1 {
		t.Errorf("DeadlineChanges = %d, want 1", got.DeadlineChanges)
	}
}

func TestHandleUpdate_Rejections(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	done := e.fx.CreateCompletedTask(ctx, e.u.ID, e.cat.ID, "Done", time.Now().Add(time.Hour), 10)

	rec := testutil.NewRecorder()
	e.h.HandleUpdate(rec, withID(testutil.NewJSONRequest(t, "PATCH", "/", map[string]any{
		"deadline": time.Now().Add(72 * time.Hour),
		"name":     "Moved",
	}, e.u), done.ID.Hex()))
	rec.AssertStatus(t, http.StatusConflict)

	stored, err := taskstore.New(e.db).Get(ctx, e.u.ID, done.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !stored.Deadline.Equal(done.Deadline) || stored.DeadlineChanges != 0 || stored.Name != "Done" {
		t.Errorf("rejected reschedule must not write, got %+v", stored)
	}

	rec = testutil.NewRecorder()
	e.h.HandleUpdate(rec, withID(testutil.NewJSONRequest(t, "PATCH", "/", map[string]any{
		"name": "   ",
	}, e.u), done.ID.Hex()))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)

	rec = testutil.NewRecorder()
	e.h.HandleUpdate(rec, withID(testutil.NewJSONRequest(t, "PATCH", "/", map[string]any{
		"name": "x",
	}, e.u), "000000000000000000000000"))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleComplete_OnTime(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	task := e.fx.CreateTask(ctx, e.u.ID, e.cat.ID, "Ship it", time.Now().Add(time.Hour))

	rec := testutil.NewRecorder()
	e.h.HandleComplete(rec, withID(testutil.NewAuthenticatedRequest("POST", "/", nil, e.u), task.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Task          models.Task `json:"task"`
		PointsAwarded int         `json:"points_awarded"`
		Reason        string      `json:"reason"`
		TotalPoints   int         `json:"total_points"`
		NewBadges     []struct {
			ID string `json:"id"`
		} `json:"new_badges"`
	}
	rec.DecodeJSON(t, &body)
	if !body.Task.Completed || body.PointsAwarded != 10 || body.Reason != models.AwardOnTime || body.TotalPoints != 10 {
		t.Errorf("unexpected completion %+v", body)
	}
	var badges []string
	for _, b := range body.NewBadges {
		badges = append(badges, b.ID)
	}
	sort.Strings(badges)
	if len(badges) != 2 || badges[0] != "first_task" || badges[1] != "starter" {
		t.Errorf("new badges = %v, want [first_task starter]", badges)
	}

	u, err := userstore.New(e.db).GetByID(ctx, e.u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.Points != 10 || u.TasksCompleted != 1 || len(u.Badges) != 2 {
		t.Errorf("user totals = %d/%d/%v", u.Points, u.TasksCompleted, u.Badges)
	}
	total, err := pointawardstore.New(e.db).SumByUser(ctx, e.u.ID)
	if err != nil {
		t.Fatalf("SumByUser: %v", err)
	}
	if total != 10 {
		t.Errorf("ledger total = %d, want 10", total)
	}

	// A second completion is rejected and awards nothing.
	rec = testutil.NewRecorder()
	e.h.HandleComplete(rec, withID(testutil.NewAuthenticatedRequest("POST", "/", nil, e.u), task.ID.Hex()))
	rec.AssertStatus(t, http.StatusConflict)
	u, _ = userstore.New(e.db).GetByID(ctx, e.u.ID)
	if u.Points != 10 || u.TasksCompleted != 1 {
		t.Errorf("repeat completion changed totals: %d/%d", u.Points, u.TasksCompleted)
	}
}

func TestHandleComplete_NoPoints(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	overdue := e.fx.CreateTask(ctx, e.u.ID, e.cat.ID, "Late", time.Now().Add(-time.Hour))
	moved := e.fx.CreateTask(ctx, e.u.ID, e.cat.ID, "Moved", time.Now().Add(time.Hour))
	if _, err := e.db.Collection("tasks").UpdateByID(ctx, moved.ID, bson.M{"$set": bson.M{"deadline_changes": 3}}); err != nil {
		t.Fatalf("seed deadline changes: %v", err)
	}

	tests := []struct {
		task   models.Task
		reason string
	}{
		{overdue, models.AwardOverdue},
		{moved, models.AwardTooManyChanges},
	}
	for _, tt := range tests {
		rec := testutil.NewRecorder()
		e.h.HandleComplete(rec, withID(testutil.NewAuthenticatedRequest("POST", "/", nil, e.u), tt.task.ID.Hex()))
		rec.AssertStatus(t, http.StatusOK)
		var body struct {
			PointsAwarded int    `json:"points_awarded"`
			Reason        string `json:"reason"`
			Message       string `json:"message"`
		}
		rec.DecodeJSON(t, &body)
		if body.PointsAwarded != 0 || body.Reason != tt.reason || body.Message == "" {
			t.Errorf("%s: got %+v", tt.task.Name, body)
		}
	}

	u, err := userstore.New(e.db).GetByID(ctx, e.u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.Points != 0 || u.TasksCompleted != 2 {
		t.Errorf("user totals = %d/%d, want 0/2", u.Points, u.TasksCompleted)
	}
}

func TestHandleDelete(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	task := e.fx.CreateTask(ctx, e.u.ID, e.cat.ID, "Gone", time.Now().Add(time.Hour))

	rec := testutil.NewRecorder()
	e.h.HandleDelete(rec, withID(testutil.NewAuthenticatedRequest("DELETE", "/", nil, e.u), task.ID.Hex()))
	rec.AssertStatus(t, http.StatusNoContent)

	if _, err := taskstore.New(e.db).Get(ctx, e.u.ID, task.ID); err != taskstore.ErrNotFound {
		t.Errorf("Get after delete: err = %v, want ErrNotFound", err)
	}

	rec = testutil.NewRecorder()
	e.h.HandleDelete(rec, withID(testutil.NewAuthenticatedRequest("DELETE", "/", nil, e.u), task.ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)
}

func documentRequest(t *testing.T, u models.User, taskID, name string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = fw.Write(data)
	_ = mw.Close()
	req := testutil.NewAuthenticatedRequest("POST", "/", &buf, u)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return withID(req, taskID)
}

func TestDocuments_UploadServeDelete(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	task := e.fx.CreateTask(ctx, e.u.ID, e.cat.ID, "With docs", time.Now().Add(time.Hour))
	id := task.ID.Hex()

	rec := testutil.NewRecorder()
	e.h.HandleUploadDocument(rec, documentRequest(t, e.u, id, "notes.txt", []byte("meeting notes")))
	rec.AssertStatus(t, http.StatusCreated)
	var got models.Task
	rec.DecodeJSON(t, &got)
	if len(got.Documents) != 1 || got.Documents[0].FileName != "notes.txt" || got.Documents[0].ContentType != "text/plain" {
		t.Fatalf("unexpected documents %+v", got.Documents)
	}

	docReq := func(method string, index string) *http.Request {
		r := withID(testutil.NewAuthenticatedRequest(method, "/", nil, e.u), id)
		return testutil.WithChiURLParam(r, "index", index)
	}

	rec = testutil.NewRecorder()
	e.h.ServeDocument(rec, docReq("GET", "0"))
	rec.AssertStatus(t, http.StatusOK)
	if rec.Body.String() != "meeting notes" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); cd == "" {
		t.Error("expected Content-Disposition header")
	}

	rec = testutil.NewRecorder()
	e.h.ServeDocument(rec, docReq("GET", "1"))
	rec.AssertStatus(t, http.StatusNotFound)

	rec = testutil.NewRecorder()
	e.h.HandleDeleteDocument(rec, docReq("DELETE", "0"))
	rec.AssertStatus(t, http.StatusNoContent)

	rec = testutil.NewRecorder()
	e.h.ServeDocument(rec, docReq("GET", "0"))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleUploadDocument_Limit(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	task := e.fx.CreateTask(ctx, e.u.ID, e.cat.ID, "Full", time.Now().Add(time.Hour))
	docs := make([]models.DocumentRef, taskstore.MaxDocuments)
	for i := range docs {
		docs[i] = models.DocumentRef{Path: "documents/x/" + string(rune('a'+i)), FileName: "f.txt"}
	}
	if _, err := e.db.Collection("tasks").UpdateByID(ctx, task.ID, bson.M{"$set": bson.M{"documents": docs}}); err != nil {
		t.Fatalf("seed documents: %v", err)
	}

	rec := testutil.NewRecorder()
	e.h.HandleUploadDocument(rec, documentRequest(t, e.u, task.ID.Hex(), "one-more.txt", []byte("x")))
	rec.AssertStatus(t, http.StatusConflict)
}
