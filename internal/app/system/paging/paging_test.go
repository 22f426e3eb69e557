package paging

import (
	"net/http/httptest"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", DefaultLimit},
		{"limit=10", 10},
		{"limit=0", DefaultLimit},
		{"limit=-3", DefaultLimit},
		{"limit=abc", DefaultLimit},
		{"limit=1000", MaxLimit},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/api/tasks?"+tt.query, nil)
		if got := ParseLimit(r, DefaultLimit); got != tt.want {
			t.Errorf("ParseLimit(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestTrimPage(t *testing.T) {
	rows := []int{1, 2, 3, 4}
	if !TrimPage(&rows, 3) {
		t.Error("expected hasNext with look-ahead row")
	}
	if len(rows) != 3 {
		t.Errorf("expected 3 rows, got %d", len(rows))
	}

	rows = []int{1, 2}
	if TrimPage(&rows, 3) {
		t.Error("expected no next page")
	}
	if len(rows) != 2 {
		t.Errorf("rows should be untouched, got %v", rows)
	}
}

func TestTimeCursor_RoundTrip(t *testing.T) {
	at := time.Date(2026, 5, 1, 9, 30, 15, 123_000_000, time.UTC)
	id := primitive.NewObjectID()

	c, ok := DecodeTimeCursor(EncodeTimeCursor(at, id))
	if !ok {
		t.Fatal("expected cursor to decode")
	}
	if !c.At.Equal(at) {
		t.Errorf("At = %v, want %v", c.At, at)
	}
	if c.ID != id {
		t.Errorf("ID = %s, want %s", c.ID.Hex(), id.Hex())
	}
}

func TestDecodeTimeCursor_Invalid(t *testing.T) {
	for _, s := range []string{"", "garbage", "!!!"} {
		if _, ok := DecodeTimeCursor(s); ok {
			t.Errorf("DecodeTimeCursor(%q) should fail", s)
		}
	}
}

func TestTimeCursor_Window(t *testing.T) {
	c := TimeCursor{At: time.Unix(100, 0).UTC(), ID: primitive.NewObjectID()}
	w := c.Window("deadline")
	or, ok := w["$or"].([]bson.M)
	if !ok || len(or) != 2 {
		t.Fatalf("expected $or with two branches, got %v", w)
	}
	if _, ok := or[1]["_id"]; !ok {
		t.Errorf("tie-break branch should compare _id, got %v", or[1])
	}
}

func TestApplyToFind(t *testing.T) {
	find := ApplyToFind(options.Find(), "deadline", 20)
	if find.Limit == nil || *find.Limit != 21 {
		t.Errorf("expected limit 21, got %v", find.Limit)
	}
}

func TestNextCursor(t *testing.T) {
	type row struct {
		At time.Time
		ID primitive.ObjectID
	}
	rows := []row{{time.Unix(1, 0), primitive.NewObjectID()}, {time.Unix(2, 0), primitive.NewObjectID()}}
	at := func(r row) time.Time { return r.At }
	id := func(r row) primitive.ObjectID { return r.ID }

	if got := NextCursor(rows, false, at, id); got != "" {
		t.Errorf("expected empty cursor without next page, got %q", got)
	}
	got := NextCursor(rows, true, at, id)
	c, ok := DecodeTimeCursor(got)
	if !ok || c.ID != rows[1].ID {
		t.Errorf("expected cursor at last row, got %+v ok=%v", c, ok)
	}
}
