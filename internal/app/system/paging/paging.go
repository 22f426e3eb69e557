// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultLimit is the page size when the client does not ask for one.
const DefaultLimit = 50

// MaxLimit caps the "limit" query parameter.
const MaxLimit = 100

// ParseLimit reads the "limit" query parameter, clamped to [1, MaxLimit].
// Missing or invalid values yield def.
func ParseLimit(r *http.Request, def int) int {
	s := query.Get(r, "limit")
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// TrimPage trims rows fetched with limit+1 look-ahead down to limit and
// reports whether another page exists.
func TrimPage[T any](rows *[]T, limit int) (hasNext bool) {
	if len(*rows) > limit {
		*rows = (*rows)[:limit]
		return true
	}
	return false
}

// TimeCursor is a decoded keyset position on a (time, _id) sort.
type TimeCursor struct {
	At time.Time
	ID primitive.ObjectID
}

// EncodeTimeCursor makes an opaque cursor from a sort time and id. Mongo
// stores dates with millisecond precision, so that is what the cursor keeps.
func EncodeTimeCursor(at time.Time, id primitive.ObjectID) string {
	return wafflemongo.EncodeCursor(strconv.FormatInt(at.UnixMilli(), 10), id)
}

// DecodeTimeCursor parses a cursor from EncodeTimeCursor.
func DecodeTimeCursor(s string) (TimeCursor, bool) {
	if s == "" {
		return TimeCursor{}, false
	}
	c, ok := wafflemongo.DecodeCursor(s)
	if !ok {
		return TimeCursor{}, false
	}
	ms, err := strconv.ParseInt(c.CI, 10, 64)
	if err != nil {
		return TimeCursor{}, false
	}
	return TimeCursor{At: time.UnixMilli(ms).UTC(), ID: c.ID}, true
}

// Window returns the filter selecting rows strictly after c on an ascending
// (field, _id) sort.
func (c TimeCursor) Window(field string) bson.M {
	return bson.M{"$or": []bson.M{
		{field: bson.M{"$gt": c.At}},
		{field: c.At, "_id": bson.M{"$gt": c.ID}},
	}}
}

// ApplyToFind sets an ascending (field, _id) sort and a limit+1 look-ahead.
func ApplyToFind(find *options.FindOptions, field string, limit int) *options.FindOptions {
	return find.SetSort(bson.D{
		{Key: field, Value: 1},
		{Key: "_id", Value: 1},
	}).SetLimit(int64(limit + 1))
}

// NextCursor builds the cursor for the page after rows, or "" when there is
// none.
func NextCursor[T any](rows []T, hasNext bool, at func(T) time.Time, id func(T) primitive.ObjectID) string {
	if !hasNext || len(rows) == 0 {
		return ""
	}
	last := rows[len(rows)-1]
	return EncodeTimeCursor(at(last), id(last))
}
