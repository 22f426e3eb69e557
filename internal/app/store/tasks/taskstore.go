package taskstore

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"time"

	"github.com/dalemusser/taskquest/internal/app/system/normalize"
	"github.com/dalemusser/taskquest/internal/app/system/paging"
	"github.com/dalemusser/taskquest/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaxDocuments is the number of files that can be attached to one task.
const MaxDocuments = 10

var (
	// ErrNotFound is returned when the task does not exist or belongs to
	// another user.
	ErrNotFound = errors.New("task not found")
	// ErrAlreadyCompleted is returned when completing or rescheduling a
	// completed task.
	ErrAlreadyCompleted = errors.New("task is already completed")
	// ErrChanged is returned when the task changed between reading it and
	// completing it.
	ErrChanged = errors.New("task changed while completing; retry")
	// ErrTooManyDocuments is returned when a task already has MaxDocuments.
	ErrTooManyDocuments = errors.New("task has too many documents")
	// ErrDocumentNotFound is returned for an out-of-range document index.
	ErrDocumentNotFound = errors.New("document not found")
)

// Store manages tasks. Every method except the reminder scan is scoped by
// owner.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// Create inserts t. Deadlines are stored in UTC at millisecond precision.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	t.ID = primitive.NewObjectID()
	t.Name = normalize.Name(t.Name)
	t.NameCI = text.Fold(t.Name)
	t.Deadline = t.Deadline.UTC().Truncate(time.Millisecond)
	t.DeadlineChanges = 0
	t.Completed = false
	t.CompletedAt = nil
	t.PointsAwarded = 0
	if t.Documents == nil {
		t.Documents = []models.DocumentRef{}
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// Get loads a task owned by userID.
func (s *Store) Get(ctx context.Context, userID, id primitive.ObjectID) (*models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&t); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// Status filters for List.
const (
	StatusAll       = ""
	StatusOpen      = "open"
	StatusCompleted = "completed"
	StatusOverdue   = "overdue"
)

// ListFilter narrows List.
type ListFilter struct {
	CategoryID *primitive.ObjectID
	Status     string
	Query      string // case-folded substring of the name
	After      *paging.TimeCursor
	Limit      int
	Now        time.Time
}

// List returns one page of the user's tasks ordered by deadline then id.
func (s *Store) List(ctx context.Context, userID primitive.ObjectID, f ListFilter) ([]models.Task, bool, error) {
	filter := bson.M{"user_id": userID}
	if f.CategoryID != nil {
		filter["category_id"] = *f.CategoryID
	}
	now := f.Now
	if now.IsZero() {
		now = time.Now()
	}
	switch f.Status {
	case StatusOpen:
		filter["completed"] = false
	case StatusCompleted:
		filter["completed"] = true
	case StatusOverdue:
		filter["completed"] = false
		filter["deadline"] = bson.M{"$lt": now.UTC()}
	}
	if q := text.Fold(f.Query); q != "" {
		filter["name_ci"] = bson.M{"$regex": regexp.QuoteMeta(q)}
	}

	query := filter
	if f.After != nil {
		query = bson.M{"$and": []bson.M{filter, f.After.Window("deadline")}}
	}

	limit := f.Limit
	if limit <= 0 {
		limit = paging.DefaultLimit
	}
	cur, err := s.c.Find(ctx, query, paging.ApplyToFind(options.Find(), "deadline", limit))
	if err != nil {
		return nil, false, err
	}
	defer cur.Close(ctx)

	out := []models.Task{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, false, err
	}
	hasNext := paging.TrimPage(&out, limit)
	return out, hasNext, nil
}

// Update holds the editable fields; nil means unchanged.
type Update struct {
	Name            *string
	Description     *string
	CategoryID      *primitive.ObjectID
	Deadline        *time.Time
	Location        *models.Location
	ClearLocation   bool
	CalendarEventID *string
}

// Update applies upd in a single write. Moving the deadline to a different
// instant increments deadline_changes; setting the same deadline does not.
// A deadline change on a completed task fails with ErrAlreadyCompleted and
// leaves the task untouched.
func (s *Store) Update(ctx context.Context, userID, id primitive.ObjectID, upd Update) (*models.Task, error) {
	filter := bson.M{"_id": id, "user_id": userID}
	set := bson.M{"updated_at": time.Now().UTC()}
	var unset []string

	if upd.Deadline != nil {
		d := upd.Deadline.UTC().Truncate(time.Millisecond)
		filter["completed"] = false
		changes := bson.M{"$ifNull": bson.A{"$deadline_changes", 0}}
		// Stage fields are computed from the stored document, so $deadline
		// below is still the old value.
		set["deadline_changes"] = bson.M{"$cond": bson.A{
			bson.M{"$ne": bson.A{"$deadline", d}},
			bson.M{"$add": bson.A{changes, 1}},
			changes,
		}}
		set["deadline"] = d
	}
	if upd.Name != nil {
		name := normalize.Name(*upd.Name)
		set["name"] = literal(name)
		set["name_ci"] = literal(text.Fold(name))
	}
	if upd.Description != nil {
		set["description"] = literal(*upd.Description)
	}
	if upd.CategoryID != nil {
		set["category_id"] = *upd.CategoryID
	}
	if upd.ClearLocation {
		unset = append(unset, "location")
	} else if upd.Location != nil {
		set["location"] = literal(*upd.Location)
	}
	if upd.CalendarEventID != nil {
		if *upd.CalendarEventID == "" {
			unset = append(unset, "calendar_event_id")
		} else {
			set["calendar_event_id"] = literal(*upd.CalendarEventID)
		}
	}

	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}
	if len(unset) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$unset", Value: unset}})
	}
	var t models.Task
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&t)
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) || upd.Deadline == nil {
		return nil, notFound(err)
	}
	n, cerr := s.c.CountDocuments(ctx, bson.M{"_id": id, "user_id": userID})
	if cerr != nil {
		return nil, cerr
	}
	if n > 0 {
		return nil, ErrAlreadyCompleted
	}
	return nil, ErrNotFound
}

// literal keeps user text from being read as an aggregation expression in
// pipeline updates (a name like "$deadline" would otherwise be a field path).
func literal(v any) bson.M {
	return bson.M{"$literal": v}
}

// MarkCompleted completes t with points, but only if the stored task is
// still open with the deadline and change count t was evaluated against.
func (s *Store) MarkCompleted(ctx context.Context, t models.Task, points int, at time.Time) (*models.Task, error) {
	at = at.UTC()
	filter := bson.M{
		"_id":              t.ID,
		"user_id":          t.UserID,
		"completed":        false,
		"deadline":         t.Deadline,
		"deadline_changes": t.DeadlineChanges,
	}
	update := bson.M{"$set": bson.M{
		"completed":      true,
		"completed_at":   at,
		"points_awarded": points,
		"updated_at":     at,
	}}

	var out models.Task
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	if err == nil {
		return &out, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	cur, gerr := s.Get(ctx, t.UserID, t.ID)
	if gerr != nil {
		return nil, gerr
	}
	if cur.Completed {
		return nil, ErrAlreadyCompleted
	}
	return nil, ErrChanged
}

// Delete removes a task and returns it so attached files can be removed.
func (s *Store) Delete(ctx context.Context, userID, id primitive.ObjectID) (*models.Task, error) {
	var t models.Task
	if err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&t); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// DeleteByCategory removes every task in a category and returns the object
// keys of their attached documents.
func (s *Store) DeleteByCategory(ctx context.Context, userID, categoryID primitive.ObjectID) ([]string, int64, error) {
	filter := bson.M{"user_id": userID, "category_id": categoryID}
	cur, err := s.c.Find(ctx, filter, options.Find().SetProjection(bson.M{"documents.path": 1}))
	if err != nil {
		return nil, 0, err
	}
	var rows []models.Task
	if err := cur.All(ctx, &rows); err != nil {
		return nil, 0, err
	}
	var paths []string
	for _, t := range rows {
		for _, d := range t.Documents {
			paths = append(paths, d.Path)
		}
	}

	res, err := s.c.DeleteMany(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return paths, res.DeletedCount, nil
}

// AddDocument appends doc unless the task already has MaxDocuments.
func (s *Store) AddDocument(ctx context.Context, userID, id primitive.ObjectID, doc models.DocumentRef) (*models.Task, error) {
	filter := bson.M{
		"_id":     id,
		"user_id": userID,
		"documents." + strconv.Itoa(MaxDocuments-1): bson.M{"$exists": false},
	}
	update := bson.M{
		"$push": bson.M{"documents": doc},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	var t models.Task
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&t)
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	if _, gerr := s.Get(ctx, userID, id); gerr != nil {
		return nil, gerr
	}
	return nil, ErrTooManyDocuments
}

// RemoveDocument detaches the document at index and returns it.
func (s *Store) RemoveDocument(ctx context.Context, userID, id primitive.ObjectID, index int) (*models.DocumentRef, error) {
	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(t.Documents) {
		return nil, ErrDocumentNotFound
	}
	doc := t.Documents[index]

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{
			"$pull": bson.M{"documents": bson.M{"path": doc.Path}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return nil, err
	}
	if res.ModifiedCount == 0 {
		return nil, ErrDocumentNotFound
	}
	return &doc, nil
}

// Texts returns "name. description" strings for the user's most recent
// tasks, newest first.
func (s *Store) Texts(ctx context.Context, userID primitive.ObjectID, limit int) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"name": 1, "description": 1})
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.Task
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, t := range rows {
		line := t.Name
		if t.Description != "" {
			line += ". " + t.Description
		}
		out = append(out, line)
	}
	return out, nil
}

// OpenDueBefore streams every open task with a deadline before cutoff,
// ordered by owner then deadline. fn is called once per task.
func (s *Store) OpenDueBefore(ctx context.Context, cutoff time.Time, fn func(models.Task) error) error {
	opts := options.Find().
		SetSort(bson.D{{Key: "user_id", Value: 1}, {Key: "deadline", Value: 1}}).
		SetProjection(bson.M{"user_id": 1, "name": 1, "deadline": 1, "completed": 1})
	cur, err := s.c.Find(ctx, bson.M{"completed": false, "deadline": bson.M{"$lt": cutoff.UTC()}}, opts)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var t models.Task
		if err := cur.Decode(&t); err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
	}
	return cur.Err()
}
