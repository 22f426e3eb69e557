// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Location is a WGS84 coordinate attached to a task.
type Location struct {
	Lat  float64 `bson:"lat" json:"lat"`
	Long float64 `bson:"long" json:"long"`
}

// DocumentRef points at a file attached to a task in object storage.
type DocumentRef struct {
	Path        string    `bson:"path" json:"-"`
	FileName    string    `bson:"file_name" json:"file_name"`
	Size        int64     `bson:"size" json:"size"`
	ContentType string    `bson:"content_type" json:"content_type"`
	UploadedAt  time.Time `bson:"uploaded_at" json:"uploaded_at"`
}

// Task is a unit of work with a deadline, optional location and completion state.
//
// DeadlineChanges counts how many times the deadline was moved after creation;
// it feeds the point-award rule in system/rewards.
type Task struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	CategoryID  primitive.ObjectID `bson:"category_id" json:"category_id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	Description string             `bson:"description" json:"description"`

	Deadline        time.Time `bson:"deadline" json:"deadline"`
	DeadlineChanges int       `bson:"deadline_changes" json:"deadline_changes"`
	Location        *Location `bson:"location,omitempty" json:"location,omitempty"`

	Completed     bool       `bson:"completed" json:"completed"`
	CompletedAt   *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	PointsAwarded int        `bson:"points_awarded" json:"points_awarded"`

	CalendarEventID string        `bson:"calendar_event_id,omitempty" json:"calendar_event_id,omitempty"`
	Documents       []DocumentRef `bson:"documents,omitempty" json:"documents"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsOverdue reports whether the task is still open past its deadline at now.
func (t Task) IsOverdue(now time.Time) bool {
	return !t.Completed && now.After(t.Deadline)
}
