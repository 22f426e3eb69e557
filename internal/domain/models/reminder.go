// internal/domain/models/reminder.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskSummary is the slim task view embedded in a reminder digest.
type TaskSummary struct {
	TaskID   primitive.ObjectID `bson:"task_id" json:"task_id"`
	Name     string             `bson:"name" json:"name"`
	Deadline time.Time          `bson:"deadline" json:"deadline"`
}

// Reminder is the daily digest of overdue and soon-due tasks for one user.
// (UserID, Day) is unique; Day is formatted YYYY-MM-DD in the reminder time zone.
type Reminder struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Day       string             `bson:"day" json:"day"`
	Overdue   []TaskSummary      `bson:"overdue" json:"overdue"`
	DueSoon   []TaskSummary      `bson:"due_soon" json:"due_soon"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
