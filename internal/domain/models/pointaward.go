// internal/domain/models/pointaward.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Award reasons recorded in the point_awards ledger.
const (
	AwardOnTime         = "on_time"
	AwardOverdue        = "overdue"
	AwardTooManyChanges = "too_many_deadline_changes"
)

// PointAward is one ledger entry written when a task is completed.
// TaskID is unique, so a task can only ever be rewarded once.
type PointAward struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	TaskID    primitive.ObjectID `bson:"task_id" json:"task_id"`
	Points    int                `bson:"points" json:"points"`
	Reason    string             `bson:"reason" json:"reason"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
