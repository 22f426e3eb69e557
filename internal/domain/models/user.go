// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a registered TaskQuest account.
//
// NOTE:
//   - Points and TasksCompleted are only ever changed with $inc so that
//     concurrent completions never lose an update.
//   - Badges holds badge IDs (see system/rewards) and only grows.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName  string             `bson:"first_name" json:"first_name"`
	LastName   string             `bson:"last_name" json:"last_name"`
	FullNameCI string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email      string             `bson:"email" json:"email"`

	PasswordHash *string `bson:"password_hash,omitempty" json:"-"`

	Nationality string `bson:"nationality,omitempty" json:"nationality,omitempty"`
	Gender      string `bson:"gender,omitempty" json:"gender,omitempty"`
	Age         int    `bson:"age,omitempty" json:"age,omitempty"`

	// Object-storage key of the uploaded profile picture.
	ProfileImagePath string `bson:"profile_image_path,omitempty" json:"-"`
	ProfileImageType string `bson:"profile_image_type,omitempty" json:"-"`

	Points         int      `bson:"points" json:"points"`
	TasksCompleted int      `bson:"tasks_completed" json:"tasks_completed"`
	Badges         []string `bson:"badges,omitempty" json:"badges"`

	Status string `bson:"status" json:"status"` // active | disabled

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// FullName joins the first and last name for display.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// HasProfileImage reports whether an image has been uploaded.
func (u User) HasProfileImage() bool {
	return u.ProfileImagePath != ""
}
