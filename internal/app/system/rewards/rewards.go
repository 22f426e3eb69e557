// Package rewards holds the completion rule that decides how many points a
// task earns, and the badge thresholds evaluated after each award.
package rewards

import (
	"time"

	"github.com/dalemusser/taskquest/internal/domain/models"
)

const (
	// PointsPerTask is granted for a qualifying completion.
	PointsPerTask = 10
	// MaxDeadlineChanges is the number of deadline changes at which a task
	// stops earning points.
	MaxDeadlineChanges = 3
)

// Outcome is the result of evaluating one completion.
type Outcome struct {
	Points  int
	Reason  string
	Message string
}

// Evaluate applies the completion rule to t at time now. The overdue check
// takes precedence over the deadline-change check.
func Evaluate(t models.Task, now time.Time) Outcome {
	switch {
	case t.IsOverdue(now):
		return Outcome{
			Reason:  models.AwardOverdue,
			Message: "Task completed after its deadline. No points this time.",
		}
	case t.DeadlineChanges >= MaxDeadlineChanges:
		return Outcome{
			Reason:  models.AwardTooManyChanges,
			Message: "Task completed, but its deadline was changed too many times to earn points.",
		}
	default:
		return Outcome{
			Points:  PointsPerTask,
			Reason:  models.AwardOnTime,
			Message: "Task completed on time! You earned 10 points.",
		}
	}
}

// Badge is an achievement unlocked by crossing a threshold.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	minPoints    int
	minCompleted int
}

// Badges is the catalogue, in display order.
var Badges = []Badge{
	{ID: "first_task", Name: "First Step", Description: "Complete your first task.", minCompleted: 1},
	{ID: "starter", Name: "Starter", Description: "Earn 10 points.", minPoints: 10},
	{ID: "closer", Name: "Closer", Description: "Complete 25 tasks.", minCompleted: 25},
	{ID: "achiever", Name: "Achiever", Description: "Earn 100 points.", minPoints: 100},
	{ID: "champion", Name: "Champion", Description: "Earn 500 points.", minPoints: 500},
	{ID: "legend", Name: "Legend", Description: "Earn 1000 points.", minPoints: 1000},
}

// Lookup returns the badge with id.
func Lookup(id string) (Badge, bool) {
	for _, b := range Badges {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// Earned lists the IDs of every badge satisfied by the totals.
func Earned(points, completed int) []string {
	var ids []string
	for _, b := range Badges {
		if b.minPoints > 0 && points < b.minPoints {
			continue
		}
		if b.minCompleted > 0 && completed < b.minCompleted {
			continue
		}
		ids = append(ids, b.ID)
	}
	return ids
}

// NewlyEarned returns the badges satisfied by the totals that are not in have.
func NewlyEarned(points, completed int, have []string) []string {
	owned := make(map[string]struct{}, len(have))
	for _, id := range have {
		owned[id] = struct{}{}
	}
	var out []string
	for _, id := range Earned(points, completed) {
		if _, ok := owned[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
