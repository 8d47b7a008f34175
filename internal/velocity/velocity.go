// Package velocity projects goal completion from historical completion dates.
package velocity

import (
	"math"
	"sort"

	tempoerrors "github.com/abatilo/tempo/internal/errors"
	"github.com/abatilo/tempo/internal/task"
)

const dayLayout = "2006-01-02"

// DayCount is the number of tasks completed on one UTC calendar day.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Report summarizes completion velocity for a goal.
type Report struct {
	GoalID                    string     `json:"goal_id"`
	Completed                 int        `json:"completed"`
	Remaining                 int        `json:"remaining"`
	DaysTracked               int        `json:"days_tracked"`
	VelocityTasksPerDay       float64    `json:"velocity_tasks_per_day"`
	EstimatedDaysToCompletion float64    `json:"estimated_days_to_completion"`
	CompletionsByDay          []DayCount `json:"completions_by_day"`
}

// Compute builds the velocity report for goalID.
// Completed tasks without a completed_at count toward Completed but not toward any day.
func Compute(c *task.Collection, goalID string) (*Report, error) {
	if c.FindGoal(goalID) == nil {
		return nil, tempoerrors.GoalNotFoundError{ID: goalID}
	}

	r := &Report{GoalID: goalID, CompletionsByDay: []DayCount{}}
	byDay := make(map[string]int)
	for _, t := range c.TasksForGoal(goalID) {
		if t.Status != task.StatusCompleted {
			r.Remaining++
			continue
		}
		r.Completed++
		if t.CompletedAt != nil {
			byDay[t.CompletedAt.UTC().Format(dayLayout)]++
		}
	}

	for date, count := range byDay {
		r.CompletionsByDay = append(r.CompletionsByDay, DayCount{Date: date, Count: count})
	}
	sort.Slice(r.CompletionsByDay, func(i, j int) bool {
		return r.CompletionsByDay[i].Date < r.CompletionsByDay[j].Date
	})
	r.DaysTracked = len(byDay)

	var velocity, days float64
	if r.DaysTracked > 0 {
		velocity = float64(r.Completed) / float64(r.DaysTracked)
	}
	if velocity > 0 {
		days = float64(r.Remaining) / velocity
	}
	r.VelocityTasksPerDay = round(velocity, 2)
	r.EstimatedDaysToCompletion = round(days, 1)
	return r, nil
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
