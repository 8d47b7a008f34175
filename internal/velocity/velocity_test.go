//nolint:testpackage // Tests require internal access for thorough testing
package velocity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tempoerrors "github.com/abatilo/tempo/internal/errors"
	"github.com/abatilo/tempo/internal/task"
)

func completedOn(id, goalID string, at time.Time) *task.Task {
	return &task.Task{ID: id, GoalID: goalID, Status: task.StatusCompleted, Progress: 100, CompletedAt: &at}
}

func newCollection(tasks ...*task.Task) *task.Collection {
	c := task.NewCollection()
	c.Goals = append(c.Goals, &task.Goal{ID: "goal_1", Title: "Ship"}, &task.Goal{ID: "goal_2", Title: "Other"})
	c.Tasks = append(c.Tasks, tasks...)
	return c
}

func TestComputeTwoDays(t *testing.T) {
	day1 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 5, 3, 23, 0, 0, 0, time.UTC)
	c := newCollection(
		completedOn("t1", "goal_1", day2),
		completedOn("t2", "goal_1", day1),
		completedOn("t3", "goal_1", day1.Add(2*time.Hour)),
		completedOn("t4", "goal_1", day2.Add(30*time.Minute)),
		&task.Task{ID: "t5", GoalID: "goal_1", Status: task.StatusPending},
		&task.Task{ID: "t6", GoalID: "goal_1", Status: task.StatusBlocked},
		completedOn("t7", "goal_2", day1),
	)

	r, err := Compute(c, "goal_1")
	require.NoError(t, err)

	assert.Equal(t, 4, r.Completed)
	assert.Equal(t, 2, r.Remaining)
	assert.Equal(t, 2, r.DaysTracked)
	assert.InDelta(t, 2.0, r.VelocityTasksPerDay, 1e-9)
	assert.InDelta(t, 1.0, r.EstimatedDaysToCompletion, 1e-9)
	assert.Equal(t, []DayCount{
		{Date: "2024-05-01", Count: 2},
		{Date: "2024-05-03", Count: 2},
	}, r.CompletionsByDay)
}

func TestComputeBucketsByUTCDate(t *testing.T) {
	late := time.Date(2024, 5, 3, 23, 45, 0, 0, time.UTC)
	east := time.FixedZone("UTC+9", 9*60*60)
	c := newCollection(
		completedOn("t1", "goal_1", late),
		completedOn("t2", "goal_1", late.Add(time.Hour)),
		// 2024-05-04 08:00 local is 2024-05-03 23:00 UTC.
		completedOn("t3", "goal_1", time.Date(2024, 5, 4, 8, 0, 0, 0, east)),
	)

	r, err := Compute(c, "goal_1")
	require.NoError(t, err)

	assert.Equal(t, 2, r.DaysTracked)
	assert.Equal(t, []DayCount{
		{Date: "2024-05-03", Count: 2},
		{Date: "2024-05-04", Count: 1},
	}, r.CompletionsByDay)
}

func TestComputeSameDayBuckets(t *testing.T) {
	day := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	c := newCollection(
		completedOn("t1", "goal_1", day),
		completedOn("t2", "goal_1", day.Add(time.Hour)),
		completedOn("t3", "goal_1", day.Add(2*time.Hour)),
		&task.Task{ID: "t4", GoalID: "goal_1", Status: task.StatusInProgress},
	)

	r, err := Compute(c, "goal_1")
	require.NoError(t, err)

	assert.InDelta(t, 3.0, r.VelocityTasksPerDay, 1e-9)
	assert.InDelta(t, 0.3, r.EstimatedDaysToCompletion, 1e-9)
	assert.Equal(t, []DayCount{{Date: "2024-05-01", Count: 3}}, r.CompletionsByDay)
}

func TestComputeNoCompletions(t *testing.T) {
	c := newCollection(
		&task.Task{ID: "t1", GoalID: "goal_1", Status: task.StatusPending},
		// Completed but never stamped: counted, not bucketed.
		&task.Task{ID: "t2", GoalID: "goal_1", Status: task.StatusCompleted},
	)

	r, err := Compute(c, "goal_1")
	require.NoError(t, err)

	assert.Equal(t, 1, r.Completed)
	assert.Equal(t, 1, r.Remaining)
	assert.Zero(t, r.DaysTracked)
	assert.Zero(t, r.VelocityTasksPerDay)
	assert.Zero(t, r.EstimatedDaysToCompletion)
	assert.Empty(t, r.CompletionsByDay)
}

func TestComputeRounding(t *testing.T) {
	days := []time.Time{
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
	}
	c := newCollection(
		completedOn("t1", "goal_1", days[0]),
		completedOn("t2", "goal_1", days[1]),
		completedOn("t3", "goal_1", days[2]),
		completedOn("t4", "goal_1", days[2]),
		&task.Task{ID: "t5", GoalID: "goal_1"},
	)

	r, err := Compute(c, "goal_1")
	require.NoError(t, err)

	// 4 / 3 = 1.333..., 1 / 1.333... = 0.75
	assert.InDelta(t, 1.33, r.VelocityTasksPerDay, 1e-9)
	assert.InDelta(t, 0.8, r.EstimatedDaysToCompletion, 1e-9)
}

func TestComputeUnknownGoal(t *testing.T) {
	_, err := Compute(newCollection(), "goal_missing")

	var notFound tempoerrors.GoalNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "goal_missing", notFound.ID)
}
