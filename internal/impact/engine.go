// Package impact holds the priority model: impact drifts up while a task is
// neglected, drops when time is logged against it, and is turned into a
// priority score weighted by effort and deadline proximity.
//
// Every function takes the current time from the caller and mutates only the
// task it is given.
package impact

import (
	"time"

	"busyness/internal/models/task"
)

const (
	MinImpact = 0.0
	MaxImpact = 10.0

	// MinEffort is the effort floor used when dividing.
	MinEffort = 0.1

	// MinDaysUntilDeadline caps the deadline multiplier at 1 + 1/0.1 = 11.
	// Deadlines that already passed are clamped here too.
	MinDaysUntilDeadline = 0.1
)

const day = 24 * time.Hour

// Refresh brings impact up to date for the hours elapsed since LastUpdated,
// moves LastUpdated to now and returns the priority score.
//
// A now earlier than LastUpdated yields negative elapsed hours, which lowers
// impact. That is accepted input, not an error.
func Refresh(t *task.Task, now time.Time) float64 {
	t.Impact = clamp(t.Impact+idleGrowth(t, now), MinImpact, MaxImpact)
	t.LastUpdated = now
	return PriorityScore(t, now)
}

// PriorityScore is impact per hour of effort, boosted as the deadline nears,
// clamped to [0,10]. The task is not modified.
func PriorityScore(t *task.Task, now time.Time) float64 {
	effort := max(t.Effort, MinEffort)
	score := t.Impact / effort

	if t.Deadline != nil {
		daysUntil := max(float64(t.Deadline.Sub(now))/float64(day), MinDaysUntilDeadline)
		score *= 1 + 1/daysUntil
	}

	return clamp(score, MinImpact, MaxImpact)
}

// ApplyActivity records durationMinutes of work on the task. Idle growth since
// LastUpdated is added first, then the completion effect: ImpactSetTo replaces
// impact outright, otherwise DoingHourlyRate burns it down per hour worked.
// Impact is clamped once, at the end.
//
// Idle growth is derived independently of Refresh, so a caller that refreshes
// and then applies activity with a stale LastUpdated counts the idle hours twice.
func ApplyActivity(t *task.Task, durationMinutes int, now time.Time) {
	t.Impact += idleGrowth(t, now)

	switch {
	case t.ImpactSetTo != nil:
		t.Impact = *t.ImpactSetTo
	case t.DoingHourlyRate != nil:
		hoursSpent := float64(durationMinutes) / 60
		t.Impact -= hoursSpent * *t.DoingHourlyRate
	}

	t.Impact = clamp(t.Impact, MinImpact, MaxImpact)
	t.LastUpdated = now
}

func idleGrowth(t *task.Task, now time.Time) float64 {
	elapsedHours := now.Sub(t.LastUpdated).Hours()
	return elapsedHours * t.NotDoingHourlyRate
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
