package task

import (
	"time"
)

// Option mutates a task during an edit. Constructors return nil when there is
// nothing to change; callers skip nil options.
type Option func(*Task)

func WithTitle(title *string) Option {
	if title == nil {
		return nil
	}
	return func(task *Task) {
		task.Title = *title
	}
}

func WithDescription(description *string) Option {
	if description == nil {
		return nil
	}
	return func(task *Task) {
		task.Description = *description
	}
}

func WithImpact(impact *float64) Option {
	if impact == nil {
		return nil
	}
	return func(task *Task) {
		task.Impact = *impact
	}
}

func WithEffort(effort *float64) Option {
	if effort == nil {
		return nil
	}
	return func(task *Task) {
		task.Effort = *effort
	}
}

func WithNotDoingHourlyRate(rate *float64) Option {
	if rate == nil {
		return nil
	}
	return func(task *Task) {
		task.NotDoingHourlyRate = *rate
	}
}

func WithDoingHourlyRate(rate *float64) Option {
	if rate == nil {
		return nil
	}
	return func(task *Task) {
		v := *rate
		task.DoingHourlyRate = &v
	}
}

func WithImpactSetTo(value *float64) Option {
	if value == nil {
		return nil
	}
	return func(task *Task) {
		v := *value
		task.ImpactSetTo = &v
	}
}

func WithDeadline(deadline *time.Time) Option {
	if deadline == nil || deadline.IsZero() {
		return nil
	}
	return func(task *Task) {
		d := deadline.UTC()
		task.Deadline = &d
	}
}

func ClearDoingHourlyRate() Option {
	return func(task *Task) {
		task.DoingHourlyRate = nil
	}
}

func ClearImpactSetTo() Option {
	return func(task *Task) {
		task.ImpactSetTo = nil
	}
}

func ClearDeadline() Option {
	return func(task *Task) {
		task.Deadline = nil
	}
}
