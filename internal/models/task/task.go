package task

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	UserID             uuid.UUID  `json:"user_id" db:"user_id"`
	Title              string     `json:"title" db:"title"`
	Description        string     `json:"description" db:"description"`
	Type               Type       `json:"task_type" db:"task_type"`
	Impact             float64    `json:"impact" db:"impact"`
	Effort             float64    `json:"effort" db:"effort"`
	NotDoingHourlyRate float64    `json:"not_doing_hourly_rate" db:"not_doing_hourly_rate"`
	DoingHourlyRate    *float64   `json:"doing_hourly_rate,omitempty" db:"doing_hourly_rate"`
	ImpactSetTo        *float64   `json:"impact_set_to,omitempty" db:"impact_set_to"`
	Deadline           *time.Time `json:"deadline,omitempty" db:"deadline"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	LastUpdated        time.Time  `json:"last_updated" db:"last_updated"`
	CompletedAt        *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	Version            int        `json:"version" db:"version"`
}

// Log is one block of time spent on an endless task. Logs are never edited.
type Log struct {
	ID              uuid.UUID `json:"id" db:"id"`
	TaskID          uuid.UUID `json:"task_id" db:"task_id"`
	LoggedAt        time.Time `json:"logged_at" db:"logged_at"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
}

type Type string

const TypeEnding Type = "ending"
const TypeEndless Type = "endless"

const (
	DefaultImpact             = 5.0
	DefaultEffort             = 1.0
	DefaultNotDoingHourlyRate = 0.1
	DefaultDoingHourlyRate    = 0.1
)

func (t Type) Valid() bool {
	return t == TypeEnding || t == TypeEndless
}

func (t *Task) IsCompleted() bool {
	return t.CompletedAt != nil
}
