package task

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLength = 255
	MaxEffort      = 1000.0
)

// FieldError names the first field that failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validate checks the ranges accepted from clients. The impact engine itself
// never validates; it trusts whatever made it past here.
func (t *Task) Validate() error {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		return &FieldError{Field: "title", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(t.Title) > MaxTitleLength {
		return &FieldError{Field: "title", Reason: fmt.Sprintf("must be at most %d characters", MaxTitleLength)}
	}
	if !t.Type.Valid() {
		return &FieldError{Field: "task_type", Reason: "must be ending or endless"}
	}
	if !inRange(t.Impact, 0, 10) {
		return &FieldError{Field: "impact", Reason: "must be between 0 and 10"}
	}
	if !finite(t.Effort) || t.Effort <= 0 || t.Effort > MaxEffort {
		return &FieldError{Field: "effort", Reason: fmt.Sprintf("must be greater than 0 and at most %g", MaxEffort)}
	}
	if !finite(t.NotDoingHourlyRate) || t.NotDoingHourlyRate < 0 {
		return &FieldError{Field: "not_doing_hourly_rate", Reason: "must not be negative"}
	}
	if t.DoingHourlyRate != nil && (!finite(*t.DoingHourlyRate) || *t.DoingHourlyRate < 0) {
		return &FieldError{Field: "doing_hourly_rate", Reason: "must not be negative"}
	}
	if t.ImpactSetTo != nil && !inRange(*t.ImpactSetTo, 0, 10) {
		return &FieldError{Field: "impact_set_to", Reason: "must be between 0 and 10"}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func inRange(v, lo, hi float64) bool {
	return finite(v) && v >= lo && v <= hi
}
