package dto

import (
	"time"

	"busyness/internal/models/task"
	"busyness/internal/models/user"
	"busyness/internal/service"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	TaskType           task.Type  `json:"task_type"`
	Impact             *float64   `json:"impact,omitempty"`
	Effort             *float64   `json:"effort,omitempty"`
	NotDoingHourlyRate *float64   `json:"not_doing_hourly_rate,omitempty"`
	DoingHourlyRate    *float64   `json:"doing_hourly_rate,omitempty"`
	ImpactSetTo        *float64   `json:"impact_set_to,omitempty"`
	Deadline           *time.Time `json:"deadline,omitempty"`
}

func (r CreateTaskRequest) ToParams() service.CreateTaskParams {
	return service.CreateTaskParams{
		Title:              r.Title,
		Description:        r.Description,
		Type:               r.TaskType,
		Impact:             r.Impact,
		Effort:             r.Effort,
		NotDoingHourlyRate: r.NotDoingHourlyRate,
		DoingHourlyRate:    r.DoingHourlyRate,
		ImpactSetTo:        r.ImpactSetTo,
		Deadline:           r.Deadline,
	}
}

// UpdateTaskRequest holds a partial edit; absent fields are left untouched.
// The nullable fields are cleared by an explicit null.
type UpdateTaskRequest struct {
	Title              *string             `json:"title,omitempty"`
	Description        *string             `json:"description,omitempty"`
	Impact             *float64            `json:"impact,omitempty"`
	Effort             *float64            `json:"effort,omitempty"`
	NotDoingHourlyRate *float64            `json:"not_doing_hourly_rate,omitempty"`
	DoingHourlyRate    Optional[float64]   `json:"doing_hourly_rate,omitzero"`
	ImpactSetTo        Optional[float64]   `json:"impact_set_to,omitzero"`
	Deadline           Optional[time.Time] `json:"deadline,omitzero"`
}

func (r UpdateTaskRequest) ToOptions() []task.Option {
	return []task.Option{
		task.WithTitle(r.Title),
		task.WithDescription(r.Description),
		task.WithImpact(r.Impact),
		task.WithEffort(r.Effort),
		task.WithNotDoingHourlyRate(r.NotDoingHourlyRate),
		r.DoingHourlyRate.option(task.WithDoingHourlyRate, task.ClearDoingHourlyRate),
		r.ImpactSetTo.option(task.WithImpactSetTo, task.ClearImpactSetTo),
		r.Deadline.option(task.WithDeadline, task.ClearDeadline),
	}
}

type CompleteTaskRequest struct {
	DurationMinutes *int `json:"duration_minutes,omitempty"`
}

type TaskResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	TaskType           task.Type  `json:"task_type"`
	Impact             float64    `json:"impact"`
	Effort             float64    `json:"effort"`
	NotDoingHourlyRate float64    `json:"not_doing_hourly_rate"`
	DoingHourlyRate    *float64   `json:"doing_hourly_rate"`
	ImpactSetTo        *float64   `json:"impact_set_to"`
	Deadline           *time.Time `json:"deadline"`
	CreatedAt          time.Time  `json:"created_at"`
	LastUpdated        time.Time  `json:"last_updated"`
	CompletedAt        *time.Time `json:"completed_at"`
	Version            int        `json:"version"`
	PriorityScore      float64    `json:"priority_score"`
}

type TaskWithLogsResponse struct {
	TaskResponse
	Logs []LogResponse `json:"logs"`
}

type LogResponse struct {
	ID              uuid.UUID `json:"id"`
	TaskID          uuid.UUID `json:"task_id"`
	LoggedAt        time.Time `json:"logged_at"`
	DurationMinutes int       `json:"duration_minutes"`
}

func FromScoredTask(st service.ScoredTask) TaskResponse {
	t := st.Task
	return TaskResponse{
		ID:                 t.ID,
		Title:              t.Title,
		Description:        t.Description,
		TaskType:           t.Type,
		Impact:             t.Impact,
		Effort:             t.Effort,
		NotDoingHourlyRate: t.NotDoingHourlyRate,
		DoingHourlyRate:    t.DoingHourlyRate,
		ImpactSetTo:        t.ImpactSetTo,
		Deadline:           t.Deadline,
		CreatedAt:          t.CreatedAt,
		LastUpdated:        t.LastUpdated,
		CompletedAt:        t.CompletedAt,
		Version:            t.Version,
		PriorityScore:      st.PriorityScore,
	}
}

func FromScoredTaskList(tasks []service.ScoredTask) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromScoredTask(t)
	}
	return result
}

func FromTaskDetails(details *service.TaskDetails) TaskWithLogsResponse {
	return TaskWithLogsResponse{
		TaskResponse: FromScoredTask(details.ScoredTask),
		Logs:         FromLogList(details.Logs),
	}
}

func FromLogList(logs []*task.Log) []LogResponse {
	result := make([]LogResponse, len(logs))
	for i, l := range logs {
		result[i] = LogResponse{
			ID:              l.ID,
			TaskID:          l.TaskID,
			LoggedAt:        l.LoggedAt,
			DurationMinutes: l.DurationMinutes,
		}
	}
	return result
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type GoogleLoginRequest struct {
	Token string `json:"token"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func BearerToken(token string) TokenResponse {
	return TokenResponse{AccessToken: token, TokenType: "bearer"}
}

type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	IsActive bool      `json:"is_active"`
}

func FromUser(u *user.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, IsActive: u.IsActive}
}
