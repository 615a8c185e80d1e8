package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"busyness/internal/impact"
	"busyness/internal/logger"
	"busyness/internal/models/task"
	rep "busyness/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScoredTask pairs a task with its priority score at the moment it was read.
type ScoredTask struct {
	Task          *task.Task
	PriorityScore float64
}

type TaskDetails struct {
	ScoredTask
	Logs []*task.Log
}

type CreateTaskParams struct {
	Title              string
	Description        string
	Type               task.Type
	Impact             *float64
	Effort             *float64
	NotDoingHourlyRate *float64
	DoingHourlyRate    *float64
	ImpactSetTo        *float64
	Deadline           *time.Time
}

type TaskService struct {
	repo TaskRepository
	now  func() time.Time
}

type ServiceOption func(*TaskService)

// WithClock sets the time source handed to the impact engine.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *TaskService) {
		s.now = now
	}
}

func NewTaskService(repo TaskRepository, opts ...ServiceOption) *TaskService {
	s := &TaskService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("service health check: %w", err)
	}
	return nil
}

func (s *TaskService) CreateTask(ctx context.Context, userID uuid.UUID, params CreateTaskParams) (*ScoredTask, error) {
	now := s.now()

	newTask := &task.Task{
		ID:                 uuid.New(),
		UserID:             userID,
		Title:              params.Title,
		Description:        params.Description,
		Type:               params.Type,
		Impact:             valueOr(params.Impact, task.DefaultImpact),
		Effort:             valueOr(params.Effort, task.DefaultEffort),
		NotDoingHourlyRate: valueOr(params.NotDoingHourlyRate, task.DefaultNotDoingHourlyRate),
		DoingHourlyRate:    params.DoingHourlyRate,
		ImpactSetTo:        params.ImpactSetTo,
		CreatedAt:          now,
		LastUpdated:        now,
	}
	if newTask.Type == "" {
		newTask.Type = task.TypeEnding
	}
	if params.Deadline != nil && !params.Deadline.IsZero() {
		d := params.Deadline.UTC()
		newTask.Deadline = &d
	}
	if newTask.Type == task.TypeEndless && newTask.DoingHourlyRate == nil && newTask.ImpactSetTo == nil {
		rate := task.DefaultDoingHourlyRate
		newTask.DoingHourlyRate = &rate
	}

	if err := validate(newTask); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, newTask); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	logger.Info("Service: task created",
		zap.String("task_id", newTask.ID.String()),
		zap.String("task_type", string(newTask.Type)))

	return &ScoredTask{Task: newTask, PriorityScore: impact.PriorityScore(newTask, now)}, nil
}

// ListActiveTasks refreshes every open task to now, persists the new impact and
// returns the tasks ordered by priority score, highest first. Equal scores are
// ordered by id.
func (s *TaskService) ListActiveTasks(ctx context.Context, userID uuid.UUID) ([]ScoredTask, error) {
	tasks, err := s.repo.GetActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("getting active tasks: %w", err)
	}

	now := s.now()
	result := make([]ScoredTask, 0, len(tasks))
	for _, t := range tasks {
		score := impact.Refresh(t, now)
		if err := s.saveRefreshed(ctx, t); err != nil {
			return nil, fmt.Errorf("saving refreshed task %s: %w", t.ID, err)
		}

		result = append(result, ScoredTask{Task: t, PriorityScore: score})
	}

	SortByPriority(result)
	return result, nil
}

// saveRefreshed persists a refreshed impact. A version conflict means another
// request stored its refresh first; the caller keeps its computed score.
func (s *TaskService) saveRefreshed(ctx context.Context, t *task.Task) error {
	err := s.repo.Update(ctx, t)
	if err == nil {
		return nil
	}
	if !errors.Is(err, rep.ErrVersionConflict) {
		return err
	}
	logger.Warn("Service: concurrent refresh, keeping computed score",
		zap.String("task_id", t.ID.String()))
	return nil
}

// SortByPriority orders by descending score, then ascending id.
func SortByPriority(tasks []ScoredTask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].PriorityScore != tasks[j].PriorityScore {
			return tasks[i].PriorityScore > tasks[j].PriorityScore
		}
		return tasks[i].Task.ID.String() < tasks[j].Task.ID.String()
	})
}

// ListCompletedTasks returns finished ending tasks, most recent first. Their
// impact is frozen, so scores are computed without a refresh.
func (s *TaskService) ListCompletedTasks(ctx context.Context, userID uuid.UUID) ([]ScoredTask, error) {
	tasks, err := s.repo.GetCompleted(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("getting completed tasks: %w", err)
	}

	now := s.now()
	result := make([]ScoredTask, 0, len(tasks))
	for _, t := range tasks {
		result = append(result, ScoredTask{Task: t, PriorityScore: impact.PriorityScore(t, now)})
	}
	return result, nil
}

func (s *TaskService) GetTask(ctx context.Context, userID, id uuid.UUID) (*TaskDetails, error) {
	t, err := s.getTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var score float64
	if t.IsCompleted() {
		score = impact.PriorityScore(t, now)
	} else {
		score = impact.Refresh(t, now)
		if err := s.saveRefreshed(ctx, t); err != nil {
			return nil, mapRepoError(err, id, "saving refreshed task")
		}
	}

	logs, err := s.repo.GetLogs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting task logs: %w", err)
	}

	return &TaskDetails{
		ScoredTask: ScoredTask{Task: t, PriorityScore: score},
		Logs:       logs,
	}, nil
}

// UpdateTask applies the edits and restarts the idle clock at now.
func (s *TaskService) UpdateTask(ctx context.Context, userID, id uuid.UUID, options ...task.Option) (*ScoredTask, error) {
	t, err := s.getTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}

	if err := validate(t); err != nil {
		return nil, err
	}

	now := s.now()
	t.LastUpdated = now
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, mapRepoError(err, id, "updating task")
	}

	return &ScoredTask{Task: t, PriorityScore: impact.PriorityScore(t, now)}, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return mapRepoError(err, id, "deleting task")
	}
	logger.Info("Service: task deleted", zap.String("task_id", id.String()))
	return nil
}

// CompleteTask finishes an ending task, or logs durationMinutes of work on an
// endless one. Ending tasks never reach the impact engine here.
func (s *TaskService) CompleteTask(ctx context.Context, userID, id uuid.UUID, durationMinutes *int) (*ScoredTask, error) {
	t, err := s.getTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	now := s.now()

	if t.Type == task.TypeEnding {
		if t.IsCompleted() {
			return nil, NewBusinessError(CodeAlreadyCompleted,
				fmt.Sprintf("task %s is already completed", id),
				ToDetail("id", id.String()),
				ToDetail("completed_at", t.CompletedAt))
		}

		t.CompletedAt = &now
		if err := s.repo.Update(ctx, t); err != nil {
			return nil, mapRepoError(err, id, "completing task")
		}

		logger.Info("Service: task completed", zap.String("task_id", id.String()))
		return &ScoredTask{Task: t, PriorityScore: impact.PriorityScore(t, now)}, nil
	}

	if durationMinutes == nil {
		return nil, NewValidationError("duration_minutes", "is required for endless tasks")
	}
	if *durationMinutes <= 0 {
		return nil, NewValidationError("duration_minutes", "must be greater than 0")
	}

	impact.ApplyActivity(t, *durationMinutes, now)

	log := &task.Log{
		ID:              uuid.New(),
		TaskID:          t.ID,
		LoggedAt:        now,
		DurationMinutes: *durationMinutes,
	}
	if err := s.repo.LogActivity(ctx, t, log); err != nil {
		return nil, mapRepoError(err, id, "logging activity")
	}

	logger.Info("Service: activity logged",
		zap.String("task_id", id.String()),
		zap.Int("duration_minutes", *durationMinutes),
		zap.Float64("impact", t.Impact))

	return &ScoredTask{Task: t, PriorityScore: impact.PriorityScore(t, now)}, nil
}

func (s *TaskService) GetTaskLogs(ctx context.Context, userID, id uuid.UUID) ([]*task.Log, error) {
	if _, err := s.getTask(ctx, userID, id); err != nil {
		return nil, err
	}

	logs, err := s.repo.GetLogs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting task logs: %w", err)
	}
	return logs, nil
}

func (s *TaskService) getTask(ctx context.Context, userID, id uuid.UUID) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: task not found", zap.String("target_id", id.String()))
		}
		return nil, mapRepoError(err, id, "getting task")
	}
	return t, nil
}

func mapRepoError(err error, id uuid.UUID, op string) error {
	switch {
	case errors.Is(err, rep.ErrNotFound):
		return NewNotFound("task", id)
	case errors.Is(err, rep.ErrVersionConflict):
		busErr := NewBusinessError(CodeVersionConflict,
			fmt.Sprintf("task %s was modified concurrently, retry the request", id),
			ToDetail("id", id.String()))
		busErr.Err = err
		return busErr
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func validate(t *task.Task) error {
	if err := t.Validate(); err != nil {
		var fieldErr *task.FieldError
		if errors.As(err, &fieldErr) {
			return NewValidationError(fieldErr.Field, fieldErr.Reason)
		}
		return err
	}
	return nil
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
