package handlers

import (
	"context"

	"busyness/internal/models/task"
	"busyness/internal/models/user"
	"busyness/internal/service"

	"github.com/google/uuid"
)

type Service interface {
	HealthCheck(ctx context.Context) error
	CreateTask(ctx context.Context, userID uuid.UUID, params service.CreateTaskParams) (*service.ScoredTask, error)
	ListActiveTasks(ctx context.Context, userID uuid.UUID) ([]service.ScoredTask, error)
	ListCompletedTasks(ctx context.Context, userID uuid.UUID) ([]service.ScoredTask, error)
	GetTask(ctx context.Context, userID, id uuid.UUID) (*service.TaskDetails, error)
	UpdateTask(ctx context.Context, userID, id uuid.UUID, options ...task.Option) (*service.ScoredTask, error)
	DeleteTask(ctx context.Context, userID, id uuid.UUID) error
	CompleteTask(ctx context.Context, userID, id uuid.UUID, durationMinutes *int) (*service.ScoredTask, error)
	GetTaskLogs(ctx context.Context, userID, id uuid.UUID) ([]*task.Log, error)
}

type UserService interface {
	Register(ctx context.Context, email, password string) (*user.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	GoogleLogin(ctx context.Context, idToken string) (string, error)
}
