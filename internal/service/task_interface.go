package service

import (
	"context"

	"busyness/internal/models/task"
	"busyness/internal/models/user"

	"github.com/google/uuid"
)

// TaskRepository persists tasks and their activity logs. Every lookup is
// scoped to the owning user.
type TaskRepository interface {
	HealthCheck(ctx context.Context) error
	Create(ctx context.Context, t *task.Task) error
	Update(ctx context.Context, t *task.Task) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*task.Task, error)
	GetActive(ctx context.Context, userID uuid.UUID) ([]*task.Task, error)
	GetCompleted(ctx context.Context, userID uuid.UUID) ([]*task.Task, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// LogActivity stores the updated task and the new log entry atomically.
	LogActivity(ctx context.Context, t *task.Task, log *task.Log) error
	GetLogs(ctx context.Context, taskID uuid.UUID) ([]*task.Log, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *user.User) error
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
}
