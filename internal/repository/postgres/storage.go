package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"busyness/internal/config"
	"busyness/internal/logger"
	"busyness/internal/models/task"
	"busyness/internal/models/user"
	repo "busyness/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	slowQuery       = 100 * time.Millisecond
	uniqueViolation = "23505"
	taskColumns     = `id, user_id, title, description, task_type, impact, effort, not_doing_hourly_rate, doing_hourly_rate, impact_set_to, deadline, created_at, last_updated, completed_at, version`
	taskLogColumns  = `id, task_id, logged_at, duration_minutes`
	userColumns     = `id, email, hashed_password, is_active, created_at`
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Storage struct {
	pool *pgxpool.Pool
	dsn  string
}

func New(ctx context.Context, cfg config.DatabaseConfig) (*Storage, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		logger.Error("Repository: failed to parse database url", err)
		return nil, fmt.Errorf("parsing pool config: %w", err)
	}

	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConnections)
	}
	if cfg.MinConnections > 0 {
		poolConfig.MinConns = int32(cfg.MinConnections)
	}
	if cfg.IdleTimeout > 0 {
		poolConfig.MaxConnIdleTime = cfg.IdleTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("Repository: failed to create pool", err)
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: ping failed", err)
		return nil, fmt.Errorf("ping: %w", err)
	}

	logger.Info("Repository: connected to PostgreSQL",
		zap.Int32("max_conns", poolConfig.MaxConns),
		zap.Int32("min_conns", poolConfig.MinConns))
	return &Storage{pool: pool, dsn: cfg.URL}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: closed all PostgreSQL connections")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: ping failed", err)
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()
	query := `INSERT INTO tasks (` + taskColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1)
			RETURNING version`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.ID,
		taskToCreate.UserID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.Type,
		taskToCreate.Impact,
		taskToCreate.Effort,
		taskToCreate.NotDoingHourlyRate,
		taskToCreate.DoingHourlyRate,
		taskToCreate.ImpactSetTo,
		taskToCreate.Deadline,
		taskToCreate.CreatedAt,
		taskToCreate.LastUpdated,
		taskToCreate.CompletedAt,
	).Scan(&taskToCreate.Version)
	if err != nil {
		if isUniqueViolation(err) {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: failed to insert task", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("inserting task: %w", err)
	}

	warnIfSlow("create_task", start, slowQuery)
	return nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()
	if err := updateTask(ctx, s.pool, taskToUpdate); err != nil {
		return err
	}
	warnIfSlow("update_task", start, slowQuery)
	return nil
}

// updateTask writes every mutable column guarded by the version the caller
// read, and bumps the version on success.
func updateTask(ctx context.Context, q querier, taskToUpdate *task.Task) error {
	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				impact = $3,
				effort = $4,
				not_doing_hourly_rate = $5,
				doing_hourly_rate = $6,
				impact_set_to = $7,
				deadline = $8,
				last_updated = $9,
				completed_at = $10,
				version = version + 1
			WHERE id = $11 AND user_id = $12 AND version = $13
			RETURNING version`

	err := q.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.Impact,
		taskToUpdate.Effort,
		taskToUpdate.NotDoingHourlyRate,
		taskToUpdate.DoingHourlyRate,
		taskToUpdate.ImpactSetTo,
		taskToUpdate.Deadline,
		taskToUpdate.LastUpdated,
		taskToUpdate.CompletedAt,
		taskToUpdate.ID,
		taskToUpdate.UserID,
		taskToUpdate.Version,
	).Scan(&taskToUpdate.Version)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		logger.Error("Repository: failed to update task", err)
		return fmt.Errorf("updating task: %w", err)
	}

	var exists bool
	if err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1 AND user_id = $2)`,
		taskToUpdate.ID, taskToUpdate.UserID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("checking task existence: %w", err)
	}
	if !exists {
		return repo.ErrNotFound
	}

	logger.Warn("Repository: version conflict on task update",
		zap.String("task_id", taskToUpdate.ID.String()),
		zap.Int("expected_version", taskToUpdate.Version))
	return repo.ErrVersionConflict
}

func (s *Storage) GetByID(ctx context.Context, userID, id uuid.UUID) (*task.Task, error) {
	start := time.Now()
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`

	t, err := scanTask(s.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: failed to get task", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("getting task: %w", err)
	}

	warnIfSlow("get_task", start, slowQuery)
	return t, nil
}

func (s *Storage) GetActive(ctx context.Context, userID uuid.UUID) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
			WHERE user_id = $1 AND completed_at IS NULL
			ORDER BY created_at`
	return s.queryTasks(ctx, "get_active_tasks", query, userID)
}

func (s *Storage) GetCompleted(ctx context.Context, userID uuid.UUID) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
			WHERE user_id = $1 AND completed_at IS NOT NULL
			ORDER BY completed_at DESC`
	return s.queryTasks(ctx, "get_completed_tasks", query, userID)
}

func (s *Storage) queryTasks(ctx context.Context, op, query string, args ...any) ([]*task.Task, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: failed to query tasks", err, zap.String("op", op), zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: row iteration failed", err, zap.String("op", op))
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	warnIfSlow(op, start, slowQuery+time.Millisecond*time.Duration(len(tasks)))
	return tasks, nil
}

// Delete removes the task; its logs go with it through ON DELETE CASCADE.
func (s *Storage) Delete(ctx context.Context, userID, id uuid.UUID) error {
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		logger.Error("Repository: failed to delete task", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("deleting task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	warnIfSlow("delete_task", start, slowQuery)
	return nil
}

func (s *Storage) LogActivity(ctx context.Context, taskToUpdate *task.Task, log *task.Log) error {
	start := time.Now()
	version := taskToUpdate.Version

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := updateTask(ctx, tx, taskToUpdate); err != nil {
			return err
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO task_logs (`+taskLogColumns+`) VALUES ($1, $2, $3, $4)`,
			log.ID, log.TaskID, log.LoggedAt, log.DurationMinutes,
		)
		if err != nil {
			return fmt.Errorf("inserting task log: %w", err)
		}
		return nil
	})
	if err != nil {
		// the transaction rolled back, so the stored version did not move
		taskToUpdate.Version = version
		if !errors.Is(err, repo.ErrNotFound) && !errors.Is(err, repo.ErrVersionConflict) {
			logger.Error("Repository: failed to log activity", err, zap.Duration("ms", time.Since(start)))
		}
		return err
	}

	warnIfSlow("log_activity", start, slowQuery)
	return nil
}

func (s *Storage) GetLogs(ctx context.Context, taskID uuid.UUID) ([]*task.Log, error) {
	start := time.Now()
	query := `SELECT ` + taskLogColumns + ` FROM task_logs
			WHERE task_id = $1
			ORDER BY logged_at DESC`

	rows, err := s.pool.Query(ctx, query, taskID)
	if err != nil {
		logger.Error("Repository: failed to query task logs", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("querying task logs: %w", err)
	}
	defer rows.Close()

	logs := []*task.Log{}
	for rows.Next() {
		l := &task.Log{}
		if err := rows.Scan(&l.ID, &l.TaskID, &l.LoggedAt, &l.DurationMinutes); err != nil {
			return nil, fmt.Errorf("scanning task log: %w", err)
		}
		l.LoggedAt = l.LoggedAt.UTC()
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	warnIfSlow("get_task_logs", start, slowQuery)
	return logs, nil
}

func (s *Storage) CreateUser(ctx context.Context, u *user.User) error {
	start := time.Now()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.PasswordHash, u.IsActive, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: failed to insert user", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("inserting user: %w", err)
	}

	warnIfSlow("create_user", start, slowQuery)
	return nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	u := &user.User{}
	err := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`,
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&t.Type,
		&t.Impact,
		&t.Effort,
		&t.NotDoingHourlyRate,
		&t.DoingHourlyRate,
		&t.ImpactSetTo,
		&t.Deadline,
		&t.CreatedAt,
		&t.LastUpdated,
		&t.CompletedAt,
		&t.Version,
	)
	if err != nil {
		return nil, err
	}

	t.CreatedAt = t.CreatedAt.UTC()
	t.LastUpdated = t.LastUpdated.UTC()
	t.Deadline = utcPtr(t.Deadline)
	t.CompletedAt = utcPtr(t.CompletedAt)
	return t, nil
}

func utcPtr(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	u := v.UTC()
	return &u
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func warnIfSlow(op string, start time.Time, threshold time.Duration) {
	if elapsed := time.Since(start); elapsed > threshold {
		logger.Warn("Repository: slow query", zap.String("op", op), zap.Duration("ms", elapsed))
	}
}
