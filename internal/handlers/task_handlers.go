package handlers

import (
	"net/http"
	"time"

	"busyness/internal/handlers/dto"
	"busyness/internal/logger"
	"busyness/internal/middleware"
	"busyness/internal/models/user"

	"go.uber.org/zap"
)

const serviceName = "busyness"

type TaskHandler struct {
	TaskService Service
}

func NewTaskHandler(taskService Service) TaskHandler {
	return TaskHandler{
		TaskService: taskService,
	}
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: health check")

	if err := s.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: health check failed", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unhealthy"),
			toPayload("service", serviceName))
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("status", "healthy"),
		toPayload("service", serviceName))
}

func (s *TaskHandler) ListActiveTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	tasks, err := s.TaskService.ListActiveTasks(r.Context(), u.ID)
	if err != nil {
		handleError(w, r, err, "list_active_tasks")
		return
	}

	logger.Info("HTTP_OUT: active tasks listed",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromScoredTaskList(tasks))
}

func (s *TaskHandler) ListCompletedTasks(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	tasks, err := s.TaskService.ListCompletedTasks(r.Context(), u.ID)
	if err != nil {
		handleError(w, r, err, "list_completed_tasks")
		return
	}

	responseWithBody(w, http.StatusOK, dto.FromScoredTaskList(tasks))
}

func (s *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var request dto.CreateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	created, err := s.TaskService.CreateTask(r.Context(), u.ID, request.ToParams())
	if err != nil {
		handleError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: task created",
		zap.String("task_id", created.Task.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithBody(w, http.StatusCreated, dto.FromScoredTask(*created))
}

func (s *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	details, err := s.TaskService.GetTask(r.Context(), u.ID, id)
	if err != nil {
		handleError(w, r, err, "get_task")
		return
	}

	responseWithBody(w, http.StatusOK, dto.FromTaskDetails(details))
}

func (s *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var request dto.UpdateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	updated, err := s.TaskService.UpdateTask(r.Context(), u.ID, id, request.ToOptions()...)
	if err != nil {
		handleError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: task updated",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromScoredTask(*updated))
}

func (s *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := s.TaskService.DeleteTask(r.Context(), u.ID, id); err != nil {
		handleError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: task deleted",
		zap.String("task_id", id.String()),
		zap.Int("http_status", http.StatusNoContent))

	responseNoContent(w)
}

// CompleteTask finishes an ending task or logs a session on an endless one.
// The body is optional; duration_minutes is required only for endless tasks.
func (s *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var request dto.CompleteTaskRequest
	if !decodeOptionalJSON(w, r, &request) {
		return
	}

	completed, err := s.TaskService.CompleteTask(r.Context(), u.ID, id, request.DurationMinutes)
	if err != nil {
		handleError(w, r, err, "complete_task")
		return
	}

	logger.Info("HTTP_OUT: task completed",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromScoredTask(*completed))
}

func (s *TaskHandler) GetTaskLogs(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	logs, err := s.TaskService.GetTaskLogs(r.Context(), u.ID, id)
	if err != nil {
		handleError(w, r, err, "get_task_logs")
		return
	}

	responseWithBody(w, http.StatusOK, dto.FromLogList(logs))
}

func currentUser(w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", "Bearer")
		responseWithError(w, http.StatusUnauthorized, "not authenticated")
		return nil, false
	}
	return u, true
}
