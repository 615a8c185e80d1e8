package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"busyness/internal/app"
	"busyness/internal/config"
	"busyness/internal/handlers/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct {
	t      *testing.T
	server *httptest.Server
	token  string
}

func (c *client) do(method, path string, body any) *http.Response {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.server.URL+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func newTestApp(t *testing.T) *client {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:            "0",
			RequestTimeout:  5 * time.Second,
			ShutdownTimeout: time.Second,
		},
		Repository: config.RepositoryConfig{Type: config.RepositoryInMemory},
		Auth:       config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour},
		App:        config.AppConfig{URL: "http://localhost:5173"},
		RateLimit:  config.RateLimitConfig{RequestsPerMinute: 1000},
	}
	require.NoError(t, cfg.Validate())

	a := app.New(cfg)
	require.NoError(t, a.Init(context.Background()))
	t.Cleanup(a.Shutdown)

	server := httptest.NewServer(a.Handler())
	t.Cleanup(server.Close)

	return &client{t: t, server: server}
}

func TestApp_TaskLifecycle(t *testing.T) {
	c := newTestApp(t)

	resp := c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = c.do(http.MethodPost, "/api/auth/register", dto.RegisterRequest{Email: "someone@example.com", Password: "secret"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = c.do(http.MethodPost, "/api/auth/register", dto.RegisterRequest{Email: "someone@example.com", Password: "other"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = c.do(http.MethodPost, "/api/auth/login", dto.LoginRequest{Email: "someone@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = c.do(http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = c.do(http.MethodPost, "/api/auth/login", dto.LoginRequest{Email: "someone@example.com", Password: "secret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c.token = decode[dto.TokenResponse](t, resp).AccessToken
	require.NotEmpty(t, c.token)

	me := decode[dto.UserResponse](t, c.do(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, "someone@example.com", me.Email)

	effort := 2.0
	resp = c.do(http.MethodPost, "/api/tasks", dto.CreateTaskRequest{Title: "Write report", Effort: &effort})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	report := decode[dto.TaskResponse](t, resp)
	assert.InDelta(t, 2.5, report.PriorityScore, 1e-9)

	impact := 8.0
	resp = c.do(http.MethodPost, "/api/tasks", dto.CreateTaskRequest{Title: "Exercise", TaskType: "endless", Impact: &impact})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	exercise := decode[dto.TaskResponse](t, resp)
	require.NotNil(t, exercise.DoingHourlyRate)
	assert.InDelta(t, 0.1, *exercise.DoingHourlyRate, 1e-9)

	resp = c.do(http.MethodPost, "/api/tasks", dto.CreateTaskRequest{Title: ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	active := decode[[]dto.TaskResponse](t, c.do(http.MethodGet, "/api/tasks", nil))
	require.Len(t, active, 2)
	assert.Equal(t, exercise.ID, active[0].ID)
	assert.Equal(t, report.ID, active[1].ID)

	duration := 60
	resp = c.do(http.MethodPost, "/api/tasks/"+exercise.ID.String()+"/complete", dto.CompleteTaskRequest{DurationMinutes: &duration})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	logged := decode[dto.TaskResponse](t, resp)
	assert.InDelta(t, 7.9, logged.Impact, 0.01)
	assert.Nil(t, logged.CompletedAt)

	resp = c.do(http.MethodPost, "/api/tasks/"+exercise.ID.String()+"/complete", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	logs := decode[[]dto.LogResponse](t, c.do(http.MethodGet, "/api/tasks/"+exercise.ID.String()+"/logs", nil))
	require.Len(t, logs, 1)
	assert.Equal(t, 60, logs[0].DurationMinutes)

	details := decode[dto.TaskWithLogsResponse](t, c.do(http.MethodGet, "/api/tasks/"+exercise.ID.String(), nil))
	assert.Len(t, details.Logs, 1)

	title := "Write the report"
	resp = c.do(http.MethodPut, "/api/tasks/"+report.ID.String(), dto.UpdateTaskRequest{Title: &title})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, title, decode[dto.TaskResponse](t, resp).Title)

	resp = c.do(http.MethodPost, "/api/tasks/"+report.ID.String()+"/complete", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, decode[dto.TaskResponse](t, resp).CompletedAt)

	resp = c.do(http.MethodPost, "/api/tasks/"+report.ID.String()+"/complete", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	completed := decode[[]dto.TaskResponse](t, c.do(http.MethodGet, "/api/tasks/completed", nil))
	require.Len(t, completed, 1)
	assert.Equal(t, report.ID, completed[0].ID)

	resp = c.do(http.MethodDelete, "/api/tasks/"+exercise.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = c.do(http.MethodGet, "/api/tasks/"+exercise.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestApp_TasksAreScopedToOwner(t *testing.T) {
	c := newTestApp(t)

	login := func(email string) string {
		resp := c.do(http.MethodPost, "/api/auth/register", dto.RegisterRequest{Email: email, Password: "secret"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp = c.do(http.MethodPost, "/api/auth/login", dto.LoginRequest{Email: email, Password: "secret"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decode[dto.TokenResponse](t, resp).AccessToken
	}

	alice := login("alice@example.com")
	bob := login("bob@example.com")

	c.token = alice
	resp := c.do(http.MethodPost, "/api/tasks", dto.CreateTaskRequest{Title: "Private"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	private := decode[dto.TaskResponse](t, resp)

	c.token = bob
	resp = c.do(http.MethodGet, "/api/tasks/"+private.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = c.do(http.MethodDelete, "/api/tasks/"+private.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	assert.Empty(t, decode[[]dto.TaskResponse](t, c.do(http.MethodGet, "/api/tasks", nil)))
}

func TestApp_UpdateClearsNullableFields(t *testing.T) {
	c := newTestApp(t)

	resp := c.do(http.MethodPost, "/api/auth/register", dto.RegisterRequest{Email: "someone@example.com", Password: "secret"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = c.do(http.MethodPost, "/api/auth/login", dto.LoginRequest{Email: "someone@example.com", Password: "secret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c.token = decode[dto.TokenResponse](t, resp).AccessToken

	impact, setTo := 8.0, 3.0
	deadline := time.Now().UTC().Add(48 * time.Hour)
	resp = c.do(http.MethodPost, "/api/tasks", dto.CreateTaskRequest{
		Title:       "Exercise",
		TaskType:    "endless",
		Impact:      &impact,
		ImpactSetTo: &setTo,
		Deadline:    &deadline,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	exercise := decode[dto.TaskResponse](t, resp)
	require.NotNil(t, exercise.ImpactSetTo)
	require.NotNil(t, exercise.Deadline)

	resp = c.do(http.MethodPut, "/api/tasks/"+exercise.ID.String(), map[string]any{
		"doing_hourly_rate": 1,
		"impact_set_to":     nil,
		"deadline":          nil,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	edited := decode[dto.TaskResponse](t, resp)
	assert.Nil(t, edited.ImpactSetTo)
	assert.Nil(t, edited.Deadline)
	require.NotNil(t, edited.DoingHourlyRate)
	assert.Equal(t, 1.0, *edited.DoingHourlyRate)

	duration := 60
	resp = c.do(http.MethodPost, "/api/tasks/"+exercise.ID.String()+"/complete", dto.CompleteTaskRequest{DurationMinutes: &duration})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 7.0, decode[dto.TaskResponse](t, resp).Impact, 0.01)

	resp = c.do(http.MethodPut, "/api/tasks/"+exercise.ID.String(), dto.UpdateTaskRequest{
		DoingHourlyRate: dto.Null[float64](),
		ImpactSetTo:     dto.Some(2.0),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	edited = decode[dto.TaskResponse](t, resp)
	assert.Nil(t, edited.DoingHourlyRate)
	require.NotNil(t, edited.ImpactSetTo)
	assert.Equal(t, 2.0, *edited.ImpactSetTo)
}

func TestApp_CORSPreflight(t *testing.T) {
	c := newTestApp(t)

	req, err := http.NewRequest(http.MethodOptions, c.server.URL+"/api/tasks", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")

	resp, err := c.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}
