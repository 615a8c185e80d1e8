package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"busyness/internal/middleware"
	"busyness/internal/models/user"
	"busyness/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, token string) (*user.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequestID(t *testing.T) {
	t.Run("generates id", func(t *testing.T) {
		var seen string
		handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = middleware.GetRequestID(r.Context())
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
		assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
	})

	t.Run("keeps incoming id", func(t *testing.T) {
		handler := middleware.RequestID(okHandler)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "abc")

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
	})
}

func TestLogging_PassesStatusThrough(t *testing.T) {
	handler := middleware.Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "short and stout", w.Body.String())
}

func TestRateLimit(t *testing.T) {
	handler := middleware.RateLimit(2)(okHandler)

	send := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	first := send("10.0.0.1:1234")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1235").Code)

	limited := send("10.0.0.1:1236")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Contains(t, limited.Body.String(), "rate_limit_exceeded")

	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234").Code)
}

func TestAuthenticate(t *testing.T) {
	current := &user.User{ID: uuid.New(), Email: "someone@example.com", IsActive: true}

	tests := []struct {
		name           string
		header         string
		setupMock      func(*MockAuthenticator)
		expectedStatus int
	}{
		{
			name:   "success",
			header: "Bearer good-token",
			setupMock: func(m *MockAuthenticator) {
				m.On("Authenticate", mock.Anything, "good-token").Return(current, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing header",
			header:         "",
			setupMock:      func(m *MockAuthenticator) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrong scheme",
			header:         "Basic dXNlcjpwYXNz",
			setupMock:      func(m *MockAuthenticator) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "rejected token",
			header: "Bearer bad-token",
			setupMock: func(m *MockAuthenticator) {
				m.On("Authenticate", mock.Anything, "bad-token").
					Return(nil, service.NewBusinessError(service.CodeUnauthorized, "could not validate credentials"))
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "backend failure",
			header: "Bearer good-token",
			setupMock: func(m *MockAuthenticator) {
				m.On("Authenticate", mock.Anything, "good-token").Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := new(MockAuthenticator)
			tt.setupMock(auth)

			var seen *user.User
			handler := middleware.Authenticate(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				u, found := middleware.UserFromContext(r.Context())
				require.True(t, found)
				seen = u
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, current.ID, seen.ID)
			}
			if tt.expectedStatus == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			}
			auth.AssertExpectations(t)
		})
	}
}

func TestUserFromContext_Empty(t *testing.T) {
	_, found := middleware.UserFromContext(context.Background())
	assert.False(t, found)
}
