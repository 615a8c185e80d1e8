package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"busyness/internal/logger"
	"busyness/internal/models/user"
	"busyness/internal/service"

	"go.uber.org/zap"
)

const userKey contextKey = "user"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*user.User, error)
}

// Authenticate requires a bearer token and stores the resolved user in the
// request context.
func Authenticate(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, r, "missing bearer token")
				return
			}

			u, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if service.IsCode(err, service.CodeUnauthorized) {
					unauthorized(w, r, "could not validate credentials")
					return
				}

				logger.Error("HTTP: authentication failed", err,
					zap.String("request_id", GetRequestID(r.Context())))
				writeJSON(w, http.StatusInternalServerError, map[string]any{
					"error":      "internal server error",
					"request_id": GetRequestID(r.Context()),
				})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(userKey).(*user.User)
	return u, ok && u != nil
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	logger.Warn("HTTP: unauthorized request",
		zap.String("path", r.URL.Path),
		zap.String("client_ip", r.RemoteAddr),
		zap.String("reason", message))

	w.Header().Set("WWW-Authenticate", "Bearer")
	writeJSON(w, http.StatusUnauthorized, map[string]any{
		"error":      service.CodeUnauthorized,
		"message":    message,
		"request_id": GetRequestID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
