package handlers

import (
	"net/http"

	"busyness/internal/handlers/dto"
	"busyness/internal/logger"

	"go.uber.org/zap"
)

type AuthHandler struct {
	UserService UserService
}

func NewAuthHandler(userService UserService) AuthHandler {
	return AuthHandler{
		UserService: userService,
	}
}

func (s *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.RegisterRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	u, err := s.UserService.Register(r.Context(), request.Email, request.Password)
	if err != nil {
		handleError(w, r, err, "register")
		return
	}

	logger.Info("HTTP_OUT: user registered",
		zap.String("user_id", u.ID.String()),
		zap.Int("http_status", http.StatusCreated))

	responseWithBody(w, http.StatusCreated, dto.FromUser(u))
}

func (s *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.LoginRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	token, err := s.UserService.Login(r.Context(), request.Email, request.Password)
	if err != nil {
		handleError(w, r, err, "login")
		return
	}

	responseWithBody(w, http.StatusOK, dto.BearerToken(token))
}

func (s *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.GoogleLoginRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	token, err := s.UserService.GoogleLogin(r.Context(), request.Token)
	if err != nil {
		handleError(w, r, err, "google_login")
		return
	}

	responseWithBody(w, http.StatusOK, dto.BearerToken(token))
}

func (s *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	responseWithBody(w, http.StatusOK, dto.FromUser(u))
}
