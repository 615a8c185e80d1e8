package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"busyness/internal/auth"
	"busyness/internal/logger"
	"busyness/internal/models/user"
	rep "busyness/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TokenIssuer interface {
	Issue(email string) (string, error)
	Parse(token string) (string, error)
}

type GoogleTokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// UserService handles registration, password and Google sign-in, and resolves
// access tokens back to users.
type UserService struct {
	repo   UserRepository
	tokens TokenIssuer
	google GoogleTokenVerifier
	now    func() time.Time
}

func NewUserService(repo UserRepository, tokens TokenIssuer, google GoogleTokenVerifier) *UserService {
	return &UserService{
		repo:   repo,
		tokens: tokens,
		google: google,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *UserService) Register(ctx context.Context, email, password string) (*user.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, NewValidationError("password", "must not be empty")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: &hash,
		IsActive:     true,
		CreatedAt:    s.now(),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, rep.ErrAlreadyExists) {
			return nil, NewBusinessError(CodeEmailTaken, "email already registered", ToDetail("email", email))
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	logger.Info("Service: user registered", zap.String("user_id", u.ID.String()))
	return u, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	invalid := NewBusinessError(CodeInvalidCredentials, "incorrect username or password")

	u, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return "", invalid
		}
		return "", fmt.Errorf("getting user: %w", err)
	}
	if !u.HasPassword() || !auth.VerifyPassword(*u.PasswordHash, password) {
		return "", invalid
	}

	return s.issue(u)
}

// GoogleLogin signs in with a Google ID token, creating a passwordless account
// on first use.
func (s *UserService) GoogleLogin(ctx context.Context, idToken string) (string, error) {
	email, err := s.google.Verify(ctx, idToken)
	if err != nil {
		if errors.Is(err, auth.ErrNoEmail) {
			return "", NewValidationError("token", "email not found in google token")
		}
		return "", NewValidationError("token", "invalid google token")
	}

	u, err := s.googleUser(ctx, email)
	if err != nil {
		return "", err
	}
	return s.issue(u)
}

// googleUser loads the account for email or creates it. When a concurrent
// first sign-in creates it in between, the stored account is used.
func (s *UserService) googleUser(ctx context.Context, email string) (*user.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, rep.ErrNotFound) {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	u = &user.User{
		ID:        uuid.New(),
		Email:     email,
		IsActive:  true,
		CreatedAt: s.now(),
	}
	err = s.repo.CreateUser(ctx, u)
	switch {
	case err == nil:
		logger.Info("Service: google user created", zap.String("user_id", u.ID.String()))
		return u, nil
	case errors.Is(err, rep.ErrAlreadyExists):
		existing, err := s.repo.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("getting user after concurrent sign-up: %w", err)
		}
		return existing, nil
	default:
		return nil, fmt.Errorf("creating google user: %w", err)
	}
}

// Authenticate resolves an access token to an active user.
func (s *UserService) Authenticate(ctx context.Context, token string) (*user.User, error) {
	unauthorized := NewBusinessError(CodeUnauthorized, "could not validate credentials")

	email, err := s.tokens.Parse(token)
	if err != nil {
		return nil, unauthorized
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, unauthorized
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	if !u.IsActive {
		return nil, unauthorized
	}
	return u, nil
}

func (s *UserService) issue(u *user.User) (string, error) {
	token, err := s.tokens.Issue(u.Email)
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}
	return token, nil
}

func normalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Name != "" {
		return "", NewValidationError("email", "must be a valid email address")
	}
	return addr.Address, nil
}
