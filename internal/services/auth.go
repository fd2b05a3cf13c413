package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"bmasia/internal/domain"
	"bmasia/internal/metrics"
	"bmasia/internal/util"
	apperrors "bmasia/pkg/errors"
)

// UserStore loads staff accounts
type UserStore interface {
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	RecordLogin(ctx context.Context, user *domain.User, at time.Time) error
}

// LoginResult is returned on a successful login
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthService implements staff login and token checks for the lead review endpoints
type AuthService struct {
	users  UserStore
	tokens *util.TokenIssuer
	now    func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, tokens *util.TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens, now: time.Now}
}

// Login checks staff credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	// Trim whitespace from credentials
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	log.Printf("[AUTH] Login attempt for user: %s", username)

	if username == "" || password == "" {
		metrics.RecordAuthAttempt(false)
		return nil, NewBadRequestError("Username and password are required")
	}

	user, err := s.users.FindUserByUsername(ctx, username)
	if err != nil {
		metrics.RecordAuthAttempt(false)
		if apperrors.IsNotFound(err) {
			log.Printf("[AUTH] Login failed: user '%s' not found", username)
			return nil, NewUnauthorizedError("Incorrect username or password")
		}
		log.Printf("[AUTH] Login failed: database error for user '%s': %v", username, err)
		return nil, storeError(err)
	}

	if !util.CheckPasswordHash(password, user.HashedPassword) {
		log.Printf("[AUTH] Login failed: invalid password for user '%s'", username)
		metrics.RecordAuthAttempt(false)
		return nil, NewUnauthorizedError("Incorrect username or password")
	}

	if !user.IsActive {
		log.Printf("[AUTH] Login failed: user '%s' is inactive", username)
		metrics.RecordAuthAttempt(false)
		return nil, NewUnauthorizedError("User account is inactive")
	}

	if err := s.users.RecordLogin(ctx, user, s.now()); err != nil {
		log.Printf("[AUTH] Warning: failed to record last login for '%s': %v", username, err)
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		log.Printf("[AUTH] Login failed: token generation error for user '%s': %v", username, err)
		return nil, NewInternalError("Internal server error", fmt.Errorf("failed to generate token: %w", err))
	}

	log.Printf("[AUTH] Login successful for user '%s' (id=%d, admin=%v, staff=%v)", username, user.ID, user.IsAdmin, user.IsStaff)
	metrics.RecordAuthAttempt(true)

	return &LoginResult{AccessToken: token, TokenType: "bearer"}, nil
}

// Authenticate resolves a bearer token to a user allowed to review leads
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		if errors.Is(err, util.ErrExpiredToken) {
			return nil, NewUnauthorizedError("Token expired")
		}
		return nil, NewUnauthorizedError("Invalid or expired token")
	}

	user, err := s.users.FindUserByUsername(ctx, claims.Username)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, NewUnauthorizedError("User not found")
		}
		return nil, storeError(err)
	}

	if !user.IsActive {
		return nil, NewUnauthorizedError("User account is inactive")
	}
	if !user.CanReviewLeads() {
		return nil, NewUnauthorizedError("Insufficient permissions")
	}

	return user, nil
}

type userContextKey struct{}

// ContextWithUser returns a copy of ctx carrying the authenticated user
func ContextWithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the authenticated user, if any
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*domain.User)
	return user, ok && user != nil
}

func storeError(err error) error {
	if apperrors.IsUnavailable(err) {
		return NewUnavailableError("Database connection error. Please try again later.", err)
	}
	return NewInternalError("Internal server error", err)
}
