package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"escrow-backend/internal/core/domain"
	"escrow-backend/internal/core/ports"
	"escrow-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	users    ports.UserRepository
	hashSvc  ports.HashService
	tokenSvc ports.TokenService
	audit    ports.AuditRecorder
	log      zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	users ports.UserRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	audit ports.AuditRecorder,
	log zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, hashSvc: hashSvc, tokenSvc: tokenSvc, audit: audit, log: log}
}

// Register creates a user account.
func (s *AuthServiceImpl) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperror.Validation("email is required")
	}
	if len(password) < 8 {
		return nil, apperror.Validation("password must be at least 8 characters")
	}

	hash, err := s.hashSvc.Hash(password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ports.ErrDuplicateEntry) {
			return nil, apperror.ErrEmailExists()
		}
		return nil, apperror.InternalError(fmt.Errorf("insert user: %w", err))
	}

	s.audit.Record(ctx, &user.ID, domain.AuditActionUserRegistered, "user", user.ID.String(), map[string]any{
		"email": email,
	})

	s.log.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return user, nil
}

// Login verifies credentials and issues a JWT.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	ok, err := s.hashSvc.Verify(password, user.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !ok {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiresAt, err := s.tokenSvc.Generate(user.ID, user.Email)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	s.audit.Record(ctx, &user.ID, domain.AuditActionUserLogin, "user", user.ID.String(), nil)

	return token, expiresAt, nil
}
