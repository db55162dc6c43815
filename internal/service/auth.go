// Package service holds the business logic between the HTTP handlers and
// the repositories.
package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/MayankVir/alonie-backend/internal/httputil"
	"github.com/MayankVir/alonie-backend/internal/models"
	"github.com/MayankVir/alonie-backend/internal/repository"
)

// MinPasswordLength defines minimum password length.
const MinPasswordLength = 6

// RegisterInput is the validated registration payload.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult bundles the account and its freshly signed token.
type AuthResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// AuthService covers password-based registration and login.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}

type authService struct {
	users  repository.UserRepository
	jwt    JWTService
	seeder Seeder
	log    *zap.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(users repository.UserRepository, jwt JWTService, seeder Seeder, log *zap.Logger) AuthService {
	return &authService{users: users, jwt: jwt, seeder: seeder, log: log}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	var fields []httputil.FieldError
	if input.Name == "" || utf8.RuneCountInString(input.Name) > 100 {
		fields = append(fields, httputil.FieldError{Field: "name", Message: "must be between 1 and 100 characters"})
	}
	if utf8.RuneCountInString(input.Password) < MinPasswordLength {
		fields = append(fields, httputil.FieldError{Field: "password", Message: "must be at least 6 characters"})
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	// Check first so the common case gets a clean error; the unique index
	// still catches a racing duplicate below.
	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	digest := string(hashed)

	user := &models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: &digest,
		Role:         models.RoleUser,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	// Default companions; a failure here should not fail the registration.
	if err := s.seeder.SeedDefaults(ctx, user.ID); err != nil {
		s.log.Error("failed to seed default companions", zap.String("userId", user.ID.String()), zap.Error(err))
	}

	token, expiresAt, err := s.jwt.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Login verifies the password digest. Unknown email, wrong password and
// external-only accounts all return the same ErrInvalidCredentials so the
// response leaks nothing about which check failed.
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive || user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		s.log.Info("failed login attempt", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.jwt.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
