package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MayankVir/alonie-backend/internal/identity"
	"github.com/MayankVir/alonie-backend/internal/models"
	"github.com/MayankVir/alonie-backend/internal/repository"
)

// IdentityService mirrors external identity provider accounts into local
// user records: transparently on first sight of a verified token, and
// eventually-consistently through webhook events.
type IdentityService interface {
	ResolveExternal(ctx context.Context, ident *identity.Identity) (*models.User, error)
	HandleWebhook(ctx context.Context, event *identity.WebhookEvent) error
}

type identityService struct {
	users  repository.UserRepository
	seeder Seeder
	log    *zap.Logger
}

// NewIdentityService creates an IdentityService.
func NewIdentityService(users repository.UserRepository, seeder Seeder, log *zap.Logger) IdentityService {
	return &identityService{users: users, seeder: seeder, log: log}
}

// ResolveExternal returns the local user for a verified external identity,
// provisioning it on first sight. Profile sync failures on an existing user
// are logged and swallowed: a verified token is enough to proceed.
func (s *identityService) ResolveExternal(ctx context.Context, ident *identity.Identity) (*models.User, error) {
	user, err := s.users.FindByExternalID(ctx, ident.ID)
	if err == nil {
		if !user.IsActive {
			return nil, ErrNotFound
		}
		s.syncProfile(ctx, user, ident)
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return s.provision(ctx, ident)
}

func (s *identityService) provision(ctx context.Context, ident *identity.Identity) (*models.User, error) {
	externalID := ident.ID
	user := &models.User{
		Name:       displayName(ident),
		Email:      strings.ToLower(ident.Email),
		Role:       models.RoleUser,
		IsActive:   true,
		ExternalID: &externalID,
		AvatarURL:  ident.AvatarURL,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// A racing request provisioned the same identity first.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.users.FindByExternalID(ctx, externalID)
		}
		return nil, err
	}

	if err := s.seeder.SeedDefaults(ctx, user.ID); err != nil {
		s.log.Error("failed to seed default companions for external user",
			zap.String("userId", user.ID.String()), zap.Error(err))
	}
	return user, nil
}

// syncProfile mirrors fresh profile data onto an existing user. Failures
// are logged only: availability is favored over freshness of the mirror.
func (s *identityService) syncProfile(ctx context.Context, user *models.User, ident *identity.Identity) {
	changed := false
	if name := displayName(ident); name != "" && name != user.Name {
		user.Name = name
		changed = true
	}
	if email := strings.ToLower(ident.Email); email != "" && email != user.Email {
		user.Email = email
		changed = true
	}
	if ident.AvatarURL != "" && ident.AvatarURL != user.AvatarURL {
		user.AvatarURL = ident.AvatarURL
		changed = true
	}
	if !changed {
		return
	}
	if err := s.users.Update(ctx, user); err != nil {
		s.log.Warn("failed to sync external profile",
			zap.String("userId", user.ID.String()), zap.Error(err))
	}
}

// HandleWebhook applies one provider sync event to the local mirror.
func (s *identityService) HandleWebhook(ctx context.Context, event *identity.WebhookEvent) error {
	switch event.Type {
	case identity.EventUserCreated:
		_, err := s.ResolveExternal(ctx, &event.Data)
		return err

	case identity.EventUserUpdated:
		user, err := s.users.FindByExternalID(ctx, event.Data.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The mirror lags; provision instead of failing.
			_, err := s.provision(ctx, &event.Data)
			return err
		}
		if err != nil {
			return err
		}
		s.syncProfile(ctx, user, &event.Data)
		return nil

	case identity.EventUserDeleted:
		user, err := s.users.FindByExternalID(ctx, event.Data.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		user.IsActive = false
		return s.users.Update(ctx, user)

	default:
		return fmt.Errorf("unknown webhook event type %q", event.Type)
	}
}

func displayName(ident *identity.Identity) string {
	if name := ident.FullName(); name != "" {
		return name
	}
	if at := strings.IndexByte(ident.Email, '@'); at > 0 {
		return ident.Email[:at]
	}
	return "Member"
}
