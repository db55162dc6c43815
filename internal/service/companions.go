package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MayankVir/alonie-backend/internal/httputil"
	"github.com/MayankVir/alonie-backend/internal/models"
	"github.com/MayankVir/alonie-backend/internal/repository"
)

// CompanionInput is the create payload. Pointer fields on CompanionUpdate
// distinguish "not provided" from "set to empty".
type CompanionInput struct {
	Name         string
	Description  string
	Personality  string
	Category     string
	AvatarURL    string
	Instructions string
	Greeting     string
}

// CompanionUpdate is the partial update payload.
type CompanionUpdate struct {
	Name         *string
	Description  *string
	Personality  *string
	Category     *string
	AvatarURL    *string
	Instructions *string
	Greeting     *string
}

// CompanionService covers the ownership-scoped companion CRUD.
type CompanionService interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Companion, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Companion, error)
	Create(ctx context.Context, userID uuid.UUID, input CompanionInput) (*models.Companion, error)
	Update(ctx context.Context, userID, id uuid.UUID, update CompanionUpdate) (*models.Companion, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type companionService struct {
	companions repository.CompanionRepository
}

// NewCompanionService creates a CompanionService.
func NewCompanionService(companions repository.CompanionRepository) CompanionService {
	return &companionService{companions: companions}
}

func (s *companionService) List(ctx context.Context, userID uuid.UUID) ([]models.Companion, error) {
	return s.companions.ListActiveByUser(ctx, userID)
}

// Get returns the companion only when it is active and owned by the caller;
// anything else is a NotFound so ownership is never revealed.
func (s *companionService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Companion, error) {
	companion, err := s.companions.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !companion.IsActive || companion.UserID != userID {
		return nil, ErrNotFound
	}
	return companion, nil
}

func (s *companionService) Create(ctx context.Context, userID uuid.UUID, input CompanionInput) (*models.Companion, error) {
	input.Name = strings.TrimSpace(input.Name)

	fields := validateCompanionFields(input.Name, input.Description, input.Personality,
		input.Category, input.AvatarURL, input.Instructions, input.Greeting, true)
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	taken, err := s.companions.ActiveNameExists(ctx, userID, input.Name, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrCompanionNameTaken
	}

	companion := &models.Companion{
		UserID:       userID,
		Name:         input.Name,
		Description:  input.Description,
		Personality:  input.Personality,
		Category:     input.Category,
		AvatarURL:    input.AvatarURL,
		Instructions: input.Instructions,
		Greeting:     input.Greeting,
		Type:         models.CompanionTypeCustom,
		IsActive:     true,
	}
	if err := s.companions.Create(ctx, companion); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCompanionNameTaken
		}
		return nil, err
	}
	return companion, nil
}

func (s *companionService) Update(ctx context.Context, userID, id uuid.UUID, update CompanionUpdate) (*models.Companion, error) {
	companion, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	// Validate only the provided fields.
	var fields []httputil.FieldError
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" || utf8.RuneCountInString(name) > models.CompanionNameMax {
			fields = append(fields, httputil.FieldError{Field: "name", Message: "must be between 1 and 100 characters"})
		}
		*update.Name = name
	}
	if update.Description != nil && utf8.RuneCountInString(*update.Description) > models.CompanionDescriptionMax {
		fields = append(fields, httputil.FieldError{Field: "description", Message: "must be at most 500 characters"})
	}
	if update.Personality != nil && utf8.RuneCountInString(*update.Personality) > models.CompanionPersonalityMax {
		fields = append(fields, httputil.FieldError{Field: "personality", Message: "must be at most 1000 characters"})
	}
	if update.Category != nil && utf8.RuneCountInString(*update.Category) > models.CompanionCategoryMax {
		fields = append(fields, httputil.FieldError{Field: "category", Message: "must be at most 50 characters"})
	}
	if update.AvatarURL != nil && *update.AvatarURL != "" && !isValidURL(*update.AvatarURL) {
		fields = append(fields, httputil.FieldError{Field: "avatarUrl", Message: "must be a valid URL"})
	}
	if update.Instructions != nil && utf8.RuneCountInString(*update.Instructions) > models.CompanionInstructionsMax {
		fields = append(fields, httputil.FieldError{Field: "instructions", Message: "must be at most 2000 characters"})
	}
	if update.Greeting != nil && utf8.RuneCountInString(*update.Greeting) > models.CompanionGreetingMax {
		fields = append(fields, httputil.FieldError{Field: "greeting", Message: "must be at most 200 characters"})
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if update.Name != nil && *update.Name != companion.Name {
		taken, err := s.companions.ActiveNameExists(ctx, userID, *update.Name, companion.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrCompanionNameTaken
		}
		companion.Name = *update.Name
	}
	if update.Description != nil {
		companion.Description = *update.Description
	}
	if update.Personality != nil {
		companion.Personality = *update.Personality
	}
	if update.Category != nil {
		companion.Category = *update.Category
	}
	if update.AvatarURL != nil {
		companion.AvatarURL = *update.AvatarURL
	}
	if update.Instructions != nil {
		companion.Instructions = *update.Instructions
	}
	if update.Greeting != nil {
		companion.Greeting = *update.Greeting
	}

	if err := s.companions.Update(ctx, companion); err != nil {
		return nil, err
	}
	return companion, nil
}

// Delete is soft: history stays retrievable by conversation id.
func (s *companionService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	companion, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	companion.IsActive = false
	return s.companions.Update(ctx, companion)
}

// validateCompanionFields checks the character bounds, counted in runes.
func validateCompanionFields(name, description, personality, category, avatarURL, instructions, greeting string, required bool) []httputil.FieldError {
	var fields []httputil.FieldError

	if name == "" || utf8.RuneCountInString(name) > models.CompanionNameMax {
		fields = append(fields, httputil.FieldError{Field: "name", Message: "must be between 1 and 100 characters"})
	}
	if required && description == "" || utf8.RuneCountInString(description) > models.CompanionDescriptionMax {
		fields = append(fields, httputil.FieldError{Field: "description", Message: "is required and must be at most 500 characters"})
	}
	if required && personality == "" || utf8.RuneCountInString(personality) > models.CompanionPersonalityMax {
		fields = append(fields, httputil.FieldError{Field: "personality", Message: "is required and must be at most 1000 characters"})
	}
	if required && category == "" || utf8.RuneCountInString(category) > models.CompanionCategoryMax {
		fields = append(fields, httputil.FieldError{Field: "category", Message: "is required and must be at most 50 characters"})
	}
	if avatarURL != "" && !isValidURL(avatarURL) {
		fields = append(fields, httputil.FieldError{Field: "avatarUrl", Message: "must be a valid URL"})
	}
	if utf8.RuneCountInString(instructions) > models.CompanionInstructionsMax {
		fields = append(fields, httputil.FieldError{Field: "instructions", Message: "must be at most 2000 characters"})
	}
	if utf8.RuneCountInString(greeting) > models.CompanionGreetingMax {
		fields = append(fields, httputil.FieldError{Field: "greeting", Message: "must be at most 200 characters"})
	}
	return fields
}

func isValidURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
