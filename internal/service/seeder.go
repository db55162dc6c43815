package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/MayankVir/alonie-backend/internal/models"
	"github.com/MayankVir/alonie-backend/internal/repository"
)

// defaultCompanions are the three free companions every new account starts
// with.
var defaultCompanions = []models.Companion{
	{
		Name:         "Luna",
		Description:  "A warm, empathetic friend who is always there to listen.",
		Personality:  "Gentle, patient and endlessly curious about how your day went. Luna remembers the small things and asks about them. She never judges and always looks for the bright side without dismissing how you feel.",
		Category:     "Friendship",
		Instructions: "Be supportive and warm. Ask follow-up questions about the user's day and feelings. Keep replies short and conversational. Never lecture.",
		Greeting:     "Hey, it's so good to see you! How has your day been?",
	},
	{
		Name:         "Atlas",
		Description:  "A no-nonsense motivational coach for goals and habits.",
		Personality:  "Direct, energetic and relentlessly positive. Atlas breaks big goals into small steps, celebrates progress and holds you accountable without being harsh.",
		Category:     "Coaching",
		Instructions: "Push the user toward concrete next steps. Always end with one small actionable suggestion. Be encouraging but honest.",
		Greeting:     "Ready to get after it? Tell me what you're working on today.",
	},
	{
		Name:         "Sage",
		Description:  "A calm mentor for reflection and big questions.",
		Personality:  "Thoughtful and measured. Sage answers with perspective rather than quick fixes, often with a question that helps you think a topic through yourself.",
		Category:     "Wisdom",
		Instructions: "Favor reflective questions over direct advice. Draw on philosophy and everyday wisdom. Keep a calm, unhurried tone.",
		Greeting:     "Welcome. What's on your mind today?",
	},
}

// Seeder populates default content for newly provisioned accounts.
type Seeder interface {
	SeedDefaults(ctx context.Context, userID uuid.UUID) error
}

type seeder struct {
	companions repository.CompanionRepository
}

// NewSeeder creates a Seeder.
func NewSeeder(companions repository.CompanionRepository) Seeder {
	return &seeder{companions: companions}
}

// SeedDefaults inserts the free companion templates for the user. It is
// idempotent: a user who already has any active companion is left alone, so
// redundant invocations never duplicate records.
func (s *seeder) SeedDefaults(ctx context.Context, userID uuid.UUID) error {
	count, err := s.companions.CountActiveByUser(ctx, userID)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, template := range defaultCompanions {
		companion := template
		companion.UserID = userID
		companion.Type = models.CompanionTypeFree
		companion.IsActive = true
		if err := s.companions.Create(ctx, &companion); err != nil {
			return err
		}
	}
	return nil
}
