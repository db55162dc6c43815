package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MayankVir/alonie-backend/internal/models"
	"github.com/MayankVir/alonie-backend/internal/repository"
)

// CompanionSummary is the slice of companion data embedded in a
// conversation listing.
type CompanionSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
}

// ConversationSummary is one row of the conversation list, enriched with
// the companion and the most recent message.
type ConversationSummary struct {
	ID            uuid.UUID        `json:"id"`
	Title         string           `json:"title"`
	Companion     CompanionSummary `json:"companion"`
	LastMessage   string           `json:"lastMessage"`
	LastSender    string           `json:"lastSender,omitempty"`
	LastMessageAt time.Time        `json:"lastMessageAt"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// ConversationService lists conversations and reads message history.
// Conversations are never created here: the chat exchange creates them
// lazily on the first message.
type ConversationService interface {
	List(ctx context.Context, userID uuid.UUID, page, limit int) ([]ConversationSummary, int64, error)
	Messages(ctx context.Context, userID, companionID uuid.UUID, page, limit int) ([]models.Message, int64, error)
}

type conversationService struct {
	conversations repository.ConversationRepository
	companions    repository.CompanionRepository
	messages      repository.MessageRepository
	cache         *repository.MessageCache
	log           *zap.Logger
}

// NewConversationService creates a ConversationService.
func NewConversationService(
	conversations repository.ConversationRepository,
	companions repository.CompanionRepository,
	messages repository.MessageRepository,
	cache *repository.MessageCache,
	log *zap.Logger,
) ConversationService {
	return &conversationService{
		conversations: conversations,
		companions:    companions,
		messages:      messages,
		cache:         cache,
		log:           log,
	}
}

func (s *conversationService) List(ctx context.Context, userID uuid.UUID, page, limit int) ([]ConversationSummary, int64, error) {
	offset := pageOffset(page, limit)

	conversations, err := s.conversations.ListActiveByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.conversations.CountActiveByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	summaries := make([]ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		companion, err := s.companions.FindByID(ctx, conv.CompanionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, 0, err
		}

		summary := ConversationSummary{
			ID:            conv.ID,
			Title:         conv.Title,
			LastMessageAt: conv.LastMessageAt,
			CreatedAt:     conv.CreatedAt,
			Companion: CompanionSummary{
				ID:        companion.ID,
				Name:      companion.Name,
				Category:  companion.Category,
				AvatarURL: companion.AvatarURL,
			},
		}

		last, err := s.messages.LastByConversation(ctx, conv.ID)
		if err != nil {
			return nil, 0, err
		}
		if last != nil {
			summary.LastMessage = last.Content
			summary.LastSender = last.Sender
		} else {
			// No message yet: show the companion's greeting instead.
			summary.LastMessage = companion.Greeting
		}

		summaries = append(summaries, summary)
	}

	return summaries, total, nil
}

// Messages returns the caller's history with the companion, chronological.
// A companion the caller has no conversation with yields an empty page. The
// Redis list is consulted first; on a miss the page comes from the database
// and, when it spans the whole history, backfills the cache.
func (s *conversationService) Messages(ctx context.Context, userID, companionID uuid.UUID, page, limit int) ([]models.Message, int64, error) {
	conv, err := s.conversations.FindByUserAndCompanion(ctx, userID, companionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []models.Message{}, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	offset := pageOffset(page, limit)

	cached, err := s.cache.Get(ctx, conv.ID)
	if err != nil {
		s.log.Warn("failed to read message cache",
			zap.String("conversationId", conv.ID.String()), zap.Error(err))
	}
	if len(cached) > 0 {
		return pageOf(cached, offset, limit), int64(len(cached)), nil
	}

	messages, err := s.messages.ListByConversation(ctx, conv.ID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.messages.CountByConversation(ctx, conv.ID)
	if err != nil {
		return nil, 0, err
	}

	// Only a page that covers the full history may fill the list; a partial
	// fill would serve short histories to later readers.
	if offset == 0 && int64(len(messages)) == total && total > 0 {
		if err := s.cache.Fill(ctx, conv.ID, messages); err != nil {
			s.log.Warn("failed to fill message cache",
				zap.String("conversationId", conv.ID.String()), zap.Error(err))
		}
	}
	return messages, total, nil
}

func pageOf(messages []models.Message, offset, limit int) []models.Message {
	if offset >= len(messages) {
		return []models.Message{}
	}
	end := offset + limit
	if end > len(messages) {
		end = len(messages)
	}
	return messages[offset:end]
}

func pageOffset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
