package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MayankVir/alonie-backend/internal/httputil"
	"github.com/MayankVir/alonie-backend/internal/llm"
	"github.com/MayankVir/alonie-backend/internal/models"
	"github.com/MayankVir/alonie-backend/internal/repository"
)

// Bounds on a single chat turn.
const (
	ChatMessageMax = 1000
	// historyLimit caps how many prior turns from the client are forwarded
	// to the provider.
	historyLimit = 10
)

// ExchangeInput is one chat turn from the caller.
type ExchangeInput struct {
	CompanionID uuid.UUID
	Message     string
	Model       string // provider name; empty selects OpenAI
	History     []llm.Message
}

// ExchangeMetadata carries the provider accounting returned to the caller.
type ExchangeMetadata struct {
	Model        string    `json:"model"`
	FinishReason string    `json:"finishReason"`
	Usage        llm.Usage `json:"usage"`
}

// ExchangeResult is the outcome of a successful exchange: both persisted
// turns plus provider metadata.
type ExchangeResult struct {
	Response       string
	UserMessage    *models.Message
	AIMessage      *models.Message
	ConversationID uuid.UUID
	Metadata       ExchangeMetadata
}

// ChatService runs the message exchange flow: resolve the companion,
// find-or-create the conversation, persist the user's turn, obtain the
// companion's reply from the selected provider and persist it.
type ChatService interface {
	Exchange(ctx context.Context, userID uuid.UUID, input ExchangeInput) (*ExchangeResult, error)
}

type chatService struct {
	companions    repository.CompanionRepository
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	cache         *repository.MessageCache
	providers     map[string]llm.Provider
	log           *zap.Logger
}

// NewChatService creates a ChatService. The providers map holds one entry
// per provider with a configured API key; a selector that misses the map is
// a configuration error, reported without contacting anything.
func NewChatService(
	companions repository.CompanionRepository,
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	cache *repository.MessageCache,
	providers map[string]llm.Provider,
	log *zap.Logger,
) ChatService {
	return &chatService{
		companions:    companions,
		conversations: conversations,
		messages:      messages,
		cache:         cache,
		providers:     providers,
		log:           log,
	}
}

func (s *chatService) Exchange(ctx context.Context, userID uuid.UUID, input ExchangeInput) (*ExchangeResult, error) {
	input.Message = strings.TrimSpace(input.Message)
	// Bounds are in characters, not bytes.
	if input.Message == "" || utf8.RuneCountInString(input.Message) > ChatMessageMax {
		return nil, &ValidationError{Fields: []httputil.FieldError{
			{Field: "message", Message: "must be between 1 and 1000 characters"},
		}}
	}

	providerName := input.Model
	if providerName == "" {
		providerName = llm.ProviderOpenAI
	}
	if providerName != llm.ProviderOpenAI && providerName != llm.ProviderGemini {
		return nil, &ValidationError{Fields: []httputil.FieldError{
			{Field: "model", Message: fmt.Sprintf("must be %q or %q", llm.ProviderOpenAI, llm.ProviderGemini)},
		}}
	}

	// History roles are forwarded to the provider verbatim, so an unknown
	// role is rejected here rather than surfacing as a provider failure.
	for _, entry := range input.History {
		switch entry.Role {
		case "user", "assistant", "system":
		default:
			return nil, &ValidationError{Fields: []httputil.FieldError{
				{Field: "conversationHistory", Message: `role must be "user", "assistant" or "system"`},
			}}
		}
	}

	companion, err := s.resolveCompanion(ctx, userID, input.CompanionID)
	if err != nil {
		return nil, err
	}

	conversation, err := s.findOrCreateConversation(ctx, userID, companion)
	if err != nil {
		return nil, err
	}

	// Persist the user's turn before any provider I/O so the input is never
	// lost, whatever happens next.
	userMessage := &models.Message{
		ConversationID: conversation.ID,
		UserID:         userID,
		CompanionID:    companion.ID,
		Content:        input.Message,
		Sender:         models.SenderUser,
	}
	if err := s.messages.Create(ctx, userMessage); err != nil {
		return nil, err
	}
	if err := s.cache.Append(ctx, userMessage); err != nil {
		s.log.Warn("failed to cache user message", zap.Error(err))
	}

	provider, ok := s.providers[providerName]
	if !ok {
		return nil, &ConfigError{Provider: providerName}
	}

	reply, err := provider.GenerateReply(ctx, buildPrompt(companion, input.History, input.Message))
	if err != nil {
		s.log.Error("provider call failed",
			zap.String("provider", providerName),
			zap.String("conversationId", conversation.ID.String()),
			zap.Error(err))
		return nil, err
	}

	aiMessage := &models.Message{
		ConversationID: conversation.ID,
		UserID:         userID,
		CompanionID:    companion.ID,
		Content:        reply.Content,
		Sender:         models.SenderCompanion,
	}
	if err := s.messages.Create(ctx, aiMessage); err != nil {
		return nil, err
	}
	if err := s.cache.Append(ctx, aiMessage); err != nil {
		s.log.Warn("failed to cache companion message", zap.Error(err))
	}

	if err := s.conversations.Touch(ctx, conversation.ID, time.Now()); err != nil {
		s.log.Warn("failed to bump conversation timestamp",
			zap.String("conversationId", conversation.ID.String()), zap.Error(err))
	}

	return &ExchangeResult{
		Response:       reply.Content,
		UserMessage:    userMessage,
		AIMessage:      aiMessage,
		ConversationID: conversation.ID,
		Metadata: ExchangeMetadata{
			Model:        reply.Model,
			FinishReason: reply.FinishReason,
			Usage:        reply.Usage,
		},
	}, nil
}

// resolveCompanion allows active companions that are either owned by the
// caller or seeded free defaults; everything else is a NotFound.
func (s *chatService) resolveCompanion(ctx context.Context, userID, companionID uuid.UUID) (*models.Companion, error) {
	companion, err := s.companions.FindByID(ctx, companionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !companion.IsActive {
		return nil, ErrNotFound
	}
	if companion.UserID != userID && companion.Type != models.CompanionTypeFree {
		return nil, ErrNotFound
	}
	return companion, nil
}

// findOrCreateConversation relies on the store's compound unique index on
// (user_id, companion_id) rather than check-then-insert: when two first
// messages race, the losing insert fails with a duplicate key and the row
// the winner created is re-read.
func (s *chatService) findOrCreateConversation(ctx context.Context, userID uuid.UUID, companion *models.Companion) (*models.Conversation, error) {
	conversation, err := s.conversations.FindByUserAndCompanion(ctx, userID, companion.ID)
	if err == nil {
		return conversation, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	conversation = &models.Conversation{
		UserID:        userID,
		CompanionID:   companion.ID,
		Title:         "Chat with " + companion.Name,
		LastMessageAt: time.Now(),
		IsActive:      true,
	}
	err = s.conversations.Create(ctx, conversation)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return s.conversations.FindByUserAndCompanion(ctx, userID, companion.ID)
	}
	if err != nil {
		return nil, err
	}
	return conversation, nil
}

// buildPrompt assembles the provider message sequence: the companion's
// system prompt, at most the last historyLimit prior turns, then the new
// user message.
func buildPrompt(companion *models.Companion, history []llm.Message, userMessage string) []llm.Message {
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: buildSystemPrompt(companion)})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: userMessage})
	return messages
}

func buildSystemPrompt(companion *models.Companion) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, an AI companion in the %s category.\n", companion.Name, companion.Category)
	fmt.Fprintf(&sb, "Personality: %s\n", companion.Personality)
	fmt.Fprintf(&sb, "Description: %s\n", companion.Description)
	if companion.Instructions != "" {
		fmt.Fprintf(&sb, "Additional instructions: %s\n", companion.Instructions)
	}
	sb.WriteString("Stay in character and keep responses conversational.")
	return sb.String()
}
