package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/MayankVir/alonie-backend/internal/models"
)

const messageCacheTTL = 24 * time.Hour

// cachedMessage is the Redis list entry shape.
type cachedMessage struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversationId"`
	UserID         uuid.UUID `json:"userId"`
	CompanionID    uuid.UUID `json:"companionId"`
	Content        string    `json:"content"`
	Sender         string    `json:"sender"`
	CreatedAt      time.Time `json:"createdAt"`
}

// MessageCache keeps the full message history of a conversation in a Redis
// list. It is a read-through cache: misses are filled from the database by
// the caller. A nil client disables every operation, matching the optional
// Redis setup.
type MessageCache struct {
	client *redis.Client
}

// NewMessageCache wraps the Redis client; client may be nil.
func NewMessageCache(client *redis.Client) *MessageCache {
	return &MessageCache{client: client}
}

// Enabled reports whether a Redis client is configured.
func (c *MessageCache) Enabled() bool {
	return c != nil && c.client != nil
}

func messageCacheKey(conversationID uuid.UUID) string {
	return fmt.Sprintf("conversation:%s:messages", conversationID)
}

// Append pushes one message onto the conversation's list and refreshes the TTL.
func (c *MessageCache) Append(ctx context.Context, msg *models.Message) error {
	if !c.Enabled() {
		return nil
	}

	entry := toCached(msg)
	msgJSON, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	key := messageCacheKey(msg.ConversationID)
	pipe := c.client.Pipeline()
	pipe.RPush(ctx, key, msgJSON)
	pipe.Expire(ctx, key, messageCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache message: %w", err)
	}
	return nil
}

// Get returns the cached history, oldest first. An empty slice means a miss.
func (c *MessageCache) Get(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	if !c.Enabled() {
		return nil, nil
	}

	raw, err := c.client.LRange(ctx, messageCacheKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read message cache: %w", err)
	}

	messages := make([]models.Message, 0, len(raw))
	for _, entry := range raw {
		var cm cachedMessage
		if err := json.Unmarshal([]byte(entry), &cm); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached message: %w", err)
		}
		messages = append(messages, fromCached(cm))
	}
	return messages, nil
}

// Fill replaces the cached list with the given history.
func (c *MessageCache) Fill(ctx context.Context, conversationID uuid.UUID, messages []models.Message) error {
	if !c.Enabled() {
		return nil
	}

	key := messageCacheKey(conversationID)
	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	for i := range messages {
		msgJSON, err := json.Marshal(toCached(&messages[i]))
		if err != nil {
			continue
		}
		pipe.RPush(ctx, key, msgJSON)
	}
	pipe.Expire(ctx, key, messageCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to fill message cache: %w", err)
	}
	return nil
}

func toCached(msg *models.Message) cachedMessage {
	return cachedMessage{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		UserID:         msg.UserID,
		CompanionID:    msg.CompanionID,
		Content:        msg.Content,
		Sender:         msg.Sender,
		CreatedAt:      msg.CreatedAt,
	}
}

func fromCached(cm cachedMessage) models.Message {
	return models.Message{
		ID:             cm.ID,
		ConversationID: cm.ConversationID,
		UserID:         cm.UserID,
		CompanionID:    cm.CompanionID,
		Content:        cm.Content,
		Sender:         cm.Sender,
		CreatedAt:      cm.CreatedAt,
	}
}
