package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is the single thread between a user and a companion. The
// compound unique index on (user_id, companion_id) is what makes the lazy
// find-or-create in the chat flow safe under concurrent first messages.
type Conversation struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	UserID        uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_conversations_user_companion"`
	CompanionID   uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_conversations_user_companion"`
	Title         string
	LastMessageAt time.Time
	IsActive      bool `gorm:"default:true"`
}
