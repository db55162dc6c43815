package models

import (
	"time"

	"github.com/google/uuid"
)

// Message senders.
const (
	SenderUser      = "user"
	SenderCompanion = "companion"
)

// MessageContentMax bounds the content of a single turn.
const MessageContentMax = 2000

// Message is one turn in a conversation. Messages are immutable once written.
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt      time.Time
	ConversationID uuid.UUID `gorm:"type:uuid;index"`
	UserID         uuid.UUID `gorm:"type:uuid"`
	CompanionID    uuid.UUID `gorm:"type:uuid"`
	Content        string    `gorm:"type:varchar(2000)"`
	Sender         string    `gorm:"type:varchar(10);check:sender IN ('user', 'companion')"`
}
