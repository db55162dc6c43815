package models

import (
	"time"

	"github.com/google/uuid"
)

// Companion types. Free companions are the seeded defaults and are usable by
// any account; custom companions belong to the user who created them.
const (
	CompanionTypeFree   = "free"
	CompanionTypeCustom = "custom"
)

// Field length bounds enforced on create and update.
const (
	CompanionNameMax         = 100
	CompanionDescriptionMax  = 500
	CompanionPersonalityMax  = 1000
	CompanionInstructionsMax = 2000
	CompanionGreetingMax     = 200
	CompanionCategoryMax     = 50
)

// Companion is an AI persona owned by a user.
type Companion struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	UserID       uuid.UUID `gorm:"type:uuid;index"`
	Name         string    `gorm:"type:varchar(100)"`
	Description  string    `gorm:"type:varchar(500)"`
	Personality  string    `gorm:"type:varchar(1000)"`
	Category     string    `gorm:"type:varchar(50)"`
	AvatarURL    string
	Instructions string `gorm:"type:varchar(2000)"`
	Greeting     string `gorm:"type:varchar(200)"`
	Type         string `gorm:"type:varchar(10);default:'custom'"`
	IsActive     bool   `gorm:"default:true"`
}
