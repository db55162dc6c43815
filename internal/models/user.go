package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account. PasswordHash is nil for accounts provisioned
// through the external identity provider; ExternalID is nil for local accounts.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Name         string `gorm:"type:varchar(100)"`
	Email        string `gorm:"uniqueIndex"`
	PasswordHash *string
	Role         string  `gorm:"type:varchar(10);default:'user'"`
	IsActive     bool    `gorm:"default:true"`
	ExternalID   *string `gorm:"uniqueIndex"`
	Bio          string
	AvatarURL    string
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
