package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/MayankVir/alonie-backend/internal/config"
	"github.com/MayankVir/alonie-backend/internal/models"
)

// InitDB opens the PostgreSQL connection and migrates the schema.
// TranslateError turns driver duplicate-key failures into
// gorm.ErrDuplicatedKey so the services can map them to conflict responses.
func InitDB(config *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(config.GetDSN()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// auto migrate schema
	if err := db.AutoMigrate(
		&models.User{},
		&models.Companion{},
		&models.Conversation{},
		&models.Message{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}
