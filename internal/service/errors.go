package service

import (
	"errors"
	"fmt"

	"github.com/MayankVir/alonie-backend/internal/httputil"
)

// Sentinel errors the handlers translate into HTTP responses.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrCompanionNameTaken = errors.New("a companion with this name already exists")
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("forbidden")
)

// ValidationError carries field-tagged input failures.
type ValidationError struct {
	Fields []httputil.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("validation failed: %s %s", e.Fields[0].Field, e.Fields[0].Message)
	}
	return fmt.Sprintf("validation failed on %d fields", len(e.Fields))
}

// ConfigError reports a chat request for a provider with no API key
// configured. It is raised before any provider I/O happens.
type ConfigError struct {
	Provider string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("No API keys configured for provider %q. Set the provider's API key in the environment.", e.Provider)
}
