// Package handlers contains the HTTP request handlers.
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MayankVir/alonie-backend/internal/service"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Handler is the core struct with all dependencies
type Handler struct {
	auth          service.AuthService
	users         service.UserService
	companions    service.CompanionService
	conversations service.ConversationService
	chat          service.ChatService
	identity      service.IdentityService
	webhookSecret string
	log           *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(
	auth service.AuthService,
	users service.UserService,
	companions service.CompanionService,
	conversations service.ConversationService,
	chat service.ChatService,
	identitySvc service.IdentityService,
	webhookSecret string,
	log *zap.Logger,
) *Handler {
	return &Handler{
		auth:          auth,
		users:         users,
		companions:    companions,
		conversations: conversations,
		chat:          chat,
		identity:      identitySvc,
		webhookSecret: webhookSecret,
		log:           log,
	}
}

// pagination reads ?page and ?limit with sane defaults and a cap.
func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}
