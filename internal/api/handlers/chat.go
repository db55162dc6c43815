package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MayankVir/alonie-backend/internal/httputil"
	"github.com/MayankVir/alonie-backend/internal/llm"
	"github.com/MayankVir/alonie-backend/internal/models"
	"github.com/MayankVir/alonie-backend/internal/service"
)

type HistoryEntry struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type ChatRequest struct {
	CompanionID         uuid.UUID      `json:"companionId" binding:"required"`
	Message             string         `json:"message" binding:"required"`
	Model               string         `json:"model"`
	ConversationHistory []HistoryEntry `json:"conversationHistory"`
}

type MessageDTO struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversationId"`
	Sender         string    `json:"sender"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toMessageDTO(msg *models.Message) MessageDTO {
	return MessageDTO{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Sender:         msg.Sender,
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}
}

type ChatResponse struct {
	Response       string                   `json:"response"`
	UserMessage    MessageDTO               `json:"userMessage"`
	AIMessage      MessageDTO               `json:"aiMessage"`
	ConversationID uuid.UUID                `json:"conversationId"`
	Metadata       service.ExchangeMetadata `json:"metadata"`
}

// Chat runs one message exchange with a companion.
func (h *Handler) Chat(c *gin.Context) {
	userID := c.MustGet("userID").(uuid.UUID)

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.Fail(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	history := make([]llm.Message, 0, len(req.ConversationHistory))
	for _, entry := range req.ConversationHistory {
		history = append(history, llm.Message{Role: entry.Role, Content: entry.Content})
	}

	result, err := h.chat.Exchange(c.Request.Context(), userID, service.ExchangeInput{
		CompanionID: req.CompanionID,
		Message:     req.Message,
		Model:       req.Model,
		History:     history,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	httputil.OK(c, http.StatusOK, ChatResponse{
		Response:       result.Response,
		UserMessage:    toMessageDTO(result.UserMessage),
		AIMessage:      toMessageDTO(result.AIMessage),
		ConversationID: result.ConversationID,
		Metadata:       result.Metadata,
	})
}

// ListConversations returns the caller's conversations, most recent first,
// enriched with the companion summary and last message.
func (h *Handler) ListConversations(c *gin.Context) {
	userID := c.MustGet("userID").(uuid.UUID)
	page, limit := pagination(c)

	summaries, total, err := h.conversations.List(c.Request.Context(), userID, page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	httputil.OKCount(c, http.StatusOK, summaries, total)
}

// GetMessages returns the caller's chronological history with a companion.
func (h *Handler) GetMessages(c *gin.Context) {
	userID := c.MustGet("userID").(uuid.UUID)
	companionID, err := uuid.Parse(c.Param("companionId"))
	if err != nil {
		httputil.Fail(c, http.StatusBadRequest, "Invalid companion ID")
		return
	}
	page, limit := pagination(c)

	messages, total, err := h.conversations.Messages(c.Request.Context(), userID, companionID, page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	dtos := make([]MessageDTO, 0, len(messages))
	for i := range messages {
		dtos = append(dtos, toMessageDTO(&messages[i]))
	}
	httputil.OKCount(c, http.StatusOK, dtos, total)
}
