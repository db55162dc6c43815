package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MayankVir/alonie-backend/internal/httputil"
	"github.com/MayankVir/alonie-backend/internal/models"
	"github.com/MayankVir/alonie-backend/internal/service"
)

type CreateCompanionRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description" binding:"required"`
	Personality  string `json:"personality" binding:"required"`
	Category     string `json:"category" binding:"required"`
	AvatarURL    string `json:"avatarUrl"`
	Instructions string `json:"instructions"`
	Greeting     string `json:"greeting"`
}

type UpdateCompanionRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	Personality  *string `json:"personality"`
	Category     *string `json:"category"`
	AvatarURL    *string `json:"avatarUrl"`
	Instructions *string `json:"instructions"`
	Greeting     *string `json:"greeting"`
}

type CompanionDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Personality  string    `json:"personality"`
	Category     string    `json:"category"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	Instructions string    `json:"instructions,omitempty"`
	Greeting     string    `json:"greeting,omitempty"`
	Type         string    `json:"type"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toCompanionDTO(companion *models.Companion) CompanionDTO {
	return CompanionDTO{
		ID:           companion.ID,
		Name:         companion.Name,
		Description:  companion.Description,
		Personality:  companion.Personality,
		Category:     companion.Category,
		AvatarURL:    companion.AvatarURL,
		Instructions: companion.Instructions,
		Greeting:     companion.Greeting,
		Type:         companion.Type,
		CreatedAt:    companion.CreatedAt,
		UpdatedAt:    companion.UpdatedAt,
	}
}

// ListCompanions returns the caller's active companions, newest first.
func (h *Handler) ListCompanions(c *gin.Context) {
	userID := c.MustGet("userID").(uuid.UUID)

	companions, err := h.companions.List(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	dtos := make([]CompanionDTO, 0, len(companions))
	for i := range companions {
		dtos = append(dtos, toCompanionDTO(&companions[i]))
	}
	httputil.OKCount(c, http.StatusOK, dtos, int64(len(dtos)))
}

func (h *Handler) GetCompanion(c *gin.Context) {
	userID := c.MustGet("userID").(uuid.UUID)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.Fail(c, http.StatusBadRequest, "Invalid companion ID")
		return
	}

	companion, err := h.companions.Get(c.Request.Context(), userID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	httputil.OK(c, http.StatusOK, toCompanionDTO(companion))
}

func (h *Handler) CreateCompanion(c *gin.Context) {
	userID := c.MustGet("userID").(uuid.UUID)

	var req CreateCompanionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.Fail(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	companion, err := h.companions.Create(c.Request.Context(), userID, service.CompanionInput{
		Name:         req.Name,
		Description:  req.Description,
		Personality:  req.Personality,
		Category:     req.Category,
		AvatarURL:    req.AvatarURL,
		Instructions: req.Instructions,
		Greeting:     req.Greeting,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	httputil.OK(c, http.StatusCreated, toCompanionDTO(companion))
}

func (h *Handler) UpdateCompanion(c *gin.Context) {
	userID := c.MustGet("userID").(uuid.UUID)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.Fail(c, http.StatusBadRequest, "Invalid companion ID")
		return
	}

	var req UpdateCompanionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.Fail(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	companion, err := h.companions.Update(c.Request.Context(), userID, id, service.CompanionUpdate{
		Name:         req.Name,
		Description:  req.Description,
		Personality:  req.Personality,
		Category:     req.Category,
		AvatarURL:    req.AvatarURL,
		Instructions: req.Instructions,
		Greeting:     req.Greeting,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	httputil.OKMessage(c, http.StatusOK, "Companion updated", toCompanionDTO(companion))
}

// DeleteCompanion soft-deletes: the companion disappears from list/get but
// its message history stays.
func (h *Handler) DeleteCompanion(c *gin.Context) {
	userID := c.MustGet("userID").(uuid.UUID)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.Fail(c, http.StatusBadRequest, "Invalid companion ID")
		return
	}

	if err := h.companions.Delete(c.Request.Context(), userID, id); err != nil {
		h.respondError(c, err)
		return
	}
	httputil.OKMessage(c, http.StatusOK, "Companion deleted", nil)
}
