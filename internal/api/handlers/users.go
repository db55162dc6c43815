package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MayankVir/alonie-backend/internal/api/middleware"
	"github.com/MayankVir/alonie-backend/internal/httputil"
	"github.com/MayankVir/alonie-backend/internal/service"
)

type UpdateProfileRequest struct {
	Name      *string `json:"name"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatarUrl" binding:"omitempty,url"`
}

// UpdateMe applies a partial profile update to the caller's account.
func (h *Handler) UpdateMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		httputil.Fail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.Fail(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	updated, err := h.users.UpdateProfile(c.Request.Context(), user.ID, service.ProfileUpdate{
		Name:      req.Name,
		Email:     req.Email,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	httputil.OKMessage(c, http.StatusOK, "Profile updated", toUserDTO(updated))
}

// ListUsers is admin-only and includes deactivated accounts.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	dtos := make([]UserDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, toUserDTO(&users[i]))
	}
	httputil.OKCount(c, http.StatusOK, dtos, int64(len(dtos)))
}

// DeactivateUser is admin-only; accounts are never hard-deleted.
func (h *Handler) DeactivateUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.Fail(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.users.Deactivate(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	httputil.OKMessage(c, http.StatusOK, "User deactivated", nil)
}
