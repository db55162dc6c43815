package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health is the liveness endpoint.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
