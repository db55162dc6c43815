package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MayankVir/alonie-backend/internal/httputil"
	"github.com/MayankVir/alonie-backend/internal/llm"
	"github.com/MayankVir/alonie-backend/internal/service"
)

// respondError translates service errors into envelope responses. Unexpected
// failures are logged with their stack and redacted for the client.
func (h *Handler) respondError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		httputil.FailFields(c, http.StatusBadRequest, "Validation failed", validationErr.Fields)
		return
	}

	var configErr *service.ConfigError
	if errors.As(err, &configErr) {
		httputil.Fail(c, http.StatusInternalServerError, configErr.Error())
		return
	}

	var providerErr *llm.ProviderError
	if errors.As(err, &providerErr) {
		httputil.Fail(c, http.StatusInternalServerError, "AI provider error: "+providerErr.Error())
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httputil.Fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrCompanionNameTaken):
		httputil.Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		httputil.Fail(c, http.StatusNotFound, "Resource not found")
	case errors.Is(err, service.ErrForbidden):
		httputil.Fail(c, http.StatusForbidden, "Forbidden")
	default:
		h.log.Error("unexpected error", zap.Error(err), zap.String("path", c.FullPath()))
		httputil.Fail(c, http.StatusInternalServerError, "Something went wrong")
	}
}
