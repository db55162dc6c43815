package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MayankVir/alonie-backend/internal/httputil"
	"github.com/MayankVir/alonie-backend/internal/identity"
)

// SignatureHeader carries the provider's HMAC of the delivery body.
const SignatureHeader = "X-Identity-Signature"

// IdentityWebhook mirrors identity provider user events (created/updated/
// deleted) into the local user store.
func (h *Handler) IdentityWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		httputil.Fail(c, http.StatusBadRequest, "Failed to read request body")
		return
	}

	if !identity.VerifyWebhookSignature(h.webhookSecret, payload, c.GetHeader(SignatureHeader)) {
		httputil.Fail(c, http.StatusUnauthorized, "Invalid webhook signature")
		return
	}

	event, err := identity.ParseWebhook(payload)
	if err != nil {
		httputil.Fail(c, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	if err := h.identity.HandleWebhook(c.Request.Context(), event); err != nil {
		h.log.Error("webhook processing failed", zap.String("type", event.Type), zap.Error(err))
		h.respondError(c, err)
		return
	}

	httputil.OKMessage(c, http.StatusOK, "Event processed", nil)
}
