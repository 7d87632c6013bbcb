package handlers

import (
	"encoding/json"
	"net/http"

	"clinicbook/models"
	"clinicbook/services/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookHandler serves the inbound payment-provider webhook endpoint.
type WebhookHandler struct {
	auth       payment.Authenticator
	matcher    payment.Matcher
	reconciler payment.Reconciler
	logger     *zap.Logger
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(auth payment.Authenticator, matcher payment.Matcher, reconciler payment.Reconciler, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{auth: auth, matcher: matcher, reconciler: reconciler, logger: logger}
}

// HandleProviderWebhook ingests one provider notification. Once a request is
// authenticated the endpoint always acknowledges with 200 so the provider
// does not retry-storm; matching and reconciliation problems surface in the
// audit log, not in the response. Authentication failures get a non-200 with
// a generic body that never explains why.
func (h *WebhookHandler) HandleProviderWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	authResult, err := h.auth.Authenticate(body, c.Request.Header)
	if err != nil {
		h.logger.Warn("webhook rejected",
			zap.String("remote", c.ClientIP()),
			zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var evt models.ProviderEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		h.logger.Warn("webhook payload unparseable", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"success": false, "outcome": "invalid_payload"})
		return
	}

	target, err := h.matcher.Match(c.Request.Context(), &evt, authResult.Mode)
	if err != nil {
		h.logger.Error("webhook matching failed",
			zap.String("eventId", evt.EventID), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"success": false, "outcome": "match_error"})
		return
	}
	if target == nil {
		h.reconciler.RecordUnmatched(c.Request.Context(), &evt, body)
		c.JSON(http.StatusOK, gin.H{"success": true, "outcome": string(payment.OutcomeNoMatch)})
		return
	}

	outcome, err := h.reconciler.Apply(c.Request.Context(), &evt, target)
	if err != nil {
		h.logger.Error("webhook reconciliation failed",
			zap.String("eventId", evt.EventID), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"success": false, "outcome": "apply_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "outcome": string(outcome)})
}
