package handlers

import (
	"net/http"
	"strconv"

	webhooklogRepo "clinicbook/database/repository/webhooklog"
	"clinicbook/services/payment"
	"clinicbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler serves the out-of-band payment administration endpoints.
type AdminHandler struct {
	guard  payment.Guard
	logs   webhooklogRepo.WebhookLogRepository
	logger *zap.Logger
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(guard payment.Guard, logs webhooklogRepo.WebhookLogRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{guard: guard, logs: logs, logger: logger}
}

// RunDuplicateScanHandler runs the duplicate guard on demand and returns the report.
func (h *AdminHandler) RunDuplicateScanHandler(c *gin.Context) {
	report, err := h.guard.ScanAndResolve(c.Request.Context())
	if err != nil {
		h.logger.Error("duplicate scan failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "duplicate scan failed", "")
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListWebhookLogHandler returns unresolved webhook log entries for manual review.
func (h *AdminHandler) ListWebhookLogHandler(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit <= 0 {
		limit = 50
	}
	entries, err := h.logs.List(c.Request.Context(), c.Query("kind"), limit)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list webhook log", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// HealthHandler reports the latest stored health snapshot.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, utils.GetHealthStatus())
}
