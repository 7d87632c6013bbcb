package handlers

import (
	"errors"
	"net/http"

	paymentRepo "clinicbook/database/repository/payment"
	"clinicbook/models"
	"clinicbook/services/payment"
	"clinicbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentRequestHandler serves payment request creation, sending and the
// status short-poll the booking UI uses while the customer checks out.
type PaymentRequestHandler struct {
	factory  payment.RequestService
	requests paymentRepo.PaymentRequestRepository
	logger   *zap.Logger
}

// NewPaymentRequestHandler constructs a PaymentRequestHandler.
func NewPaymentRequestHandler(factory payment.RequestService, requests paymentRepo.PaymentRequestRepository, logger *zap.Logger) *PaymentRequestHandler {
	return &PaymentRequestHandler{factory: factory, requests: requests, logger: logger}
}

// CreatePaymentRequestHandler creates (or idempotently returns) the payment
// request for a booking.
func (h *PaymentRequestHandler) CreatePaymentRequestHandler(c *gin.Context) {
	var input struct {
		BookingID string               `json:"bookingId" binding:"required"`
		Policy    models.PaymentPolicy `json:"policy"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	request, err := h.factory.CreatePaymentRequest(c.Request.Context(), input.BookingID, input.Policy)
	if err != nil {
		var pricingErr *payment.PricingNotFoundError
		var bookingErr *payment.BookingNotFoundError
		switch {
		case errors.As(err, &pricingErr):
			// Degrade to the manual quote flow; no request was created.
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"quoteRequired": true,
				"message":       "no price configured for this service, contact the clinic for a quote",
			})
		case errors.As(err, &bookingErr):
			utils.JSONError(c, http.StatusNotFound, "booking not found", input.BookingID)
		default:
			h.logger.Error("payment request creation failed", zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "failed to create payment request", "")
		}
		return
	}

	c.JSON(http.StatusOK, request)
}

// SendPaymentRequestHandler marks the request sent and emails the customer.
func (h *PaymentRequestHandler) SendPaymentRequestHandler(c *gin.Context) {
	requestID := c.Param("id")
	if err := h.factory.MarkSent(c.Request.Context(), requestID); err != nil {
		utils.JSONError(c, http.StatusConflict, "failed to send payment request", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

// GetPaymentRequestHandler returns the request for status polling. The UI
// watches request status rather than inferring success from checkout-window
// lifecycle.
func (h *PaymentRequestHandler) GetPaymentRequestHandler(c *gin.Context) {
	request, err := h.requests.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to load payment request", "")
		return
	}
	if request == nil {
		utils.JSONError(c, http.StatusNotFound, "payment request not found", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, request)
}
