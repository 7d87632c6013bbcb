package payment

import (
	"context"
	"fmt"
	"time"

	bookingRepo "clinicbook/database/repository/booking"
	paymentRepo "clinicbook/database/repository/payment"
	"clinicbook/models"
	"clinicbook/services/notification"
	"clinicbook/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultRequestFactory implements RequestService. Creation never sends the
// customer email; MarkSent is the separate explicit step so creation and
// notification stay independently retryable.
type DefaultRequestFactory struct {
	Bookings bookingRepo.BookingRepository
	Requests paymentRepo.PaymentRequestRepository
	Pricing  PricingResolver
	Notifier notification.Dispatcher
	Logger   *zap.Logger

	DefaultDepositPercent int
	DueIn                 time.Duration
	Currency              string
}

// CreatePaymentRequest computes the amount owed for a booking and inserts a
// payment request, idempotently: an equivalent still-open request is returned
// unchanged, and a differing open one is superseded, never duplicated.
func (f *DefaultRequestFactory) CreatePaymentRequest(ctx context.Context, bookingID string, policy models.PaymentPolicy) (*models.PaymentRequest, error) {
	booking, err := f.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking %s: %w", bookingID, err)
	}
	if booking == nil {
		return nil, &BookingNotFoundError{BookingID: bookingID}
	}

	amount, currency, err := f.resolveAmount(ctx, booking.Service, &policy)
	if err != nil {
		return nil, err
	}

	if existing, err := f.Requests.GetActiveByBooking(ctx, bookingID); err != nil {
		return nil, fmt.Errorf("failed to check active request for booking %s: %w", bookingID, err)
	} else if existing != nil {
		if existing.PaymentType == policy.Type && existing.Amount == amount {
			return existing, nil
		}
		// A request under a different policy supersedes the open one.
		if _, err := f.Requests.CancelIfOpen(ctx, existing.ID, "superseded by new payment request"); err != nil {
			return nil, fmt.Errorf("failed to supersede request %s: %w", existing.ID, err)
		}
		f.Logger.Info("superseded open payment request",
			zap.String("bookingId", bookingID),
			zap.String("requestId", existing.ID))
	}

	now := time.Now().UTC()
	request := &models.PaymentRequest{
		ID:                uuid.New().String(),
		BookingID:         booking.ID,
		CustomerID:        booking.CustomerID,
		Amount:            amount,
		Currency:          currency,
		PaymentType:       policy.Type,
		Status:            models.RequestStatusPending,
		DueDate:           now.Add(f.DueIn),
		CheckoutReference: uuid.New().String(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := f.Requests.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create payment request: %w", err)
	}

	f.Logger.Info("payment request created",
		zap.String("requestId", request.ID),
		zap.String("bookingId", booking.ID),
		zap.Float64("amount", amount),
		zap.String("type", policy.Type))
	return request, nil
}

func (f *DefaultRequestFactory) resolveAmount(ctx context.Context, rawService string, policy *models.PaymentPolicy) (float64, string, error) {
	baseName, classification := ParseServiceDescriptor(rawService)

	price, err := f.Pricing.GetServicePrice(ctx, baseName, classification)
	if err != nil {
		return 0, "", fmt.Errorf("pricing lookup failed for %q: %w", baseName, err)
	}
	if price == nil {
		return 0, "", &PricingNotFoundError{Service: baseName}
	}

	currency := price.Currency
	if currency == "" {
		currency = f.Currency
	}

	switch policy.Type {
	case models.PaymentTypeFull:
		return utils.Round2(price.Amount), currency, nil
	case models.PaymentTypeDeposit, "":
		policy.Type = models.PaymentTypeDeposit
		percent := policy.Percentage
		if percent == 0 {
			percent = f.DefaultDepositPercent
		}
		if percent < 1 {
			percent = 1
		}
		if percent > 100 {
			percent = 100
		}
		policy.Percentage = percent
		return utils.DepositAmount(price.Amount, percent), currency, nil
	default:
		return 0, "", fmt.Errorf("unsupported payment policy type: %s", policy.Type)
	}
}

// MarkSent transitions pending -> sent and dispatches the customer email.
// Calling it on an already-sent request is a no-op.
func (f *DefaultRequestFactory) MarkSent(ctx context.Context, requestID string) error {
	moved, err := f.Requests.MarkSentIfPending(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to mark request %s sent: %w", requestID, err)
	}
	request, err := f.Requests.GetByID(ctx, requestID)
	if err != nil || request == nil {
		return fmt.Errorf("payment request %s not found", requestID)
	}
	if !moved {
		if request.Status == models.RequestStatusSent {
			return nil
		}
		return fmt.Errorf("payment request %s is %s, cannot send", requestID, request.Status)
	}

	recipient := ""
	if booking, err := f.Bookings.GetByID(ctx, request.BookingID); err == nil && booking != nil {
		recipient = booking.CustomerEmail
	}
	f.Notifier.Send(ctx, notification.KindPaymentRequest, recipient, map[string]string{
		"requestId": request.ID,
		"bookingId": request.BookingID,
		"amount":    fmt.Sprintf("%.2f", request.Amount),
		"currency":  request.Currency,
		"dueDate":   request.DueDate.Format("2006-01-02"),
	})
	return nil
}

// CancelForBooking cancels any open request for a booking (admin cancellation).
func (f *DefaultRequestFactory) CancelForBooking(ctx context.Context, bookingID, note string) error {
	existing, err := f.Requests.GetActiveByBooking(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("failed to load active request for booking %s: %w", bookingID, err)
	}
	if existing == nil {
		return nil
	}
	if _, err := f.Requests.CancelIfOpen(ctx, existing.ID, note); err != nil {
		return fmt.Errorf("failed to cancel request %s: %w", existing.ID, err)
	}
	return nil
}
