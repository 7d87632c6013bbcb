package payment

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	bookingRepo "clinicbook/database/repository/booking"
	paymentRepo "clinicbook/database/repository/payment"
	webhooklogRepo "clinicbook/database/repository/webhooklog"
	"clinicbook/models"
	"clinicbook/services/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultReconciler implements Reconciler. It drives the Payment and
// PaymentRequest status machines off matched provider events, with exact
// replay protection and conditional writes so concurrent deliveries of the
// same event cannot both apply.
type DefaultReconciler struct {
	Payments paymentRepo.PaymentRepository
	Requests paymentRepo.PaymentRequestRepository
	Bookings bookingRepo.BookingRepository
	Logs     webhooklogRepo.WebhookLogRepository
	Notifier notification.Dispatcher
	Logger   *zap.Logger
}

// Apply updates the matched target per the provider status. Write failures
// get one synchronous retry, then the event is dead-lettered and the webhook
// still acknowledges the provider.
func (r *DefaultReconciler) Apply(ctx context.Context, evt *models.ProviderEvent, target *MatchResult) (Outcome, error) {
	if target == nil || target.Payment == nil {
		return OutcomeNoMatch, nil
	}
	p := target.Payment

	// Exact replay: same event already stamped onto this payment.
	if p.WebhookProcessedAt != nil && p.EventID == evt.EventID {
		return OutcomeAlreadyProcessed, nil
	}

	stamp := paymentRepo.SettlementStamp{
		CheckoutReference: evt.Data.Reference,
		CheckoutID:        evt.Data.CheckoutID,
		TransactionID:     evt.Data.TransactionID,
		EventID:           evt.EventID,
		EventType:         evt.EventType,
		ProcessedAt:       time.Now().UTC(),
	}

	switch normalizeStatus(evt) {
	case models.PaymentStatusPaid:
		return r.applySettled(ctx, evt, target, stamp)
	case models.PaymentStatusFailed:
		return r.applyOutcome(ctx, evt, target, stamp, models.PaymentStatusFailed, false)
	case models.PaymentStatusCancelled:
		return r.applyOutcome(ctx, evt, target, stamp, models.PaymentStatusCancelled, true)
	case models.PaymentStatusProcessing:
		return r.applyProcessing(ctx, evt, p, stamp)
	default:
		r.logIllegal(ctx, evt, p, "unrecognized provider status")
		return OutcomeIllegalTransition, nil
	}
}

// statusTokens is the recognized provider status vocabulary. Matching is on
// whole tokens so e.g. "UNPAID" never reads as a settlement.
var statusTokens = map[string]string{
	"paid":       models.PaymentStatusPaid,
	"succeeded":  models.PaymentStatusPaid,
	"success":    models.PaymentStatusPaid,
	"successful": models.PaymentStatusPaid,
	"failed":     models.PaymentStatusFailed,
	"failure":    models.PaymentStatusFailed,
	"declined":   models.PaymentStatusFailed,
	"cancelled":  models.PaymentStatusCancelled,
	"canceled":   models.PaymentStatusCancelled,
	"expired":    models.PaymentStatusCancelled,
	"pending":    models.PaymentStatusProcessing,
	"processing": models.PaymentStatusProcessing,
	"process":    models.PaymentStatusProcessing,
}

// normalizeStatus maps provider status vocabulary onto the payment status
// machine, consulting the event type when the payload status is absent.
// Anything outside the vocabulary returns "" and gets flagged for review.
func normalizeStatus(evt *models.ProviderEvent) string {
	s := strings.ToLower(evt.Data.Status)
	if s == "" {
		s = strings.ToLower(evt.EventType)
	}
	for _, token := range strings.FieldsFunc(s, func(r rune) bool {
		return r < 'a' || r > 'z'
	}) {
		if status, ok := statusTokens[token]; ok {
			return status
		}
	}
	return ""
}

func (r *DefaultReconciler) applySettled(ctx context.Context, evt *models.ProviderEvent, target *MatchResult, stamp paymentRepo.SettlementStamp) (Outcome, error) {
	p := target.Payment

	applied, err := r.withRetry(func() (bool, error) {
		return r.Payments.ApplySettlement(ctx, p.ID, stamp)
	})
	if err != nil {
		r.deadLetter(ctx, evt, err)
		return OutcomeDeadLettered, nil
	}
	if !applied {
		// Lost the conditional write: either this event raced a concurrent
		// delivery (treat as replay) or the row is in a conflicting terminal
		// state (illegal, flag for review).
		fresh, ferr := r.Payments.GetByID(ctx, p.ID)
		if ferr == nil && fresh != nil && fresh.Status == models.PaymentStatusPaid {
			return OutcomeAlreadyProcessed, nil
		}
		from := p.Status
		if fresh != nil {
			from = fresh.Status
		}
		r.logIllegal(ctx, evt, p, (&IllegalTransitionError{PaymentID: p.ID, From: from, Event: evt.EventType}).Error())
		return OutcomeIllegalTransition, nil
	}

	if target.Request != nil {
		if _, err := r.withRetry(func() (bool, error) {
			return r.Requests.MarkPaidIfOpen(ctx, target.Request.ID)
		}); err != nil {
			r.deadLetter(ctx, evt, err)
			return OutcomeDeadLettered, nil
		}
		r.confirmBooking(ctx, target.Request)
	}

	r.Logger.Info("payment settled",
		zap.String("paymentId", p.ID),
		zap.String("eventId", evt.EventID),
		zap.String("strategy", target.Strategy))
	r.notify(ctx, notification.KindPaymentReceived, target, map[string]string{
		"paymentId": p.ID,
		"eventId":   evt.EventID,
	})
	return OutcomeSettled, nil
}

// confirmBooking flips a pending booking to confirmed on the first settled
// deposit/full payment. A lost conditional write means the booking was
// already confirmed or cancelled; both are no-ops here.
func (r *DefaultReconciler) confirmBooking(ctx context.Context, request *models.PaymentRequest) {
	if request.BookingID == "" {
		return
	}
	confirmed, err := r.Bookings.ConfirmIfPending(ctx, request.BookingID)
	if err != nil {
		r.Logger.Error("failed to confirm booking after settlement",
			zap.String("bookingId", request.BookingID), zap.Error(err))
		return
	}
	if confirmed {
		r.notify(ctx, notification.KindBookingConfirmed, &MatchResult{Request: request}, map[string]string{
			"bookingId": request.BookingID,
		})
	}
}

func (r *DefaultReconciler) applyOutcome(ctx context.Context, evt *models.ProviderEvent, target *MatchResult, stamp paymentRepo.SettlementStamp, status string, checkoutCancelled bool) (Outcome, error) {
	p := target.Payment

	applied, err := r.withRetry(func() (bool, error) {
		return r.Payments.MarkOutcome(ctx, p.ID, status, stamp)
	})
	if err != nil {
		r.deadLetter(ctx, evt, err)
		return OutcomeDeadLettered, nil
	}
	if !applied {
		// A concurrent delivery of this same event already stamped the row,
		// or an earlier one left it in this outcome state already.
		fresh, ferr := r.Payments.GetByID(ctx, p.ID)
		if ferr == nil && fresh != nil && (fresh.EventID == evt.EventID || fresh.Status == status) {
			return OutcomeAlreadyProcessed, nil
		}
		from := p.Status
		if fresh != nil {
			from = fresh.Status
		}
		r.logIllegal(ctx, evt, p, (&IllegalTransitionError{PaymentID: p.ID, From: from, Event: evt.EventType}).Error())
		return OutcomeIllegalTransition, nil
	}

	// The request stays open (sent) so the customer can retry, unless the
	// provider cancelled the underlying checkout.
	if checkoutCancelled && target.Request != nil {
		if _, err := r.Requests.CancelIfOpen(ctx, target.Request.ID, "checkout cancelled by provider"); err != nil {
			r.Logger.Error("failed to cancel request after checkout cancellation",
				zap.String("requestId", target.Request.ID), zap.Error(err))
		}
	}

	r.notify(ctx, notification.KindPaymentFailed, target, map[string]string{
		"paymentId": p.ID,
		"status":    status,
	})
	if status == models.PaymentStatusCancelled {
		return OutcomeCancelled, nil
	}
	return OutcomeFailed, nil
}

func (r *DefaultReconciler) applyProcessing(ctx context.Context, evt *models.ProviderEvent, p *models.Payment, stamp paymentRepo.SettlementStamp) (Outcome, error) {
	applied, err := r.withRetry(func() (bool, error) {
		return r.Payments.MarkProcessing(ctx, p.ID, stamp)
	})
	if err != nil {
		r.deadLetter(ctx, evt, err)
		return OutcomeDeadLettered, nil
	}
	if !applied {
		// A late intermediate event must never downgrade a settled payment.
		fresh, ferr := r.Payments.GetByID(ctx, p.ID)
		if ferr == nil && fresh != nil && fresh.Terminal() {
			r.logIllegal(ctx, evt, p, (&IllegalTransitionError{PaymentID: p.ID, From: fresh.Status, Event: evt.EventType}).Error())
			return OutcomeIllegalTransition, nil
		}
		return OutcomeAlreadyProcessed, nil
	}
	// Intermediate status: no notification, no request transition.
	return OutcomeProcessing, nil
}

// RecordUnmatched stores the raw event for manual review. Matching failures
// never propagate as webhook errors to the provider.
func (r *DefaultReconciler) RecordUnmatched(ctx context.Context, evt *models.ProviderEvent, raw []byte) {
	entry := &models.WebhookLog{
		ID:        uuid.New().String(),
		Kind:      models.WebhookLogUnmatched,
		EventID:   evt.EventID,
		EventType: evt.EventType,
		Payload:   string(raw),
		CreatedAt: time.Now().UTC(),
	}
	if err := r.Logs.Record(ctx, entry); err != nil {
		r.Logger.Error("failed to record unmatched event",
			zap.String("eventId", evt.EventID), zap.Error(err))
	}
}

// withRetry runs a conditional write with one synchronous retry.
func (r *DefaultReconciler) withRetry(op func() (bool, error)) (bool, error) {
	applied, err := op()
	if err != nil {
		applied, err = op()
	}
	return applied, err
}

func (r *DefaultReconciler) deadLetter(ctx context.Context, evt *models.ProviderEvent, cause error) {
	raw, _ := json.Marshal(evt)
	entry := &models.WebhookLog{
		ID:        uuid.New().String(),
		Kind:      models.WebhookLogDeadLetter,
		EventID:   evt.EventID,
		EventType: evt.EventType,
		Payload:   string(raw),
		Error:     cause.Error(),
		CreatedAt: time.Now().UTC(),
	}
	if err := r.Logs.Record(ctx, entry); err != nil {
		r.Logger.Error("failed to dead-letter event",
			zap.String("eventId", evt.EventID), zap.Error(err))
	}
	r.Logger.Error("reconciliation write dead-lettered",
		zap.String("eventId", evt.EventID), zap.Error(cause))
}

func (r *DefaultReconciler) logIllegal(ctx context.Context, evt *models.ProviderEvent, p *models.Payment, reason string) {
	raw, _ := json.Marshal(evt)
	entry := &models.WebhookLog{
		ID:        uuid.New().String(),
		Kind:      models.WebhookLogIllegalTransition,
		EventID:   evt.EventID,
		EventType: evt.EventType,
		Payload:   string(raw),
		Error:     reason,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.Logs.Record(ctx, entry); err != nil {
		r.Logger.Error("failed to record illegal transition",
			zap.String("eventId", evt.EventID), zap.Error(err))
	}
	r.Logger.Warn("illegal payment transition rejected",
		zap.String("paymentId", p.ID),
		zap.String("eventId", evt.EventID),
		zap.String("reason", reason))
}

func (r *DefaultReconciler) notify(ctx context.Context, kind notification.Kind, target *MatchResult, data map[string]string) {
	recipient := ""
	if target.Request != nil && target.Request.BookingID != "" {
		if booking, err := r.Bookings.GetByID(ctx, target.Request.BookingID); err == nil && booking != nil {
			recipient = booking.CustomerEmail
		}
	}
	r.Notifier.Send(ctx, kind, recipient, data)
}
