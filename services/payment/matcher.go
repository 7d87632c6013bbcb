package payment

import (
	"context"
	"fmt"
	"time"

	paymentRepo "clinicbook/database/repository/payment"
	"clinicbook/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Matching strategy names, recorded for audit.
const (
	StrategyCheckoutReference = "checkout_reference"
	StrategyCheckoutID        = "checkout_id"
	StrategyTransactionID     = "transaction_id"
	StrategyRecentPending     = "recent_pending"
	StrategyOpenRequest       = "open_request"
)

// MatchResult is the resolved target of a webhook event, with the strategy
// that produced it.
type MatchResult struct {
	Payment  *models.Payment
	Request  *models.PaymentRequest
	Strategy string
}

// DefaultPaymentMatcher implements Matcher with an ordered strategy chain;
// the first hit wins.
type DefaultPaymentMatcher struct {
	Payments paymentRepo.PaymentRepository
	Requests paymentRepo.PaymentRequestRepository
	Logger   *zap.Logger

	// PendingWindow bounds the test-only recent-pending fallback and the
	// amount-recency heuristic.
	PendingWindow time.Duration
}

const defaultPendingWindow = 30 * time.Minute

// Match resolves the event to zero-or-one Payment/PaymentRequest pair.
// Returns (nil, nil) when nothing matches; the caller records the event for
// manual review and still acknowledges the provider.
func (m *DefaultPaymentMatcher) Match(ctx context.Context, evt *models.ProviderEvent, mode AuthMode) (*MatchResult, error) {
	window := m.PendingWindow
	if window == 0 {
		window = defaultPendingWindow
	}

	// Exact provider-identifier strategies.
	lookups := []struct {
		strategy string
		key      string
		find     func(context.Context, string) (*models.Payment, error)
	}{
		{StrategyCheckoutReference, evt.Data.Reference, m.Payments.GetByCheckoutReference},
		{StrategyCheckoutID, evt.Data.CheckoutID, m.Payments.GetByCheckoutID},
		{StrategyTransactionID, evt.Data.TransactionID, m.Payments.GetByTransactionID},
	}
	for _, l := range lookups {
		if l.key == "" {
			continue
		}
		p, err := l.find(ctx, l.key)
		if err != nil {
			return nil, fmt.Errorf("matcher lookup %s failed: %w", l.strategy, err)
		}
		if p != nil {
			return m.withRequest(ctx, p, l.strategy)
		}
	}

	// Test traffic may exercise the pipeline without a real checkout
	// reference. Never allowed for production-authenticated events.
	if evt.Test && mode != AuthModeProduction {
		p, err := m.Payments.MostRecentPendingSince(ctx, time.Now().Add(-window))
		if err != nil {
			return nil, fmt.Errorf("matcher recent-pending lookup failed: %w", err)
		}
		if p != nil {
			return m.withRequest(ctx, p, StrategyRecentPending)
		}
	}

	// No payment row exists yet: correlate with an open payment request and
	// synthesize the payment now.
	request, err := m.findOpenRequest(ctx, evt, window)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, nil
	}

	now := time.Now().UTC()
	p := &models.Payment{
		ID:                uuid.New().String(),
		PaymentRequestID:  request.ID,
		BookingID:         request.BookingID,
		Amount:            request.Amount,
		Currency:          request.Currency,
		Status:            models.PaymentStatusPending,
		CheckoutReference: evt.Data.Reference,
		CheckoutID:        evt.Data.CheckoutID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := m.Payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("matcher failed to synthesize payment: %w", err)
	}
	m.Logger.Info("synthesized payment for open request",
		zap.String("paymentId", p.ID),
		zap.String("requestId", request.ID),
		zap.String("eventId", evt.EventID))
	return &MatchResult{Payment: p, Request: request, Strategy: StrategyOpenRequest}, nil
}

func (m *DefaultPaymentMatcher) withRequest(ctx context.Context, p *models.Payment, strategy string) (*MatchResult, error) {
	res := &MatchResult{Payment: p, Strategy: strategy}
	if p.PaymentRequestID != "" {
		request, err := m.Requests.GetByID(ctx, p.PaymentRequestID)
		if err != nil {
			return nil, fmt.Errorf("matcher failed to load request %s: %w", p.PaymentRequestID, err)
		}
		res.Request = request
	}
	return res, nil
}

func (m *DefaultPaymentMatcher) findOpenRequest(ctx context.Context, evt *models.ProviderEvent, window time.Duration) (*models.PaymentRequest, error) {
	if evt.Data.Reference != "" {
		request, err := m.Requests.GetOpenByCheckoutReference(ctx, evt.Data.Reference)
		if err != nil {
			return nil, fmt.Errorf("matcher open-request lookup failed: %w", err)
		}
		if request != nil {
			return request, nil
		}
	}

	// Amount+recency heuristic, last resort.
	if evt.Data.Amount <= 0 {
		return nil, nil
	}
	candidates, err := m.Requests.FindRecentOpenByAmount(ctx, evt.Data.Amount, time.Now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("matcher amount heuristic failed: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}
