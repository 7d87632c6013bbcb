package paymentRepo

import (
	"context"
	"time"

	"clinicbook/models"
)

// SettlementStamp carries the provider identifiers written onto a payment
// when a webhook event is applied. EventID doubles as the idempotency key:
// a given provider event id must never be applied twice.
type SettlementStamp struct {
	CheckoutReference string
	CheckoutID        string
	TransactionID     string
	EventID           string
	EventType         string
	ProcessedAt       time.Time
}

// PaymentRepository defines data access for payment rows. All mutating
// methods returning a bool use conditional updates: false means the filter
// did not match (another writer got there first, or the row is terminal),
// which callers must treat as a no-op rather than an error.
type PaymentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetByCheckoutReference(ctx context.Context, ref string) (*models.Payment, error)
	GetByCheckoutID(ctx context.Context, checkoutID string) (*models.Payment, error)
	GetByTransactionID(ctx context.Context, txID string) (*models.Payment, error)
	// MostRecentPendingSince returns the newest pending/processing payment
	// created after the cutoff, or nil when there is none.
	MostRecentPendingSince(ctx context.Context, cutoff time.Time) (*models.Payment, error)
	Create(ctx context.Context, p *models.Payment) error

	// ApplySettlement stamps the payment paid. The filter excludes terminal
	// rows and rows already stamped with a webhook event.
	ApplySettlement(ctx context.Context, id string, stamp SettlementStamp) (bool, error)
	// MarkOutcome records a failed/cancelled provider outcome on a
	// non-terminal payment.
	MarkOutcome(ctx context.Context, id, status string, stamp SettlementStamp) (bool, error)
	// MarkProcessing records an intermediate provider status. It only moves
	// pending rows, so a late intermediate never downgrades a settled one.
	MarkProcessing(ctx context.Context, id string, stamp SettlementStamp) (bool, error)
	// CancelDuplicate cancels a paid payment with an audit note. The filter
	// requires status "paid" so the guard and the live path cannot race.
	CancelDuplicate(ctx context.Context, id, note string) (bool, error)

	// ListPaid returns all payments currently in status paid.
	ListPaid(ctx context.Context) ([]models.Payment, error)
}

// PaymentRequestRepository defines data access for payment request rows.
type PaymentRequestRepository interface {
	GetByID(ctx context.Context, id string) (*models.PaymentRequest, error)
	// GetActiveByBooking returns the single open (pending/sent) request for a
	// booking, or nil when none exists.
	GetActiveByBooking(ctx context.Context, bookingID string) (*models.PaymentRequest, error)
	GetOpenByCheckoutReference(ctx context.Context, ref string) (*models.PaymentRequest, error)
	// FindRecentOpenByAmount lists open requests with the given amount created
	// after the cutoff, newest first. Last-resort matching heuristic.
	FindRecentOpenByAmount(ctx context.Context, amount float64, cutoff time.Time) ([]models.PaymentRequest, error)
	Create(ctx context.Context, pr *models.PaymentRequest) error

	MarkSentIfPending(ctx context.Context, id string) (bool, error)
	// MarkPaidIfOpen settles an open request. False when the request already
	// reached a terminal state.
	MarkPaidIfOpen(ctx context.Context, id string) (bool, error)
	// CancelIfOpen cancels an open request with a note (supersession, checkout
	// cancelled by provider, booking cancelled).
	CancelIfOpen(ctx context.Context, id, note string) (bool, error)
}
