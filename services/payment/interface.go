package payment

import (
	"context"
	"net/http"

	"clinicbook/models"
)

// RequestService creates and manages payment requests for bookings.
type RequestService interface {
	CreatePaymentRequest(ctx context.Context, bookingID string, policy models.PaymentPolicy) (*models.PaymentRequest, error)
	MarkSent(ctx context.Context, requestID string) error
	CancelForBooking(ctx context.Context, bookingID, note string) error
}

// Authenticator classifies an inbound webhook request.
type Authenticator interface {
	Authenticate(payload []byte, header http.Header) (*AuthResult, error)
}

// Matcher resolves an authenticated event to zero-or-one Payment/PaymentRequest pair.
type Matcher interface {
	Match(ctx context.Context, evt *models.ProviderEvent, mode AuthMode) (*MatchResult, error)
}

// Reconciler applies a matched event to the payment state machine.
type Reconciler interface {
	Apply(ctx context.Context, evt *models.ProviderEvent, target *MatchResult) (Outcome, error)
	RecordUnmatched(ctx context.Context, evt *models.ProviderEvent, raw []byte)
}

// Guard scans for duplicate settlements and resolves them.
type Guard interface {
	ScanAndResolve(ctx context.Context) (*GuardReport, error)
}

// Outcome names the result of applying a webhook event.
type Outcome string

const (
	OutcomeSettled           Outcome = "settled"
	OutcomeFailed            Outcome = "failed"
	OutcomeCancelled         Outcome = "cancelled"
	OutcomeProcessing        Outcome = "processing"
	OutcomeAlreadyProcessed  Outcome = "already_processed"
	OutcomeIllegalTransition Outcome = "illegal_transition"
	OutcomeNoMatch           Outcome = "no_match"
	OutcomeDeadLettered      Outcome = "dead_lettered"
)
