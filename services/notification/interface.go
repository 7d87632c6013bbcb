package notification

import "context"

// Kind names a customer/admin notification trigger.
type Kind string

const (
	KindPaymentRequest   Kind = "payment_request"
	KindPaymentReceived  Kind = "payment_received"
	KindPaymentFailed    Kind = "payment_failed"
	KindBookingConfirmed Kind = "booking_confirmed"
)

// Dispatcher triggers customer/admin emails keyed off state-machine
// transitions. Fire-and-forget: failures are logged, never retried
// synchronously, and must never block the caller.
type Dispatcher interface {
	Send(ctx context.Context, kind Kind, recipient string, data map[string]string) bool
}

// EmailSender is the outbound delivery collaborator the worker hands tasks to.
type EmailSender interface {
	Send(ctx context.Context, kind Kind, recipient string, data map[string]string) error
}
