package payment

import "fmt"

// PricingNotFoundError is recoverable: the caller degrades to a manual
// "contact for quote" flow and no payment request is created.
type PricingNotFoundError struct {
	Service string
}

func (e *PricingNotFoundError) Error() string {
	return fmt.Sprintf("pricingNotFound: no price configured for service %q", e.Service)
}

// BookingNotFoundError aborts payment request creation with a user-facing error.
type BookingNotFoundError struct {
	BookingID string
}

func (e *BookingNotFoundError) Error() string {
	return fmt.Sprintf("bookingNotFound: booking %q does not exist", e.BookingID)
}

// InvalidSignatureError is fatal for the request. The reason is for internal
// logs only and must never be echoed back to the caller.
type InvalidSignatureError struct {
	Reason string
}

func (e *InvalidSignatureError) Error() string {
	return fmt.Sprintf("invalidSignature: %s", e.Reason)
}

// UnauthenticatedError rejects traffic that carries no verifiable identity.
type UnauthenticatedError struct{}

func (e *UnauthenticatedError) Error() string {
	return "unauthenticated: webhook request carries no verifiable identity"
}

// IllegalTransitionError marks an event that would move a payment out of a
// terminal state. It is logged and flagged for review, never silently applied.
type IllegalTransitionError struct {
	PaymentID string
	From      string
	Event     string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegalTransition: payment %s is %s, cannot apply %s", e.PaymentID, e.From, e.Event)
}
