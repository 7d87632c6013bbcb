package bookingRepo

import (
	"context"

	"clinicbook/models"
)

// BookingRepository defines booking data access for the payment engine.
// Bookings are owned by the booking flow; the engine only reads them and
// flips status under the single rule "payment received -> confirmed".
type BookingRepository interface {
	// GetByID returns nil (no error) when the booking does not exist.
	GetByID(ctx context.Context, bookingID string) (*models.Booking, error)
	Create(ctx context.Context, booking *models.Booking) error
	// ConfirmIfPending transitions a booking from pending to confirmed.
	// Returns false when the booking was not pending (already confirmed or
	// cancelled), which callers treat as a no-op, not an error.
	ConfirmIfPending(ctx context.Context, bookingID string) (bool, error)
	CancelBooking(ctx context.Context, bookingID string) error
}
