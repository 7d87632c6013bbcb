package models

import "time"

// Booking status values. Bookings are never deleted, only transitioned.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Booking represents a scheduled clinic appointment.
type Booking struct {
	ID            string    `bson:"id" json:"id"`                         // Unique booking identifier (UUID)
	CustomerID    string    `bson:"customer_id" json:"customer_id"`       // Customer who made the booking
	CustomerEmail string    `bson:"customer_email" json:"customer_email"` // Notification recipient
	Service       string    `bson:"service" json:"service"`               // Raw service descriptor, e.g. "New Patient Exam (from €80) - out of hours"
	Start         time.Time `bson:"start" json:"start"`                   // Scheduled start
	End           time.Time `bson:"end" json:"end"`                       // Scheduled end
	Status        string    `bson:"status" json:"status"`                 // pending | confirmed | cancelled
	Reference     string    `bson:"reference,omitempty" json:"reference,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}
