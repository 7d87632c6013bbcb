package models

import "time"

// PaymentRequest status values. Terminal states are final.
const (
	RequestStatusPending   = "pending"
	RequestStatusSent      = "sent"
	RequestStatusPaid      = "paid"
	RequestStatusExpired   = "expired"
	RequestStatusCancelled = "cancelled"
)

// Payment type values for a PaymentRequest.
const (
	PaymentTypeDeposit = "deposit"
	PaymentTypeFull    = "full"
)

// Payment status values.
const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusPaid       = "paid"
	PaymentStatusFailed     = "failed"
	PaymentStatusRefunded   = "refunded"
	PaymentStatusCancelled  = "cancelled"
)

// PaymentRequest is an obligation to pay an amount tied to exactly one booking.
// At most one pending/sent request may exist per booking at any time.
type PaymentRequest struct {
	ID                string    `bson:"id" json:"id"`
	BookingID         string    `bson:"booking_id" json:"booking_id"`
	CustomerID        string    `bson:"customer_id" json:"customer_id"`
	Amount            float64   `bson:"amount" json:"amount"`
	Currency          string    `bson:"currency" json:"currency"`
	PaymentType       string    `bson:"payment_type" json:"payment_type"` // deposit | full
	Status            string    `bson:"status" json:"status"`             // pending | sent | paid | expired | cancelled
	DueDate           time.Time `bson:"due_date" json:"due_date"`
	CheckoutReference string    `bson:"checkout_reference,omitempty" json:"checkout_reference,omitempty"` // Recorded at creation for webhook correlation
	InvoiceID         string    `bson:"invoice_id,omitempty" json:"invoice_id,omitempty"`
	Note              string    `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updated_at"`
}

// Open reports whether the request is still awaiting payment.
func (pr *PaymentRequest) Open() bool {
	return pr.Status == RequestStatusPending || pr.Status == RequestStatusSent
}

// Payment is a concrete settlement attempt/outcome, created either at checkout
// initiation or synthesized by the first matching webhook event.
type Payment struct {
	ID                 string     `bson:"id" json:"id"`
	PaymentRequestID   string     `bson:"payment_request_id,omitempty" json:"payment_request_id,omitempty"`
	BookingID          string     `bson:"booking_id,omitempty" json:"booking_id,omitempty"`
	InvoiceID          string     `bson:"invoice_id,omitempty" json:"invoice_id,omitempty"`
	Amount             float64    `bson:"amount" json:"amount"`
	Currency           string     `bson:"currency" json:"currency"`
	Status             string     `bson:"status" json:"status"` // pending | processing | paid | failed | refunded | cancelled
	CheckoutReference  string     `bson:"checkout_reference,omitempty" json:"checkout_reference,omitempty"`
	CheckoutID         string     `bson:"checkout_id,omitempty" json:"checkout_id,omitempty"`
	TransactionID      string     `bson:"transaction_id,omitempty" json:"transaction_id,omitempty"`
	EventID            string     `bson:"event_id,omitempty" json:"event_id,omitempty"`     // Last applied provider event id
	EventType          string     `bson:"event_type,omitempty" json:"event_type,omitempty"` // Last applied provider event type
	WebhookProcessedAt *time.Time `bson:"webhook_processed_at,omitempty" json:"webhook_processed_at,omitempty"`
	Notes              string     `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt          time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `bson:"updated_at" json:"updated_at"`
}

// Terminal reports whether the payment status is final and must not change.
func (p *Payment) Terminal() bool {
	switch p.Status {
	case PaymentStatusPaid, PaymentStatusRefunded, PaymentStatusCancelled:
		return true
	}
	return false
}

// PaymentPolicy selects between a full-price request and a percentage deposit.
type PaymentPolicy struct {
	Type       string `json:"type"`                 // deposit | full
	Percentage int    `json:"percentage,omitempty"` // deposit only, bounded 1-100, default 20
}
