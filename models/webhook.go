package models

import "time"

// ProviderEventData is the nested payload of a provider webhook event.
type ProviderEventData struct {
	CheckoutID    string  `json:"checkoutId,omitempty"`
	Reference     string  `json:"reference,omitempty"`
	TransactionID string  `json:"transactionId,omitempty"`
	Status        string  `json:"status,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	Currency      string  `json:"currency,omitempty"`
	CustomerEmail string  `json:"customerEmail,omitempty"`
}

// ProviderEvent is a parsed payment-provider webhook notification. Deliveries
// may arrive zero, one, or many times, in any order.
type ProviderEvent struct {
	EventType string            `json:"eventType"`
	EventID   string            `json:"eventId"`
	Test      bool              `json:"test,omitempty"` // Payload self-tagged as test traffic
	Data      ProviderEventData `json:"data"`
}

// WebhookLog kinds.
const (
	WebhookLogUnmatched         = "unmatched"
	WebhookLogDeadLetter        = "dead_letter"
	WebhookLogIllegalTransition = "illegal_transition"
	WebhookLogAuthReject        = "auth_reject"
)

// WebhookLog is an audit row for events that need manual review or
// reprocessing: unmatched events, dead-lettered writes, illegal transitions
// and rejected deliveries.
type WebhookLog struct {
	ID        string    `bson:"id" json:"id"`
	Kind      string    `bson:"kind" json:"kind"`
	EventID   string    `bson:"event_id,omitempty" json:"event_id,omitempty"`
	EventType string    `bson:"event_type,omitempty" json:"event_type,omitempty"`
	Payload   string    `bson:"payload,omitempty" json:"payload,omitempty"` // Raw JSON body as received
	Error     string    `bson:"error,omitempty" json:"error,omitempty"`
	Resolved  bool      `bson:"resolved" json:"resolved"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
