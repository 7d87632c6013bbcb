package payment

import (
	"context"
	"time"

	paymentRepo "clinicbook/database/repository/payment"
	"clinicbook/models"
	"clinicbook/services/notification"

	"go.uber.org/zap"
)

// In-memory fakes mirroring the conditional-update semantics of the Mongo
// repositories. Mutating methods returning bool report false when the filter
// would not have matched.

type fakeBookingRepo struct {
	bookings map[string]*models.Booking
	confirms int
}

func newFakeBookingRepo(bookings ...*models.Booking) *fakeBookingRepo {
	r := &fakeBookingRepo{bookings: map[string]*models.Booking{}}
	for _, b := range bookings {
		r.bookings[b.ID] = b
	}
	return r
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *b
	return &copied, nil
}

func (r *fakeBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	r.bookings[b.ID] = b
	return nil
}

func (r *fakeBookingRepo) ConfirmIfPending(ctx context.Context, id string) (bool, error) {
	b, ok := r.bookings[id]
	if !ok || b.Status != models.BookingStatusPending {
		return false, nil
	}
	b.Status = models.BookingStatusConfirmed
	r.confirms++
	return true, nil
}

func (r *fakeBookingRepo) CancelBooking(ctx context.Context, id string) error {
	if b, ok := r.bookings[id]; ok {
		b.Status = models.BookingStatusCancelled
	}
	return nil
}

type fakePaymentRepo struct {
	payments map[string]*models.Payment

	// failNext makes the next N conditional writes return this error.
	failNext int
	failErr  error
}

func newFakePaymentRepo(payments ...*models.Payment) *fakePaymentRepo {
	r := &fakePaymentRepo{payments: map[string]*models.Payment{}}
	for _, p := range payments {
		r.payments[p.ID] = p
	}
	return r
}

func (r *fakePaymentRepo) maybeFail() error {
	if r.failNext > 0 {
		r.failNext--
		return r.failErr
	}
	return nil
}

func (r *fakePaymentRepo) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (r *fakePaymentRepo) findBy(match func(*models.Payment) bool) *models.Payment {
	for _, p := range r.payments {
		if match(p) {
			copied := *p
			return &copied
		}
	}
	return nil
}

func (r *fakePaymentRepo) GetByCheckoutReference(ctx context.Context, ref string) (*models.Payment, error) {
	if ref == "" {
		return nil, nil
	}
	return r.findBy(func(p *models.Payment) bool { return p.CheckoutReference == ref }), nil
}

func (r *fakePaymentRepo) GetByCheckoutID(ctx context.Context, checkoutID string) (*models.Payment, error) {
	if checkoutID == "" {
		return nil, nil
	}
	return r.findBy(func(p *models.Payment) bool { return p.CheckoutID == checkoutID }), nil
}

func (r *fakePaymentRepo) GetByTransactionID(ctx context.Context, txID string) (*models.Payment, error) {
	if txID == "" {
		return nil, nil
	}
	return r.findBy(func(p *models.Payment) bool { return p.TransactionID == txID }), nil
}

func (r *fakePaymentRepo) MostRecentPendingSince(ctx context.Context, cutoff time.Time) (*models.Payment, error) {
	var newest *models.Payment
	for _, p := range r.payments {
		if p.Status != models.PaymentStatusPending && p.Status != models.PaymentStatusProcessing {
			continue
		}
		if p.CreatedAt.Before(cutoff) {
			continue
		}
		if newest == nil || p.CreatedAt.After(newest.CreatedAt) {
			newest = p
		}
	}
	if newest == nil {
		return nil, nil
	}
	copied := *newest
	return &copied, nil
}

func (r *fakePaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	if err := r.maybeFail(); err != nil {
		return err
	}
	copied := *p
	r.payments[p.ID] = &copied
	return nil
}

func (r *fakePaymentRepo) stamp(p *models.Payment, status string, stamp paymentRepo.SettlementStamp) {
	p.Status = status
	p.EventID = stamp.EventID
	p.EventType = stamp.EventType
	processedAt := stamp.ProcessedAt
	p.WebhookProcessedAt = &processedAt
	if stamp.CheckoutReference != "" {
		p.CheckoutReference = stamp.CheckoutReference
	}
	if stamp.CheckoutID != "" {
		p.CheckoutID = stamp.CheckoutID
	}
	if stamp.TransactionID != "" {
		p.TransactionID = stamp.TransactionID
	}
	p.UpdatedAt = time.Now().UTC()
}

func (r *fakePaymentRepo) ApplySettlement(ctx context.Context, id string, s paymentRepo.SettlementStamp) (bool, error) {
	if err := r.maybeFail(); err != nil {
		return false, err
	}
	p, ok := r.payments[id]
	if !ok || p.Terminal() || p.EventID == s.EventID {
		return false, nil
	}
	r.stamp(p, models.PaymentStatusPaid, s)
	return true, nil
}

func (r *fakePaymentRepo) MarkOutcome(ctx context.Context, id, status string, s paymentRepo.SettlementStamp) (bool, error) {
	if err := r.maybeFail(); err != nil {
		return false, err
	}
	p, ok := r.payments[id]
	if !ok || p.Terminal() || p.EventID == s.EventID {
		return false, nil
	}
	r.stamp(p, status, s)
	return true, nil
}

func (r *fakePaymentRepo) MarkProcessing(ctx context.Context, id string, s paymentRepo.SettlementStamp) (bool, error) {
	if err := r.maybeFail(); err != nil {
		return false, err
	}
	p, ok := r.payments[id]
	if !ok {
		return false, nil
	}
	if p.Status != models.PaymentStatusPending && p.Status != models.PaymentStatusProcessing {
		return false, nil
	}
	p.Status = models.PaymentStatusProcessing
	p.EventType = s.EventType
	p.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *fakePaymentRepo) CancelDuplicate(ctx context.Context, id, note string) (bool, error) {
	p, ok := r.payments[id]
	if !ok || p.Status != models.PaymentStatusPaid {
		return false, nil
	}
	p.Status = models.PaymentStatusCancelled
	p.Notes = note
	p.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *fakePaymentRepo) ListPaid(ctx context.Context) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range r.payments {
		if p.Status == models.PaymentStatusPaid {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeRequestRepo struct {
	requests map[string]*models.PaymentRequest
}

func newFakeRequestRepo(requests ...*models.PaymentRequest) *fakeRequestRepo {
	r := &fakeRequestRepo{requests: map[string]*models.PaymentRequest{}}
	for _, pr := range requests {
		r.requests[pr.ID] = pr
	}
	return r
}

func (r *fakeRequestRepo) GetByID(ctx context.Context, id string) (*models.PaymentRequest, error) {
	pr, ok := r.requests[id]
	if !ok {
		return nil, nil
	}
	copied := *pr
	return &copied, nil
}

func (r *fakeRequestRepo) GetActiveByBooking(ctx context.Context, bookingID string) (*models.PaymentRequest, error) {
	for _, pr := range r.requests {
		if pr.BookingID == bookingID && pr.Open() {
			copied := *pr
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRequestRepo) GetOpenByCheckoutReference(ctx context.Context, ref string) (*models.PaymentRequest, error) {
	if ref == "" {
		return nil, nil
	}
	for _, pr := range r.requests {
		if pr.CheckoutReference == ref && pr.Open() {
			copied := *pr
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRequestRepo) FindRecentOpenByAmount(ctx context.Context, amount float64, cutoff time.Time) ([]models.PaymentRequest, error) {
	var out []models.PaymentRequest
	for _, pr := range r.requests {
		if pr.Open() && pr.Amount == amount && !pr.CreatedAt.Before(cutoff) {
			out = append(out, *pr)
		}
	}
	// Newest first.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) Create(ctx context.Context, pr *models.PaymentRequest) error {
	copied := *pr
	r.requests[pr.ID] = &copied
	return nil
}

func (r *fakeRequestRepo) MarkSentIfPending(ctx context.Context, id string) (bool, error) {
	pr, ok := r.requests[id]
	if !ok || pr.Status != models.RequestStatusPending {
		return false, nil
	}
	pr.Status = models.RequestStatusSent
	return true, nil
}

func (r *fakeRequestRepo) MarkPaidIfOpen(ctx context.Context, id string) (bool, error) {
	pr, ok := r.requests[id]
	if !ok || !pr.Open() {
		return false, nil
	}
	pr.Status = models.RequestStatusPaid
	return true, nil
}

func (r *fakeRequestRepo) CancelIfOpen(ctx context.Context, id, note string) (bool, error) {
	pr, ok := r.requests[id]
	if !ok || !pr.Open() {
		return false, nil
	}
	pr.Status = models.RequestStatusCancelled
	pr.Note = note
	return true, nil
}

type fakeLogRepo struct {
	entries []models.WebhookLog
}

func (r *fakeLogRepo) Record(ctx context.Context, entry *models.WebhookLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeLogRepo) List(ctx context.Context, kind string, limit int64) ([]models.WebhookLog, error) {
	var out []models.WebhookLog
	for _, e := range r.entries {
		if kind == "" || e.Kind == kind {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeLogRepo) MarkResolved(ctx context.Context, id string) error {
	for i := range r.entries {
		if r.entries[i].ID == id {
			r.entries[i].Resolved = true
		}
	}
	return nil
}

func (r *fakeLogRepo) byKind(kind string) []models.WebhookLog {
	var out []models.WebhookLog
	for _, e := range r.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type fakePricing struct {
	prices map[string]ServicePrice
}

func (f *fakePricing) GetServicePrice(ctx context.Context, name, classification string) (*ServicePrice, error) {
	if price, ok := f.prices[name+"|"+classification]; ok {
		return &price, nil
	}
	if price, ok := f.prices[name+"|"+SlotStandard]; ok {
		return &price, nil
	}
	return nil, nil
}

type sentNotification struct {
	Kind      notification.Kind
	Recipient string
	Data      map[string]string
}

type fakeDispatcher struct {
	sent []sentNotification
}

func (d *fakeDispatcher) Send(ctx context.Context, kind notification.Kind, recipient string, data map[string]string) bool {
	d.sent = append(d.sent, sentNotification{Kind: kind, Recipient: recipient, Data: data})
	return true
}

func (d *fakeDispatcher) byKind(kind notification.Kind) []sentNotification {
	var out []sentNotification
	for _, n := range d.sent {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
