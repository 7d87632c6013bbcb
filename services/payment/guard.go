package payment

import (
	"context"
	"fmt"
	"sort"
	"time"

	paymentRepo "clinicbook/database/repository/payment"
	"clinicbook/models"

	"go.uber.org/zap"
)

// GuardReport summarizes one duplicate scan.
type GuardReport struct {
	RanAt           time.Time `json:"ranAt"`
	ScannedPaid     int       `json:"scannedPaid"`
	Groups          int       `json:"groups"`
	DuplicateGroups int       `json:"duplicateGroups"`
	Cancelled       int       `json:"cancelled"`
	CancelledIDs    []string  `json:"cancelledIds,omitempty"`
}

// DuplicateGuard enforces the one-paid-payment-per-request invariant
// independently of the live webhook path: defense in depth against matcher
// bugs. Safe to re-run; cancelled rows drop out of the grouping.
type DuplicateGuard struct {
	Payments paymentRepo.PaymentRepository
	Logger   *zap.Logger
}

// ScanAndResolve groups paid payments by their payment request (falling back
// to bookingID+amount), keeps the earliest-created row of each group as
// canonical, and cancels the rest with an audit note naming the canonical id.
func (g *DuplicateGuard) ScanAndResolve(ctx context.Context) (*GuardReport, error) {
	paid, err := g.Payments.ListPaid(ctx)
	if err != nil {
		return nil, fmt.Errorf("duplicate scan failed to list paid payments: %w", err)
	}

	groups := make(map[string][]models.Payment)
	for _, p := range paid {
		key := groupKey(p)
		groups[key] = append(groups[key], p)
	}

	report := &GuardReport{
		RanAt:       time.Now().UTC(),
		ScannedPaid: len(paid),
		Groups:      len(groups),
	}

	for key, group := range groups {
		if len(group) < 2 {
			continue
		}
		report.DuplicateGroups++

		sort.Slice(group, func(i, j int) bool {
			return group[i].CreatedAt.Before(group[j].CreatedAt)
		})
		canonical := group[0]
		g.Logger.Warn("duplicate paid payments detected",
			zap.String("group", key),
			zap.String("canonical", canonical.ID),
			zap.Int("duplicates", len(group)-1))

		for _, dup := range group[1:] {
			note := fmt.Sprintf("cancelled by duplicate guard: duplicate of payment %s", canonical.ID)
			cancelled, err := g.Payments.CancelDuplicate(ctx, dup.ID, note)
			if err != nil {
				return report, fmt.Errorf("duplicate scan failed to cancel payment %s: %w", dup.ID, err)
			}
			// A lost conditional write means the row changed under us
			// (e.g. a concurrent scan already cancelled it).
			if cancelled {
				report.Cancelled++
				report.CancelledIDs = append(report.CancelledIDs, dup.ID)
			}
		}
	}

	g.Logger.Info("duplicate scan completed",
		zap.Int("scanned", report.ScannedPaid),
		zap.Int("duplicateGroups", report.DuplicateGroups),
		zap.Int("cancelled", report.Cancelled))
	return report, nil
}

// groupKey resolves the settlement identity of a paid payment: the payment
// request when linked, else booking+amount, else the row itself (singleton).
func groupKey(p models.Payment) string {
	if p.PaymentRequestID != "" {
		return "request:" + p.PaymentRequestID
	}
	if p.BookingID != "" {
		return fmt.Sprintf("booking:%s:%.2f", p.BookingID, p.Amount)
	}
	return "payment:" + p.ID
}
