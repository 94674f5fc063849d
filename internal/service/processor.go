package service

import (
	"context"
	"errors"

	"gosembako/internal/logging"
	"gosembako/internal/models"
	"gosembako/internal/phone"
)

// OrderProcessor runs the post-order referral pipeline: find-or-create the
// customer, confirm first-order status, and settle the pending referral.
// It is invoked after the order row is persisted by checkout and again by the
// reconciliation worker; both paths rely on settlement's idempotency.
type OrderProcessor struct {
	directory  *Directory
	detector   *FirstOrderDetector
	settlement *Settlement
	log        logging.Logger
}

func NewOrderProcessor(directory *Directory, detector *FirstOrderDetector, settlement *Settlement, log logging.Logger) *OrderProcessor {
	return &OrderProcessor{directory: directory, detector: detector, settlement: settlement, log: log}
}

// ProcessResult summarizes what the pipeline did for one order.
type ProcessResult struct {
	User              *models.User              `json:"user"`
	FirstOrder        bool                      `json:"first_order"`
	ReferralProcessed bool                      `json:"referral_processed"`
	Settlement        *models.SettlementOutcome `json:"-"`
}

// ProcessOrder never fails the surrounding commerce flow: store errors are
// returned so the caller can log them, but the caller is expected to treat
// them as bookkeeping failures, not order failures.
func (p *OrderProcessor) ProcessOrder(ctx context.Context, rawPhone, customerName string) (*ProcessResult, error) {
	user, _, err := p.directory.FindOrCreate(ctx, rawPhone, customerName)
	if err != nil {
		return nil, err
	}

	canonical, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, err
	}
	first, err := p.detector.IsFirstOrder(ctx, canonical)
	if err != nil {
		return nil, err
	}

	result := &ProcessResult{User: user, FirstOrder: first}
	if !first || user.ReferrerCode == "" {
		return result, nil
	}

	outcome, err := p.settlement.Settle(ctx, user)
	if err != nil {
		if errors.Is(err, ErrBusy) {
			p.log.Info(ctx, "settlement already in progress, skipping", "user_id", user.UserID)
			return result, nil
		}
		return nil, err
	}
	result.Settlement = outcome
	result.ReferralProcessed = outcome.Status == models.SettlementCredited
	return result, nil
}
