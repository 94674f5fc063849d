package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"gosembako/internal/logging"
	"gosembako/internal/models"
	"gosembako/internal/repository"
)

// Settlement credits a referrer exactly once for a referred user's first
// order and marks the referral record completed.
//
// The durable states are only the record's status field (pending/completed);
// "settling" exists solely as the in-process busy flag. Every invocation
// re-derives its position from the store, so settle is safe to call again
// after any mid-sequence failure — including from a different process than
// the one that started, with the caveat that cross-process races remain
// unguarded because the store has no conditional write.
type Settlement struct {
	users     *repository.UserRepository
	referrals *repository.ReferralRepository
	log       logging.Logger

	busy atomic.Bool
	now  func() time.Time
}

func NewSettlement(users *repository.UserRepository, referrals *repository.ReferralRepository, log logging.Logger) *Settlement {
	return &Settlement{users: users, referrals: referrals, log: log, now: time.Now}
}

// Settle runs the crediting sequence for the referred user. Expected non-error
// outcomes (AlreadyCredited, NoPendingReferral, ReferrerMissing) come back as
// the outcome status, not as errors; only ErrBusy and store failures error.
func (s *Settlement) Settle(ctx context.Context, referred *models.User) (*models.SettlementOutcome, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.busy.Store(false)

	if referred.ReferrerCode == "" {
		return &models.SettlementOutcome{Status: models.SettlementNoPendingReferral}, nil
	}

	// Absence covers the directory's partial-failure window: a user may carry
	// a referrer_code without a referral record ever having been written.
	rec, err := s.referrals.FindByPair(ctx, referred.ReferrerCode, referred.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &models.SettlementOutcome{Status: models.SettlementNoPendingReferral}, nil
		}
		return nil, err
	}

	// The idempotency gate. Client retries, duplicate triggers, and page
	// reloads all funnel through here; a completed record means every write
	// below already happened.
	if rec.Status == models.ReferralCompleted {
		return &models.SettlementOutcome{Status: models.SettlementAlreadyCredited, Points: rec.RewardPoints}, nil
	}

	referrer, err := s.users.FindByReferralCode(ctx, rec.ReferrerCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn(ctx, "referrer missing for pending referral",
				"referral_id", rec.ReferralID, "referrer_code", rec.ReferrerCode)
			return &models.SettlementOutcome{Status: models.SettlementReferrerMissing}, nil
		}
		return nil, err
	}

	newBalance := referrer.TotalPoints + rec.RewardPoints
	if err := s.users.SetPoints(ctx, referrer.UserID, newBalance); err != nil {
		return nil, err
	}

	if err := s.referrals.MarkCompleted(ctx, rec, s.now().Format(models.TimeLayout)); err != nil {
		// Balance advanced but the record still reads pending. Without a
		// conditional write on status there is no way to close this window;
		// surface the error and leave the record for reconciliation.
		return nil, err
	}

	s.log.Info(ctx, "referral settled",
		"referral_id", rec.ReferralID,
		"referrer", referrer.UserID,
		"points", rec.RewardPoints,
		"balance", newBalance)
	return &models.SettlementOutcome{Status: models.SettlementCredited, Points: rec.RewardPoints}, nil
}
