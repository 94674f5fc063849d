package service

import (
	"context"
	"errors"
	"math"

	"gosembako/config"
	"gosembako/internal/attribution"
	"gosembako/internal/models"
	"gosembako/internal/phone"
	"gosembako/internal/repository"
)

// DiscountEngine computes first-order referral discount eligibility. It is
// read-only and safe to call repeatedly (the storefront fires it on every
// phone-field change; debouncing is the caller's job).
type DiscountEngine struct {
	users    *repository.UserRepository
	tracker  *attribution.Tracker
	detector *FirstOrderDetector
	percent  int64
}

func NewDiscountEngine(
	users *repository.UserRepository,
	tracker *attribution.Tracker,
	detector *FirstOrderDetector,
	cfg *config.ReferralConfig,
) *DiscountEngine {
	return &DiscountEngine{
		users:    users,
		tracker:  tracker,
		detector: detector,
		percent:  int64(cfg.DiscountPercent),
	}
}

// Evaluate checks eligibility in order, short-circuiting with a distinct
// reason at the first failing condition: attribution present, code resolves
// to a referrer, no self-referral, first order.
func (e *DiscountEngine) Evaluate(ctx context.Context, rawPhone string, cartTotal int64) (*models.DiscountResult, error) {
	ineligible := func(reason string) *models.DiscountResult {
		return &models.DiscountResult{Eligible: false, Reason: reason, FinalTotal: cartTotal}
	}

	code, ok := e.tracker.Current()
	if !ok {
		return ineligible(models.ReasonNoCode), nil
	}

	referrer, err := e.users.FindByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ineligible(models.ReasonInvalidCode), nil
		}
		return nil, err
	}

	canonical, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, err
	}
	referrerCanonical, err := phone.Normalize(referrer.Phone)
	if err == nil && referrerCanonical == canonical {
		return ineligible(models.ReasonSelfReferral), nil
	}

	first, err := e.detector.IsFirstTimeBuyer(ctx, canonical)
	if err != nil {
		return nil, err
	}
	if !first {
		return ineligible(models.ReasonNotFirstOrder), nil
	}

	discount := int64(math.Round(float64(cartTotal) * float64(e.percent) / 100))
	return &models.DiscountResult{
		Eligible:       true,
		DiscountAmount: discount,
		FinalTotal:     cartTotal - discount,
		ReferrerPhone:  referrer.Phone,
		ReferralCode:   code,
	}, nil
}
