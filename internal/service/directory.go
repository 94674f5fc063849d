package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"gosembako/config"
	"gosembako/internal/attribution"
	"gosembako/internal/logging"
	"gosembako/internal/models"
	"gosembako/internal/phone"
	"gosembako/internal/referral"
	"gosembako/internal/repository"
)

// Directory owns find-or-create of user rows keyed by normalized phone.
// Attaching a referrer code happens here and only here, at creation time;
// an existing user's referrer_code is never touched again.
type Directory struct {
	users     *repository.UserRepository
	referrals *repository.ReferralRepository
	tracker   *attribution.Tracker
	cfg       *config.ReferralConfig
	log       logging.Logger

	busy atomic.Bool
	now  func() time.Time
}

func NewDirectory(
	users *repository.UserRepository,
	referrals *repository.ReferralRepository,
	tracker *attribution.Tracker,
	cfg *config.ReferralConfig,
	log logging.Logger,
) *Directory {
	return &Directory{
		users:     users,
		referrals: referrals,
		tracker:   tracker,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// FindOrCreate returns the user for rawPhone, creating one when absent.
// The boolean reports whether a new row was created. A pending attribution
// code is attached to a newly created user and a pending ReferralRecord is
// written; if that second insert fails the user still stands — settlement
// treats a missing record as "nothing to settle", not an error.
func (d *Directory) FindOrCreate(ctx context.Context, rawPhone, displayName string) (*models.User, bool, error) {
	if !d.busy.CompareAndSwap(false, true) {
		return nil, false, ErrBusy
	}
	defer d.busy.Store(false)

	canonical, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, false, err
	}
	storePhone, err := phone.ForStore(canonical, repository.SheetUsers)
	if err != nil {
		return nil, false, err
	}

	existing, err := d.users.FindByPhone(ctx, storePhone)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	code, err := d.mintUniqueCode(ctx, displayName)
	if err != nil {
		return nil, false, err
	}

	referrerCode, _ := d.tracker.Current()

	user := &models.User{
		UserID:       "USR-" + uuid.NewString(),
		Name:         displayName,
		Phone:        storePhone,
		ReferralCode: code,
		ReferrerCode: referrerCode,
		CreatedAt:    d.now().Format(models.TimeLayout),
	}
	if err := d.users.Insert(ctx, user); err != nil {
		return nil, false, err
	}

	if referrerCode != "" {
		rec := &models.ReferralRecord{
			ReferralID:     "REF-" + uuid.NewString(),
			ReferrerCode:   referrerCode,
			ReferredUserID: user.UserID,
			ReferredName:   displayName,
			Status:         models.ReferralPending,
			RewardPoints:   d.cfg.RewardPoints,
			CreatedAt:      user.CreatedAt,
		}
		if err := d.referrals.Insert(ctx, rec); err != nil {
			// Partial failure: the user exists with referrer_code set but no
			// referral record. Downstream tolerates the absence.
			d.log.Warn(ctx, "referral record insert failed after user creation",
				"user_id", user.UserID, "referrer_code", referrerCode, "err", err)
		}
		d.tracker.Consume()
	}

	d.log.Info(ctx, "user created", "user_id", user.UserID, "referrer_code", referrerCode)
	return user, true, nil
}

// mintUniqueCode retries generation + store uniqueness check a bounded number
// of times.
func (d *Directory) mintUniqueCode(ctx context.Context, name string) (string, error) {
	for i := 0; i < d.cfg.CodeAttempts; i++ {
		code := referral.GenerateCode(name)
		_, err := d.users.FindByReferralCode(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrCodeGenerationExhausted, d.cfg.CodeAttempts)
}
