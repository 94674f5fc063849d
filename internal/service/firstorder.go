package service

import (
	"context"
	"time"

	"gosembako/config"
	"gosembako/internal/logging"
	"gosembako/internal/phone"
	"gosembako/internal/repository"
)

// FirstOrderDetector decides whether an order just placed for a phone is that
// phone's first. The orders sheet may not yet reflect the write, so a zero
// count is retried before being believed.
type FirstOrderDetector struct {
	orders  *repository.OrderRepository
	retries int
	delay   time.Duration
	log     logging.Logger
}

func NewFirstOrderDetector(orders *repository.OrderRepository, cfg *config.ReferralConfig, log logging.Logger) *FirstOrderDetector {
	return &FirstOrderDetector{
		orders:  orders,
		retries: cfg.FirstOrderRetries,
		delay:   cfg.FirstOrderDelay,
		log:     log,
	}
}

// IsFirstOrder returns true iff the eventually observed order count for the
// phone is exactly 1. A count of zero is ambiguous — the order's write may
// simply not be visible yet — so zero is re-read up to retries times with
// fixed spacing. Zero after the retry budget is treated as "not first order"
// (deny by default, never credit on ambiguous state) and logged as a
// consistency anomaly rather than raised.
func (d *FirstOrderDetector) IsFirstOrder(ctx context.Context, canonical phone.Canonical) (bool, error) {
	storePhone, err := phone.ForStore(canonical, repository.SheetOrders)
	if err != nil {
		return false, err
	}

	for attempt := 0; ; attempt++ {
		count, err := d.orders.CountByPhone(ctx, storePhone)
		if err != nil {
			return false, err
		}
		if count > 0 {
			return count == 1, nil
		}
		if attempt >= d.retries {
			d.log.Warn(ctx, "consistency anomaly: zero orders observed after retries",
				"phone", storePhone, "attempts", attempt+1)
			return false, nil
		}
		select {
		case <-time.After(d.delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

// IsFirstTimeBuyer reports whether the phone has no orders at all. This is
// the checkout-time variant: the order being evaluated has not been written
// yet, so zero is the expected count for a new customer and is read once,
// without the retry bias.
func (d *FirstOrderDetector) IsFirstTimeBuyer(ctx context.Context, canonical phone.Canonical) (bool, error) {
	storePhone, err := phone.ForStore(canonical, repository.SheetOrders)
	if err != nil {
		return false, err
	}
	count, err := d.orders.CountByPhone(ctx, storePhone)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
