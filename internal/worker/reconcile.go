// Package worker periodically re-runs settlement for referral records stuck in
// pending. The store is eventually consistent and the crediting sequence can be
// interrupted between its writes, so some pending records belong to users whose
// first order has long since landed; settlement's idempotency makes re-running
// them safe.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron/v2"

	"gosembako/config"
	"gosembako/internal/logging"
	"gosembako/internal/phone"
	"gosembako/internal/repository"
	"gosembako/internal/service"
)

type Reconciler struct {
	users      *repository.UserRepository
	referrals  *repository.ReferralRepository
	orders     *repository.OrderRepository
	settlement *service.Settlement
	interval   time.Duration
	log        logging.Logger

	sched gocron.Scheduler
}

func NewReconciler(
	users *repository.UserRepository,
	referrals *repository.ReferralRepository,
	orders *repository.OrderRepository,
	settlement *service.Settlement,
	cfg *config.WorkerConfig,
	log logging.Logger,
) *Reconciler {
	return &Reconciler{
		users:      users,
		referrals:  referrals,
		orders:     orders,
		settlement: settlement,
		interval:   cfg.ReconcileInterval,
		log:        log,
	}
}

func (r *Reconciler) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), r.interval)
			defer cancel()
			r.runOnce(ctx)
		}),
	)
	if err != nil {
		return err
	}
	sched.Start()
	r.sched = sched
	return nil
}

func (r *Reconciler) Stop() {
	if r.sched != nil {
		_ = r.sched.Shutdown()
	}
}

// runOnce settles every pending record whose referred user has at least one
// order on file. Records for users who have not ordered yet stay pending.
func (r *Reconciler) runOnce(ctx context.Context) {
	pending, err := r.referrals.ListPending(ctx)
	if err != nil {
		r.log.Warn(ctx, "reconcile: pending list failed", "err", err)
		return
	}
	if len(pending) == 0 {
		return
	}
	r.log.Info(ctx, "reconcile: examining pending referrals", "count", len(pending))

	for _, rec := range pending {
		user, err := r.users.FindByID(ctx, rec.ReferredUserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				r.log.Warn(ctx, "reconcile: referred user missing", "referral_id", rec.ReferralID)
				continue
			}
			r.log.Warn(ctx, "reconcile: user lookup failed", "referral_id", rec.ReferralID, "err", err)
			continue
		}

		canonical, err := phone.Normalize(user.Phone)
		if err != nil {
			continue
		}
		storePhone, err := phone.ForStore(canonical, repository.SheetOrders)
		if err != nil {
			continue
		}
		count, err := r.orders.CountByPhone(ctx, storePhone)
		if err != nil {
			r.log.Warn(ctx, "reconcile: order count failed", "referral_id", rec.ReferralID, "err", err)
			continue
		}
		if count == 0 {
			continue
		}

		outcome, err := r.settlement.Settle(ctx, user)
		if err != nil {
			if errors.Is(err, service.ErrBusy) {
				return
			}
			r.log.Warn(ctx, "reconcile: settlement failed", "referral_id", rec.ReferralID, "err", err)
			continue
		}
		r.log.Info(ctx, "reconcile: settled", "referral_id", rec.ReferralID, "status", outcome.Status.String())
	}
}
