package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gosembako/config"
	"gosembako/internal/attribution"
	"gosembako/internal/logging"
	"gosembako/internal/repository"
	"gosembako/internal/sheetdb"
	"gosembako/internal/sheetdb/sheetdbtest"
)

type testEnv struct {
	store     *sheetdbtest.Store
	users     *repository.UserRepository
	referrals *repository.ReferralRepository
	orders    *repository.OrderRepository
	tracker   *attribution.Tracker
	cfg       *config.ReferralConfig
	log       logging.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := sheetdbtest.New()
	t.Cleanup(store.Close)

	log := logging.NewNop()
	client := sheetdb.New(store.Config(), log)

	tracker, err := attribution.NewTracker(filepath.Join(t.TempDir(), "attribution.json"), 30*24*time.Hour)
	require.NoError(t, err)

	return &testEnv{
		store:     store,
		users:     repository.NewUserRepository(client),
		referrals: repository.NewReferralRepository(client, log),
		orders:    repository.NewOrderRepository(client),
		tracker:   tracker,
		cfg: &config.ReferralConfig{
			DiscountPercent:   10,
			RewardPoints:      10000,
			CodeAttempts:      5,
			ShareBaseURL:      "https://paketsembako.com",
			FirstOrderRetries: 2,
			FirstOrderDelay:   time.Millisecond,
		},
		log: log,
	}
}

func (e *testEnv) seedUser(userID, name, storePhone, referralCode, referrerCode string, points int64) {
	e.store.Seed(repository.SheetUsers, map[string]any{
		"user_id":       userID,
		"name":          name,
		"whatsapp_no":   storePhone,
		"referral_code": referralCode,
		"referrer_code": referrerCode,
		"total_points":  points,
	})
}

func (e *testEnv) seedOrder(orderID, storePhone string) {
	e.store.Seed(repository.SheetOrders, map[string]any{
		"order_id": orderID,
		"phone":    storePhone,
		"status":   "done",
	})
}

func (e *testEnv) seedReferral(referralID, referrerCode, referredUserID, status string, points int64) {
	e.store.Seed(repository.SheetReferrals, map[string]any{
		"referral_id":      referralID,
		"referrer_code":    referrerCode,
		"referred_user_id": referredUserID,
		"status":           status,
		"reward_points":    points,
	})
}
