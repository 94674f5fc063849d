package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"gosembako/internal/models"
)

func newDiscountEngine(env *testEnv) *DiscountEngine {
	detector := NewFirstOrderDetector(env.orders, env.cfg, env.log)
	return NewDiscountEngine(env.users, env.tracker, detector, env.cfg)
}

func TestEvaluateNoAttribution(t *testing.T) {
	env := newTestEnv(t)
	engine := newDiscountEngine(env)

	result, err := engine.Evaluate(context.Background(), "08123456789", 50000)
	require.NoError(t, err)
	require.False(t, result.Eligible)
	require.Equal(t, models.ReasonNoCode, result.Reason)
	require.Equal(t, int64(50000), result.FinalTotal)
}

func TestEvaluateUnknownCode(t *testing.T) {
	env := newTestEnv(t)
	env.tracker.CaptureCode("NOPE0000", "link")
	engine := newDiscountEngine(env)

	result, err := engine.Evaluate(context.Background(), "08123456789", 50000)
	require.NoError(t, err)
	require.False(t, result.Eligible)
	require.Equal(t, models.ReasonInvalidCode, result.Reason)
}

func TestEvaluateSelfReferral(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("USR-1", "Budi", "08123456789", "BUDI1234", "", 0)
	env.tracker.CaptureCode("BUDI1234", "link")
	engine := newDiscountEngine(env)

	// Same person, different formatting of the same number.
	result, err := engine.Evaluate(context.Background(), "+62 812-3456-789", 50000)
	require.NoError(t, err)
	require.False(t, result.Eligible)
	require.Equal(t, models.ReasonSelfReferral, result.Reason)
}

func TestEvaluateReturningCustomer(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("USR-1", "Budi", "08111111111", "BUDI1234", "", 0)
	env.seedOrder("ORD-1", "08222222222")
	env.tracker.CaptureCode("BUDI1234", "link")
	engine := newDiscountEngine(env)

	result, err := engine.Evaluate(context.Background(), "08222222222", 50000)
	require.NoError(t, err)
	require.False(t, result.Eligible)
	require.Equal(t, models.ReasonNotFirstOrder, result.Reason)
}

func TestEvaluateEligible(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("USR-1", "Budi", "08111111111", "BUDI1234", "", 0)
	env.tracker.CaptureCode("BUDI1234", "link")
	engine := newDiscountEngine(env)

	result, err := engine.Evaluate(context.Background(), "08222222222", 50000)
	require.NoError(t, err)
	require.True(t, result.Eligible)
	require.Equal(t, int64(5000), result.DiscountAmount)
	require.Equal(t, int64(45000), result.FinalTotal)
	require.Equal(t, "08111111111", result.ReferrerPhone)
	require.Equal(t, "BUDI1234", result.ReferralCode)

	// Evaluation is read-only: the attribution survives for registration.
	code, ok := env.tracker.Current()
	require.True(t, ok)
	require.Equal(t, "BUDI1234", code)
}

func TestEvaluateRoundsDiscount(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("USR-1", "Budi", "08111111111", "BUDI1234", "", 0)
	env.tracker.CaptureCode("BUDI1234", "link")
	engine := newDiscountEngine(env)

	// 10% of 15999 is 1599.9, rounded to 1600.
	result, err := engine.Evaluate(context.Background(), "08222222222", 15999)
	require.NoError(t, err)
	require.True(t, result.Eligible)
	require.Equal(t, int64(1600), result.DiscountAmount)
	require.Equal(t, int64(14399), result.FinalTotal)
}
