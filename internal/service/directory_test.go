package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"gosembako/internal/models"
	"gosembako/internal/phone"
	"gosembako/internal/repository"
)

func TestFindOrCreateCreatesUserWithReferralCode(t *testing.T) {
	env := newTestEnv(t)
	dir := NewDirectory(env.users, env.referrals, env.tracker, env.cfg, env.log)

	user, created, err := dir.FindOrCreate(context.Background(), "+62 812-3456-789", "Siti Rahayu")
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "08123456789", user.Phone)
	require.Equal(t, "Siti Rahayu", user.Name)
	require.Regexp(t, regexp.MustCompile(`^SITI\d{4}$`), user.ReferralCode)
	require.Empty(t, user.ReferrerCode)
	require.NotEmpty(t, user.UserID)

	rows := env.store.Rows(repository.SheetUsers)
	require.Len(t, rows, 1)
}

func TestFindOrCreateReturnsExistingUnchanged(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("USR-1", "Budi", "08123456789", "BUDI1234", "", 5000)
	dir := NewDirectory(env.users, env.referrals, env.tracker, env.cfg, env.log)

	// Attribution present must not retroactively attach a referrer.
	env.tracker.CaptureCode("SITI5678", "link")

	user, created, err := dir.FindOrCreate(context.Background(), "0812 345 6789", "Budi")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, "USR-1", user.UserID)
	require.Empty(t, user.ReferrerCode)

	// Attribution stays captured for whoever actually registers next.
	code, ok := env.tracker.Current()
	require.True(t, ok)
	require.Equal(t, "SITI5678", code)
}

func TestFindOrCreateAttachesAttribution(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("USR-1", "Budi", "08111111111", "BUDI1234", "", 0)
	dir := NewDirectory(env.users, env.referrals, env.tracker, env.cfg, env.log)
	env.tracker.CaptureCode("BUDI1234", "link")

	user, created, err := dir.FindOrCreate(context.Background(), "08222222222", "Siti Rahayu")
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "BUDI1234", user.ReferrerCode)

	recs := env.store.Rows(repository.SheetReferrals)
	require.Len(t, recs, 1)
	require.Equal(t, "BUDI1234", recs[0].String("referrer_code"))
	require.Equal(t, user.UserID, recs[0].String("referred_user_id"))
	require.Equal(t, models.ReferralPending, recs[0].String("status"))
	require.Equal(t, int64(10000), recs[0].Int64("reward_points"))

	// Consumed: a second signup gets no referrer.
	_, ok := env.tracker.Current()
	require.False(t, ok)
}

func TestFindOrCreateBusyGuard(t *testing.T) {
	env := newTestEnv(t)
	dir := NewDirectory(env.users, env.referrals, env.tracker, env.cfg, env.log)

	dir.busy.Store(true)
	_, _, err := dir.FindOrCreate(context.Background(), "08123456789", "Budi")
	require.ErrorIs(t, err, ErrBusy)

	dir.busy.Store(false)
	_, created, err := dir.FindOrCreate(context.Background(), "08123456789", "Budi")
	require.NoError(t, err)
	require.True(t, created)
}

func TestFindOrCreateRejectsInvalidPhone(t *testing.T) {
	env := newTestEnv(t)
	dir := NewDirectory(env.users, env.referrals, env.tracker, env.cfg, env.log)

	_, _, err := dir.FindOrCreate(context.Background(), "0812", "Budi")
	require.ErrorIs(t, err, phone.ErrInvalidFormat)
}
