package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gosembako/config"
	"gosembako/internal/auth"
)

func newAuthService(env *testEnv) *AuthService {
	cfg := &config.Config{
		JWT: config.JWTConfig{
			AccessSecret:  "test-access",
			RefreshSecret: "test-refresh",
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "gosembako",
		},
		Referral: *env.cfg,
	}
	directory := NewDirectory(env.users, env.referrals, env.tracker, env.cfg, env.log)
	return NewAuthService(cfg, env.users, directory, env.log)
}

func TestRegisterLoginRefresh(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()

	user, access, refresh, err := svc.Register(ctx, "08123456789", "Siti Rahayu", "123456")
	require.NoError(t, err)
	require.NotEmpty(t, user.UserID)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	require.NotEmpty(t, user.PINHash)

	claims, err := auth.ParseAccessToken(&svc.cfg.JWT, access)
	require.NoError(t, err)
	require.Equal(t, user.UserID, claims.UserID)

	loggedIn, access2, _, err := svc.Login(ctx, "+62 812-3456-789", "123456")
	require.NoError(t, err)
	require.Equal(t, user.UserID, loggedIn.UserID)
	require.NotEmpty(t, access2)

	refreshed, access3, _, err := svc.Refresh(ctx, refresh)
	require.NoError(t, err)
	require.Equal(t, user.UserID, refreshed.UserID)
	require.NotEmpty(t, access3)
}

func TestRegisterRejectsBadPIN(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)

	for _, pin := range []string{"", "123", "1234567", "abcdef"} {
		_, _, _, err := svc.Register(context.Background(), "08123456789", "Siti", pin)
		require.ErrorIs(t, err, ErrInvalidPIN, "pin=%q", pin)
	}
}

func TestRegisterDuplicatePhone(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, "08123456789", "Siti", "123456")
	require.NoError(t, err)

	_, _, _, err = svc.Register(ctx, "+628123456789", "Siti Again", "654321")
	require.ErrorIs(t, err, ErrPhoneExists)
}

func TestLoginWrongPIN(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, "08123456789", "Siti", "123456")
	require.NoError(t, err)

	_, _, _, err = svc.Login(ctx, "08123456789", "999999")
	require.ErrorIs(t, err, ErrInvalidCreds)
}

func TestLoginUnknownPhone(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)

	_, _, _, err := svc.Login(context.Background(), "08999999999", "123456")
	require.ErrorIs(t, err, ErrInvalidCreds)

	// A failed login must not create a user row.
	require.Empty(t, env.store.Rows("users"))
}

func TestRefreshRejectsGarbage(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)

	_, _, _, err := svc.Refresh(context.Background(), "not.a.token")
	require.ErrorIs(t, err, ErrInvalidCreds)
}
