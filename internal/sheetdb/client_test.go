package sheetdb_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"gosembako/internal/logging"
	"gosembako/internal/sheetdb"
	"gosembako/internal/sheetdb/sheetdbtest"
)

func newClient(t *testing.T) (*sheetdb.Client, *sheetdbtest.Store) {
	t.Helper()
	store := sheetdbtest.New()
	t.Cleanup(store.Close)
	return sheetdb.New(store.Config(), logging.NewNop()), store
}

func TestReadFiltersBySingleField(t *testing.T) {
	client, store := newClient(t)
	store.Seed("users",
		sheetdb.Row{"user_id": "1", "name": "Budi"},
		sheetdb.Row{"user_id": "2", "name": "Siti"},
	)

	rows, err := client.Read(context.Background(), "users", url.Values{"user_id": {"2"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Siti", rows[0].String("name"))
}

func TestSearchFiltersByMultipleFields(t *testing.T) {
	client, store := newClient(t)
	store.Seed("referrals",
		sheetdb.Row{"referrer_code": "BUDI1234", "referred_user_id": "U1", "status": "pending"},
		sheetdb.Row{"referrer_code": "BUDI1234", "referred_user_id": "U2", "status": "completed"},
	)

	rows, err := client.Search(context.Background(), "referrals", url.Values{
		"referrer_code":    {"BUDI1234"},
		"referred_user_id": {"U2"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "completed", rows[0].String("status"))
}

func TestInsertUpdateDelete(t *testing.T) {
	client, store := newClient(t)
	ctx := context.Background()

	require.NoError(t, client.Insert(ctx, "users", sheetdb.Row{"user_id": "1", "total_points": "0"}))
	require.NoError(t, client.Update(ctx, "users", "user_id", "1", sheetdb.Row{"total_points": "10000"}))

	rows := store.Rows("users")
	require.Len(t, rows, 1)
	require.Equal(t, int64(10000), rows[0].Int64("total_points"))

	require.NoError(t, client.Delete(ctx, "users", "user_id", "1"))
	require.Empty(t, store.Rows("users"))
}

func TestRetriesTransientServerErrors(t *testing.T) {
	client, store := newClient(t)
	store.Seed("users", sheetdb.Row{"user_id": "1"})
	store.FailNext = 2

	rows, err := client.Read(context.Background(), "users", url.Values{"user_id": {"1"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 3, store.RequestCount())
}

func TestStoreUnavailableAfterRetryBudget(t *testing.T) {
	client, store := newClient(t)
	store.FailNext = 10

	_, err := client.Read(context.Background(), "users", nil)
	require.ErrorIs(t, err, sheetdb.ErrStoreUnavailable)
	// MaxAttempts total tries, no more.
	require.Equal(t, 3, store.RequestCount())
}

func TestBadRequestFailsFast(t *testing.T) {
	client, store := newClient(t)
	store.RejectPatch["users"] = true

	err := client.Update(context.Background(), "users", "user_id", "1", sheetdb.Row{"name": "x"})
	require.ErrorIs(t, err, sheetdb.ErrBadRequest)
	require.Equal(t, 1, store.RequestCount())
}
