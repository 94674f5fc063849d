package phone

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Canonical
	}{
		{"local form", "08123456789", "628123456789"},
		{"intl plus form", "+62 812-3456-789", "628123456789"},
		{"country code no plus", "628123456789", "628123456789"},
		{"bare national", "8123456789", "628123456789"},
		{"punctuation noise", "(0812) 3456-7890", "6281234567890"},
		{"whatsapp suffix digits kept", "0812.3456.789", "628123456789"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.raw)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeRejectsShortNumbers(t *testing.T) {
	for _, raw := range []string{"", "0812", "abc", "+62 81"} {
		_, err := Normalize(raw)
		require.ErrorIs(t, err, ErrInvalidFormat, "raw=%q", raw)
	}
}

func TestForStore(t *testing.T) {
	p := Canonical("628123456789")

	local, err := ForStore(p, "users")
	require.NoError(t, err)
	require.Equal(t, "08123456789", local)

	orders, err := ForStore(p, "orders")
	require.NoError(t, err)
	require.Equal(t, "08123456789", orders)

	intl, err := ForStore(p, "points")
	require.NoError(t, err)
	require.Equal(t, "628123456789", intl)

	_, err = ForStore(p, "unknown_sheet")
	require.Error(t, err)
}

func TestRender(t *testing.T) {
	p := Canonical("628123456789")
	require.Equal(t, "08123456789", Render(p, FormatLocal))
	require.Equal(t, "8123456789", Render(p, FormatBare))
	require.Equal(t, "628123456789", Render(p, FormatIntl))
}
