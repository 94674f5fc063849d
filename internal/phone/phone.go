// Package phone canonicalizes Indonesian WhatsApp numbers across the formats
// the backing sheets contain ("08xx", "+62 8xx", "628xx", bare "8xx", with
// arbitrary punctuation) and derives the key format each sheet expects.
package phone

import (
	"errors"
	"fmt"
	"strings"
)

// Canonical is the digits-only country-code form ("628123456789") used
// internally, independent of how any given sheet keys its rows.
type Canonical string

// ErrInvalidFormat is returned when fewer than 9 significant digits remain
// after stripping non-digit characters.
var ErrInvalidFormat = errors.New("invalid phone format")

const minDigits = 9

// Normalize strips punctuation and rewrites the prefix into the canonical
// "62…" form. Note: normalization is digits-only and does not attempt to
// repair digit counts; "(0812) 3456-7890" keeps whatever digits it carries.
func Normalize(raw string) (Canonical, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < minDigits {
		return "", fmt.Errorf("%w: %q has %d digits", ErrInvalidFormat, raw, len(digits))
	}
	switch {
	case strings.HasPrefix(digits, "62"):
		return Canonical(digits), nil
	case strings.HasPrefix(digits, "0"):
		return Canonical("62" + digits[1:]), nil
	default:
		// Bare national number ("8123…").
		return Canonical("62" + digits), nil
	}
}

// Format is one of the key formats found across the backing sheets.
type Format int

const (
	// FormatLocal is the leading-zero form, "0812…".
	FormatLocal Format = iota
	// FormatBare drops both prefixes, "812…".
	FormatBare
	// FormatIntl is the full country-code form, "62812…".
	FormatIntl
)

// sheetFormats records, per sheet, which phone format its key column uses.
// The sheets genuinely disagree: "users" and "orders" store the local "08…"
// form while the points backend expects the "628…" form, so every lookup must
// go through ForStore rather than passing the canonical value directly.
var sheetFormats = map[string]Format{
	"users":         FormatLocal,
	"orders":        FormatLocal,
	"user_referral": FormatLocal, // legacy auth sheet, kept for reads only
	"points":        FormatIntl,
}

// ForStore maps a canonical phone to the key format of the named sheet.
func ForStore(p Canonical, sheet string) (string, error) {
	f, ok := sheetFormats[sheet]
	if !ok {
		return "", fmt.Errorf("phone: no key format registered for sheet %q", sheet)
	}
	return Render(p, f), nil
}

// Render converts a canonical phone into the given format.
func Render(p Canonical, f Format) string {
	national := strings.TrimPrefix(string(p), "62")
	switch f {
	case FormatLocal:
		return "0" + national
	case FormatBare:
		return national
	default:
		return string(p)
	}
}
