// Package referral mints referral codes from display names.
package referral

import (
	"math/rand"
	"strconv"
	"strings"
	"unicode"
)

// GenerateCode returns UPPER(first 4 letters of the space-stripped name) plus
// a 4-digit random suffix, e.g. "Budi Santoso" → "BUDI1234". Short names give
// a shorter prefix. Codes are not globally unique; callers must verify
// against the store before persisting.
func GenerateCode(name string) string {
	var b strings.Builder
	letters := 0
	for _, r := range name {
		if unicode.IsSpace(r) {
			continue
		}
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
			letters++
		}
		if letters >= 4 {
			break
		}
	}
	prefix := b.String()
	if prefix == "" {
		prefix = "USER"
	}
	// 1000–9999, matching the storefront's historical code shape.
	return prefix + strconv.Itoa(rand.Intn(9000)+1000)
}
