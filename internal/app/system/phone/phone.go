// internal/app/system/phone/phone.go

// Package phone normalizes phone numbers into the bare-digit form used as
// the user document id. "(573) 882-1234" and "573.882.1234" resolve to the
// same account.
package phone

import "strings"

// Normalize strips every non-digit character from s.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Valid reports whether s normalizes to a plausible phone number.
// Seven digits covers local formats; fifteen is the E.164 ceiling.
func Valid(s string) bool {
	n := len(Normalize(s))
	return n >= 7 && n <= 15
}
