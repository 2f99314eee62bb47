// internal/app/system/codes/codes.go

// Package codes generates the short human-shareable codes used to join
// groups and events. The alphabet drops visually ambiguous characters
// (O/0, I/1) so codes survive being read aloud or copied off a screen.
package codes

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Alphabet is the full set of characters codes are drawn from.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	// JoinCodeLen is the length of a group join code.
	JoinCodeLen = 6
	// InviteCodeLen is the length of the random part of an event invite code.
	InviteCodeLen = 4
	// InvitePrefix precedes every event invite code.
	InvitePrefix = "EVT-"
)

// NewJoinCode returns a fresh 6-character group join code.
func NewJoinCode() string {
	return random(JoinCodeLen)
}

// NewInviteCode returns a fresh event invite code, e.g. "EVT-XK7M".
func NewInviteCode() string {
	return InvitePrefix + random(InviteCodeLen)
}

// Normalize maps user input onto stored-code form: trimmed and uppercased.
// Codes are matched case-insensitively everywhere.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// random samples n characters from Alphabet with replacement.
func random(n int) string {
	max := big.NewInt(int64(len(Alphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform entropy source is
			// broken; nothing sensible to do but stop.
			panic("codes: entropy source unavailable: " + err.Error())
		}
		b[i] = Alphabet[idx.Int64()]
	}
	return string(b)
}
