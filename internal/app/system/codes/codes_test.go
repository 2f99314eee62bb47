package codes

import (
	"strings"
	"testing"
)

func TestNewJoinCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := NewJoinCode()
		if len(code) != JoinCodeLen {
			t.Fatalf("join code length: got %d, want %d (%q)", len(code), JoinCodeLen, code)
		}
		for _, r := range code {
			if !strings.ContainsRune(Alphabet, r) {
				t.Fatalf("join code %q contains %q outside the alphabet", code, r)
			}
		}
	}
}

func TestNewInviteCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := NewInviteCode()
		if !strings.HasPrefix(code, InvitePrefix) {
			t.Fatalf("invite code %q missing %q prefix", code, InvitePrefix)
		}
		random := strings.TrimPrefix(code, InvitePrefix)
		if len(random) != InviteCodeLen {
			t.Fatalf("invite code random part length: got %d, want %d (%q)", len(random), InviteCodeLen, code)
		}
		for _, r := range random {
			if !strings.ContainsRune(Alphabet, r) {
				t.Fatalf("invite code %q contains %q outside the alphabet", code, r)
			}
		}
	}
}

func TestAlphabetExcludesAmbiguousCharacters(t *testing.T) {
	for _, r := range "O0I1" {
		if strings.ContainsRune(Alphabet, r) {
			t.Errorf("alphabet contains ambiguous character %q", r)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc234", "ABC234"},
		{"  evt-xk7m ", "EVT-XK7M"},
		{"QWERTY", "QWERTY"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
