// internal/app/system/sanitize/sanitize.go

// Package sanitize strips markup from user-supplied free text before it is
// stored. Bios, descriptions, and comments are plain text in every client,
// so the strict policy (no tags at all) is the right default.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text returns s with all HTML removed and surrounding whitespace trimmed.
func Text(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
