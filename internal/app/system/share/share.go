// internal/app/system/share/share.go

// Package share builds the text the client hands to the native share sheet
// or SMS composer when inviting someone to an event.
package share

import (
	"fmt"
	"strings"

	"github.com/dispoapp/dispo/internal/domain/models"
)

// Message formats an event into a shareable invitation.
//
// Example:
//
//	You're invited to Taco Night!
//	Fri, Sep 4 at 7:00 PM · Arturo's
//	Join with code EVT-XK7M on Dispo.
func Message(e models.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You're invited to %s!\n", e.Title)

	when := e.EventDate.Format("Mon, Jan 2 at 3:04 PM")
	if e.Location != "" {
		fmt.Fprintf(&b, "%s · %s\n", when, e.Location)
	} else {
		fmt.Fprintf(&b, "%s\n", when)
	}

	fmt.Fprintf(&b, "Join with code %s on Dispo.", e.InviteCode)
	return b.String()
}
