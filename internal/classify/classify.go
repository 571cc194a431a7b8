// Package classify assigns an event type from deterministic keyword rules.
// It is a collaborator of the scrapers, not part of identity resolution:
// the type never participates in dedup keys.
package classify

import (
	"strings"

	"github.com/daz2d/coptic-service-events/internal/church"
)

// rule maps keywords onto an event type. Rules are checked in order and the
// first keyword hit wins, so more specific rules come first.
type rule struct {
	typ      church.EventType
	keywords []string
}

var rules = []rule{
	{church.EventMissionTrip, []string{"mission trip", "missions trip", "mission to"}},
	{church.EventLiturgy, []string{"liturgy", "vespers", "midnight praise", "tasbeha", "matins", "mass"}},
	{church.EventYouth, []string{"youth", "teen", "college", "young adult", "sunday school"}},
	{church.EventFundraiser, []string{"fundraiser", "bake sale", "raffle", "donation drive", "gala"}},
	{church.EventService, []string{"volunteer", "food drive", "food bank", "soup kitchen", "outreach", "homeless", "community service", "blood drive", "charity"}},
	{church.EventSocial, []string{"picnic", "bbq", "barbecue", "game night", "social", "potluck", "dinner", "festival"}},
}

// Classify returns the event type for a title and description. Matching is
// case-insensitive over both fields; anything unmatched is EventOther.
func Classify(title, description string) church.EventType {
	text := strings.ToLower(title + " " + description)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return r.typ
			}
		}
	}
	return church.EventOther
}

// ServiceKeywords reports whether the text mentions any service-related
// keyword at all, used by scrapers to drop obvious non-event prose before
// building a candidate record.
func ServiceKeywords(text string) bool {
	return Classify(text, "") != church.EventOther
}
