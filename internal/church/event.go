package church

import "strings"

// TimeTBD is the placeholder stored when a source announced an event without
// a concrete start time. It participates in the dedup key like any other value.
const TimeTBD = "TBD"

// EventType is a deterministic tag assigned by keyword rules.
type EventType string

const (
	EventLiturgy     EventType = "liturgy"
	EventService     EventType = "service"
	EventYouth       EventType = "youth"
	EventFundraiser  EventType = "fundraiser"
	EventSocial      EventType = "social"
	EventMissionTrip EventType = "mission_trip"
	EventOther       EventType = "other"
)

// Event is a time-bound occurrence attributed to a Venue. Events carry no
// coordinates of their own; they inherit the venue's location for distance
// filtering.
type Event struct {
	Title       string    `json:"title"`
	Venue       *Venue    `json:"venue"` // attribution by identity, never nil
	Date        string    `json:"date"`  // ISO YYYY-MM-DD
	Time        string    `json:"time"`  // HH:MM or TimeTBD
	Type        EventType `json:"event_type"`
	Description string    `json:"description,omitempty"`
	SourceURL   string    `json:"source_url,omitempty"`
}

// NewEvent constructs an Event attributed to venue. An empty time is
// normalized to TimeTBD so the dedup key stays stable across sources that
// omit it versus sources that spell it out.
func NewEvent(venue *Venue, title, date, eventTime string, typ EventType, description, sourceURL string) *Event {
	if strings.TrimSpace(eventTime) == "" {
		eventTime = TimeTBD
	}
	return &Event{
		Title:       title,
		Venue:       venue,
		Date:        date,
		Time:        eventTime,
		Type:        typ,
		Description: description,
		SourceURL:   sourceURL,
	}
}

// NormalizedTitle returns the title form used for identity comparison.
func (e *Event) NormalizedTitle() string {
	return collapseWhitespace(strings.ToLower(strings.TrimSpace(e.Title)))
}

// Key returns the dedup key for the event. Two events are duplicates iff
// their keys are equal.
func (e *Event) Key() string {
	return e.NormalizedTitle() + "|" + e.Venue.Identity() + "|" + e.Date + "|" + e.Time
}
