package dedupe

import (
	"sync"

	"github.com/daz2d/coptic-service-events/internal/church"
)

// Reason explains an Admit decision.
type Reason string

const (
	ReasonAdmitted             Reason = "admitted"
	ReasonUnverifiable         Reason = "admitted_unverifiable"
	ReasonDuplicateSourceID    Reason = "duplicate_source_id"
	ReasonDuplicateFingerprint Reason = "duplicate_fingerprint"
	ReasonDuplicateSignature   Reason = "duplicate_signature"
	ReasonDuplicateEvent       Reason = "duplicate_event"
)

// Engine decides keep/skip for candidate venues and events within one
// discovery run. Safe for concurrent use; the seen-sets live and die with
// the run and are never persisted.
type Engine struct {
	mu sync.Mutex

	seenSourceIDs    map[string]bool
	seenFingerprints map[string]bool
	seenSignatures   map[church.Signature][]string // signature -> normalized streets of admitted venues
	seenEventKeys    map[string]bool

	venues []*church.Venue // insertion order, first seen wins
	events []*church.Event
}

// New creates an empty engine.
func New() *Engine {
	return &Engine{
		seenSourceIDs:    make(map[string]bool),
		seenFingerprints: make(map[string]bool),
		seenSignatures:   make(map[church.Signature][]string),
		seenEventKeys:    make(map[string]bool),
	}
}

// Admit decides whether v denotes a venue not yet seen this run. The check
// and the seen-set inserts happen atomically; a kept duplicate never
// overwrites an already-admitted original.
//
// Decision order, first match wins:
//  1. source id already seen -> duplicate
//  2. fingerprint already seen -> duplicate
//  3. signature seen and normalized streets match -> duplicate
//  4. otherwise admit and record all identity keys
//
// A venue that could not be fingerprinted is admitted (never silently
// dropped) and reported with ReasonUnverifiable.
func (e *Engine) Admit(v *church.Venue) (bool, Reason) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if v.SourceID != "" && e.seenSourceIDs[v.SourceID] {
		return false, ReasonDuplicateSourceID
	}

	if v.Fingerprint != "" && e.seenFingerprints[v.Fingerprint] {
		return false, ReasonDuplicateFingerprint
	}

	sig := v.Signature()
	if sig.Valid() {
		street := v.NormalizedStreet()
		for _, seenStreet := range e.seenSignatures[sig] {
			if church.SameStreet(street, seenStreet) {
				return false, ReasonDuplicateSignature
			}
		}
	}

	e.record(v, sig)

	if v.Unverifiable {
		return true, ReasonUnverifiable
	}
	return true, ReasonAdmitted
}

// record inserts all identity keys for an admitted venue. Caller holds e.mu.
func (e *Engine) record(v *church.Venue, sig church.Signature) {
	if v.SourceID != "" {
		e.seenSourceIDs[v.SourceID] = true
	}
	if v.Fingerprint != "" {
		e.seenFingerprints[v.Fingerprint] = true
	}
	if sig.Valid() {
		e.seenSignatures[sig] = append(e.seenSignatures[sig], v.NormalizedStreet())
	}
	e.venues = append(e.venues, v)
}

// AdmitEvent decides whether evt is a new event. Two events are duplicates
// iff their (normalized title, venue identity, date, time) keys are equal.
func (e *Engine) AdmitEvent(evt *church.Event) (bool, Reason) {
	key := evt.Key()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.seenEventKeys[key] {
		return false, ReasonDuplicateEvent
	}
	e.seenEventKeys[key] = true
	e.events = append(e.events, evt)
	return true, ReasonAdmitted
}

// Venues returns the admitted venues in insertion order.
func (e *Engine) Venues() []*church.Venue {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*church.Venue, len(e.venues))
	copy(out, e.venues)
	return out
}

// Events returns the admitted events in insertion order.
func (e *Engine) Events() []*church.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*church.Event, len(e.events))
	copy(out, e.events)
	return out
}

// VerifyStats counts records dropped by the Verify post-pass, by reason.
type VerifyStats struct {
	Dropped map[Reason]int
}

// Total returns the number of records Verify dropped.
func (s VerifyStats) Total() int {
	n := 0
	for _, c := range s.Dropped {
		n += c
	}
	return n
}

// Verify is the idempotent post-processing pass run once after a batch
// completes: it re-checks that no two admitted venues share a fingerprint or
// source id, keeping the first seen by insertion order and dropping the
// rest. Violations indicate a race or a misbehaving adapter; the counts are
// surfaced for observability. Running Verify on an already-clean set is a
// no-op.
func (e *Engine) Verify() VerifyStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := VerifyStats{Dropped: make(map[Reason]int)}
	fingerprints := make(map[string]bool, len(e.venues))
	sourceIDs := make(map[string]bool, len(e.venues))
	kept := e.venues[:0]

	for _, v := range e.venues {
		switch {
		case v.SourceID != "" && sourceIDs[v.SourceID]:
			stats.Dropped[ReasonDuplicateSourceID]++
		case v.Fingerprint != "" && fingerprints[v.Fingerprint]:
			stats.Dropped[ReasonDuplicateFingerprint]++
		default:
			if v.SourceID != "" {
				sourceIDs[v.SourceID] = true
			}
			if v.Fingerprint != "" {
				fingerprints[v.Fingerprint] = true
			}
			kept = append(kept, v)
		}
	}

	e.venues = kept
	return stats
}
