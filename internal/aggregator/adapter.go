package aggregator

import (
	"context"
	"errors"

	"github.com/daz2d/coptic-service-events/internal/church"
)

// ErrInvalidInput reports malformed aggregate input: a bad work unit or
// out-of-range option. It fails the whole run fast and is never retried.
var ErrInvalidInput = errors.New("invalid aggregator input")

// Records is the tagged result of fetching one work unit: a region unit
// yields venues, a venue unit yields events. Both may be set when a source
// returns them together.
type Records struct {
	Venues []*church.Venue `json:"venues,omitempty"`
	Events []*church.Event `json:"events,omitempty"`
}

// SourceAdapter fetches and parses one external source into candidate
// records. Implementations must be safe for concurrent calls from
// independent workers and must honor ctx cancellation and deadlines;
// everything else about how a source is scraped is the adapter's business.
type SourceAdapter interface {
	Fetch(ctx context.Context, unit WorkUnit) (Records, error)
}

// AdapterFunc adapts a function to the SourceAdapter interface.
type AdapterFunc func(ctx context.Context, unit WorkUnit) (Records, error)

// Fetch implements SourceAdapter.
func (f AdapterFunc) Fetch(ctx context.Context, unit WorkUnit) (Records, error) {
	return f(ctx, unit)
}

// ErrorClass buckets a unit failure for the failure report.
type ErrorClass string

const (
	// ErrorAdapter is a source adapter failure for one unit.
	ErrorAdapter ErrorClass = "adapter_error"
	// ErrorTimeout is a unit that exceeded its per-task deadline.
	ErrorTimeout ErrorClass = "timeout"
)

// FailureReport records one failed work unit. Per-unit failures never abort
// the batch; they accumulate here.
type FailureReport struct {
	Unit  string     `json:"unit"`
	Class ErrorClass `json:"class"`
	Err   string     `json:"error"`
}

// classifyError buckets err for the failure report.
func classifyError(err error) ErrorClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	return ErrorAdapter
}
