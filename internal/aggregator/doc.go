// Package aggregator orchestrates a bounded pool of workers that fan out
// over discovery work units, each consulting the cache before invoking a
// source adapter under a per-task timeout.
//
// Failures are bulkheaded: one unit erroring or timing out never cancels its
// siblings, and the final result always carries a failure report alongside
// the best-effort record set so callers can tell "nothing exists nearby"
// from "every fetch failed". Caller cancellation stops the run promptly and
// returns the records collected so far.
package aggregator
