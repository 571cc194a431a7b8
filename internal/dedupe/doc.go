// Package dedupe maintains the seen-identity index for a single discovery
// run and decides keep/skip for each incoming candidate record.
//
// The decision layers signals from strongest to fuzziest: source id, then
// fingerprint, then the (name, city, region) signature arbitrated by street
// comparison. Source ids can collide across independently operated systems,
// names legitimately repeat across locations, and geocoding jitter can split
// one place into two records a few meters apart; no single signal is
// sufficient on its own.
//
// The engine is the only state shared by concurrent aggregator workers.
// Check-then-insert over the seen-sets is one critical section so two
// workers can never concurrently admit records that are mutual duplicates.
package dedupe
