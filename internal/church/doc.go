// Package church defines the venue and event records produced by discovery
// sources, plus the normalization and identity hashing used to decide when
// two scraped records denote the same real-world place or occurrence.
//
// Identity is layered. The strongest key is the fingerprint, a stable hash of
// the normalized name, rounded coordinates, and normalized street. When a
// record carries neither coordinates nor a street address it cannot be
// fingerprinted and is marked unverifiable; the fallback signature
// (normalized name, city, region) is then the only fuzzy-match handle.
package church
