// Package cli implements the church-events command line interface: the
// cobra command tree, flag handling, and text/JSON output formatting.
package cli
