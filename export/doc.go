// Package export renders finished reports. JSON output uses the canonical
// form the response parser accepts, so exported reports round-trip;
// Markdown output is for humans.
package export
