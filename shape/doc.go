// Package shape enforces mandated report structure.
//
// Parsed reports routinely violate the counts their spec mandates: a model
// puts four insights under one section and none under another, or returns
// quotes for some insights only. Enforce reflows insights across sections,
// reclassifies strays by keyword overlap, truncates surplus, and synthesizes
// explicitly-tagged placeholders so the output always has exactly the
// mandated shape. All functions are pure, which keeps the reflow logic
// testable independently of any parser.
package shape
