// Package parse converts free-form model responses into fixed-shape reports.
//
// Text-generation services return whatever they like: valid JSON, JSON wrapped
// in markdown fences or chatty preamble, JSON with trailing commas or unquoted
// keys, or plain prose with numbered findings. The Parser tries an ordered
// cascade of recovery strategies, first success wins, and falls back to a
// line-oriented section parser for non-serialized text. It never returns an
// error: when every strategy fails the caller receives an empty report shell
// with all sections present.
package parse
