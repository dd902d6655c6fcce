// Package extract turns raw transcript documents into excerpts. Text is
// split on blank lines and dialogue attributions ("Name: ..."), short
// fragments are dropped, and each excerpt gets a content-derived ID so
// reruns over the same transcripts produce identical excerpts. Multiple
// documents are processed concurrently with deterministic output order.
package extract
