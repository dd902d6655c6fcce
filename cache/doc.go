// Package cache persists raw model responses in BadgerDB, keyed by a
// content hash of the model name and prompt text. Rerunning an analysis
// over unchanged transcripts replays cached responses instead of calling
// the model again. Entries are serialized in the MUS format.
package cache
