// Package batch executes a caller-supplied processing capability over large
// excerpt lists in bounded, paced, sequential batches.
//
// The engine exists because the downstream text-generation service is
// rate-limited and unreliable: batches are paced with a fixed inter-batch
// delay, failed batches are retried with a pluggable backoff policy, and a
// batch that exhausts its retries degrades to failure-tagged copies of its
// excerpts rather than an error. Partial failure therefore never costs the
// caller the rest of the run, and no excerpt is ever silently dropped.
//
// Execution is deliberately single-threaded; there is no concurrent fan-out
// of external calls.
package batch
