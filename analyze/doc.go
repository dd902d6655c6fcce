// Package analyze is the default processing capability: it renders
// excerpt batches into prompts, calls the text generation service, parses
// the responses into partial reports, and merges them into a single
// report forced into the mandated shape. Model responses are cached when
// a cache is configured, and batch failures degrade into failure-tagged
// excerpts instead of aborting the run.
package analyze
