package batch

import (
	"sync"
	"time"
)

// Stats tracks batch execution counters. Counters are monotonically
// non-decreasing until Reset is called. A Stats value persists across
// ProcessInBatches calls so long-running workloads accumulate totals.
type Stats struct {
	mu sync.Mutex

	batchesProcessed int
	batchesSucceeded int
	batchesFailed    int
	itemsProcessed   int
	totalDuration    time.Duration
}

// NewStats creates an empty stats tracker.
func NewStats() *Stats {
	return &Stats{}
}

// recordSuccess counts one successful batch of n items taking d.
func (s *Stats) recordSuccess(n int, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchesProcessed++
	s.batchesSucceeded++
	s.itemsProcessed += n
	s.totalDuration += d
}

// recordFailure counts one batch that exhausted its retries.
func (s *Stats) recordFailure(n int, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchesProcessed++
	s.batchesFailed++
	s.itemsProcessed += n
	s.totalDuration += d
}

// Reset zeroes all counters.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchesProcessed = 0
	s.batchesSucceeded = 0
	s.batchesFailed = 0
	s.itemsProcessed = 0
	s.totalDuration = 0
}

// Snapshot is a point-in-time copy of the counters with derived values.
type Snapshot struct {
	BatchesProcessed int
	BatchesSucceeded int
	BatchesFailed    int
	ItemsProcessed   int
	TotalDuration    time.Duration
	AverageDuration  time.Duration
	SuccessRate      float64
}

// Snapshot returns a consistent copy of the current counters.
// AverageDuration and SuccessRate are zero when nothing was processed.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		BatchesProcessed: s.batchesProcessed,
		BatchesSucceeded: s.batchesSucceeded,
		BatchesFailed:    s.batchesFailed,
		ItemsProcessed:   s.itemsProcessed,
		TotalDuration:    s.totalDuration,
	}
	if s.batchesProcessed > 0 {
		snap.AverageDuration = s.totalDuration / time.Duration(s.batchesProcessed)
		snap.SuccessRate = float64(s.batchesSucceeded) / float64(s.batchesProcessed)
	}
	return snap
}
