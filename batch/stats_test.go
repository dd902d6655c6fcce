package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStats_CountersAndDerivedValues(t *testing.T) {
	s := NewStats()

	s.recordSuccess(20, 2*time.Second)
	s.recordSuccess(20, 4*time.Second)
	s.recordFailure(7, 6*time.Second)

	snap := s.Snapshot()
	assert.Equal(t, 3, snap.BatchesProcessed)
	assert.Equal(t, 2, snap.BatchesSucceeded)
	assert.Equal(t, 1, snap.BatchesFailed)
	assert.Equal(t, 47, snap.ItemsProcessed)
	assert.Equal(t, 12*time.Second, snap.TotalDuration)
	assert.Equal(t, 4*time.Second, snap.AverageDuration)
	assert.InDelta(t, 2.0/3.0, snap.SuccessRate, 1e-9)
}

func TestStats_MonotonicUntilReset(t *testing.T) {
	s := NewStats()

	var previous Snapshot
	for range 5 {
		s.recordSuccess(10, time.Second)
		snap := s.Snapshot()
		assert.GreaterOrEqual(t, snap.BatchesProcessed, previous.BatchesProcessed)
		assert.GreaterOrEqual(t, snap.ItemsProcessed, previous.ItemsProcessed)
		assert.GreaterOrEqual(t, snap.TotalDuration, previous.TotalDuration)
		previous = snap
	}

	s.Reset()
	snap := s.Snapshot()
	assert.Zero(t, snap.BatchesProcessed)
	assert.Zero(t, snap.ItemsProcessed)
	assert.Zero(t, snap.TotalDuration)
	assert.Zero(t, snap.SuccessRate)
}

func TestStats_EmptySnapshot(t *testing.T) {
	snap := NewStats().Snapshot()
	assert.Zero(t, snap.AverageDuration)
	assert.Zero(t, snap.SuccessRate)
}

func TestStats_PersistsAcrossProcessorCalls(t *testing.T) {
	shared := NewStats()
	var delays []time.Duration

	p := NewProcessor(DefaultConfig(), WithStats(shared))
	p.sleep = fakeSleep(&delays)

	for range 3 {
		_, err := p.ProcessInBatches(t.Context(), makeExcerpts(5), echoFunc, nil)
		assert.NoError(t, err)
	}

	assert.Equal(t, 3, shared.Snapshot().BatchesProcessed)
}
