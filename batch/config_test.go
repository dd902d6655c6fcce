package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSetters_ClampToBounds(t *testing.T) {
	cfg := DefaultConfig()

	cfg.SetBatchSize(1)
	assert.Equal(t, MinBatchSize, cfg.BatchSize)
	cfg.SetBatchSize(100)
	assert.Equal(t, MaxBatchSize, cfg.BatchSize)
	cfg.SetBatchSize(20)
	assert.Equal(t, 20, cfg.BatchSize)

	cfg.SetBatchDelay(time.Millisecond)
	assert.Equal(t, MinBatchDelay, cfg.BatchDelay)
	cfg.SetBatchDelay(time.Minute)
	assert.Equal(t, MaxBatchDelay, cfg.BatchDelay)

	cfg.SetFailureDelay(0)
	assert.Equal(t, MinFailureDelay, cfg.FailureDelay)
	cfg.SetFailureDelay(time.Hour)
	assert.Equal(t, MaxFailureDelay, cfg.FailureDelay)

	cfg.SetMaxRetries(0)
	assert.Equal(t, MinRetries, cfg.MaxRetries)
	cfg.SetMaxRetries(99)
	assert.Equal(t, MaxRetriesBound, cfg.MaxRetries)

	cfg.SetMaxQuotesPerSection(1)
	assert.Equal(t, MinQuotesPerSection, cfg.MaxQuotesPerSection)
	cfg.SetMaxQuotesPerSection(10000)
	assert.Equal(t, MaxQuotesPerSection, cfg.MaxQuotesPerSection)
}

func TestConfigValidate_Defaults(t *testing.T) {
	report := DefaultConfig().Validate()

	assert.True(t, report.Valid())
	assert.Empty(t, report.Warnings)
}

func TestConfigValidate_MaxRetriesBelowOneIsHardError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRetries = 0

	report := cfg.Validate()

	assert.False(t, report.Valid())
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "max retries")
}

func TestConfigValidate_OutOfRangeIsWarningOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BatchSize = 1000
	cfg.BatchDelay = time.Minute
	cfg.FailureDelay = time.Hour
	cfg.MaxQuotesPerSection = 5

	report := cfg.Validate()

	assert.True(t, report.Valid(), "out-of-range values clamp, they do not fail validation")
	assert.Len(t, report.Warnings, 4)
}

func TestConfigClamped_DirectFieldWrites(t *testing.T) {
	cfg := &Config{BatchSize: 3, BatchDelay: 0, FailureDelay: time.Hour, MaxRetries: 50, MaxQuotesPerSection: 0}

	clamped := cfg.Clamped()

	assert.Equal(t, MinBatchSize, clamped.BatchSize)
	assert.Equal(t, MinBatchDelay, clamped.BatchDelay)
	assert.Equal(t, MaxFailureDelay, clamped.FailureDelay)
	assert.Equal(t, MaxRetriesBound, clamped.MaxRetries)
	assert.Equal(t, MinQuotesPerSection, clamped.MaxQuotesPerSection)

	// Source config stays as written.
	assert.Equal(t, 3, cfg.BatchSize)
}
