// Copyright 2025 Sifter Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package batch

import (
	"fmt"
	"time"
)

// Bounds for configuration fields. Setters clamp silently to the nearest
// bound rather than rejecting out-of-range values.
const (
	MinBatchSize = 5
	MaxBatchSize = 50

	MinBatchDelay = 500 * time.Millisecond
	MaxBatchDelay = 5 * time.Second

	MinFailureDelay = 1 * time.Second
	MaxFailureDelay = 10 * time.Second

	MinRetries      = 1
	MaxRetriesBound = 10

	MinQuotesPerSection = 50
	MaxQuotesPerSection = 500
)

// Standard defaults, exposed for CLI flag definitions.
const (
	DefaultBatchSize           = 20
	DefaultBatchDelay          = 1500 * time.Millisecond
	DefaultFailureDelay        = 3 * time.Second
	DefaultMaxRetries          = 3
	DefaultMaxQuotesPerSection = 200
)

// Config holds configuration for batch execution.
// Use the Set* methods to keep fields within bounds; direct field writes are
// validated by Validate.
type Config struct {
	// BatchSize is the number of excerpts submitted per external call.
	BatchSize int

	// BatchDelay is the pause between consecutive batches. This is pacing for
	// the rate-limited service, independent of retry backoff.
	BatchDelay time.Duration

	// FailureDelay is the base delay for retry backoff after a failed batch.
	FailureDelay time.Duration

	// MaxRetries is the maximum number of attempts per batch.
	MaxRetries int

	// MaxQuotesPerSection caps the quote pool accumulated per report section
	// when batch results are merged.
	MaxQuotesPerSection int

	// EnableBatching submits excerpts in batches when true; when false the
	// whole item list is processed as a single batch.
	EnableBatching bool
}

// DefaultConfig returns a Config with the standard defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:           DefaultBatchSize,
		BatchDelay:          DefaultBatchDelay,
		FailureDelay:        DefaultFailureDelay,
		MaxRetries:          DefaultMaxRetries,
		MaxQuotesPerSection: DefaultMaxQuotesPerSection,
		EnableBatching:      true,
	}
}

// SetBatchSize clamps size to [MinBatchSize, MaxBatchSize].
func (c *Config) SetBatchSize(size int) {
	c.BatchSize = clampInt(size, MinBatchSize, MaxBatchSize)
}

// SetBatchDelay clamps delay to [MinBatchDelay, MaxBatchDelay].
func (c *Config) SetBatchDelay(delay time.Duration) {
	c.BatchDelay = clampDuration(delay, MinBatchDelay, MaxBatchDelay)
}

// SetFailureDelay clamps delay to [MinFailureDelay, MaxFailureDelay].
func (c *Config) SetFailureDelay(delay time.Duration) {
	c.FailureDelay = clampDuration(delay, MinFailureDelay, MaxFailureDelay)
}

// SetMaxRetries clamps retries to [MinRetries, MaxRetriesBound].
func (c *Config) SetMaxRetries(retries int) {
	c.MaxRetries = clampInt(retries, MinRetries, MaxRetriesBound)
}

// SetMaxQuotesPerSection clamps the cap to [MinQuotesPerSection, MaxQuotesPerSection].
func (c *Config) SetMaxQuotesPerSection(max int) {
	c.MaxQuotesPerSection = clampInt(max, MinQuotesPerSection, MaxQuotesPerSection)
}

// ValidationReport collects configuration findings. Out-of-bounds values that
// the engine can still run with are warnings; values that would break the
// retry contract are errors.
type ValidationReport struct {
	Warnings []string
	Errors   []string
}

// Valid reports whether the configuration has no hard errors.
func (r *ValidationReport) Valid() bool {
	return len(r.Errors) == 0
}

// Validate inspects directly-assigned fields. Only MaxRetries < 1 is a hard
// error; everything else out of range is reported as a warning, since the
// engine clamps at the point of use.
func (c *Config) Validate() *ValidationReport {
	report := &ValidationReport{}

	if c.MaxRetries < MinRetries {
		report.Errors = append(report.Errors,
			fmt.Sprintf("max retries must be at least %d, got %d", MinRetries, c.MaxRetries))
	} else if c.MaxRetries > MaxRetriesBound {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("max retries %d above bound %d, will be clamped", c.MaxRetries, MaxRetriesBound))
	}

	if c.BatchSize < MinBatchSize || c.BatchSize > MaxBatchSize {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("batch size %d outside [%d, %d], will be clamped", c.BatchSize, MinBatchSize, MaxBatchSize))
	}
	if c.BatchDelay < MinBatchDelay || c.BatchDelay > MaxBatchDelay {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("batch delay %v outside [%v, %v], will be clamped", c.BatchDelay, MinBatchDelay, MaxBatchDelay))
	}
	if c.FailureDelay < MinFailureDelay || c.FailureDelay > MaxFailureDelay {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("failure delay %v outside [%v, %v], will be clamped", c.FailureDelay, MinFailureDelay, MaxFailureDelay))
	}
	if c.MaxQuotesPerSection < MinQuotesPerSection || c.MaxQuotesPerSection > MaxQuotesPerSection {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("max quotes per section %d outside [%d, %d], will be clamped",
				c.MaxQuotesPerSection, MinQuotesPerSection, MaxQuotesPerSection))
	}

	return report
}

// Clamped returns a copy with every field forced inside its bounds.
func (c *Config) Clamped() Config {
	out := *c
	out.BatchSize = clampInt(c.BatchSize, MinBatchSize, MaxBatchSize)
	out.BatchDelay = clampDuration(c.BatchDelay, MinBatchDelay, MaxBatchDelay)
	out.FailureDelay = clampDuration(c.FailureDelay, MinFailureDelay, MaxFailureDelay)
	out.MaxRetries = clampInt(c.MaxRetries, MinRetries, MaxRetriesBound)
	out.MaxQuotesPerSection = clampInt(c.MaxQuotesPerSection, MinQuotesPerSection, MaxQuotesPerSection)
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampDuration(v, lo, hi time.Duration) time.Duration {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
