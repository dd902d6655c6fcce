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


package core

import "fmt"

// ValidateExcerpt validates an Excerpt according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//
// NOT validated (populated by processors):
//   - Rank, Status, Stage, Error, Retries (outcome annotations)
//   - ID (0 is valid for caller-assigned identity)
func ValidateExcerpt(excerpt *Excerpt) error {
	if excerpt == nil {
		return fmt.Errorf("%w: excerpt is nil", ErrInvalidExcerpt)
	}

	if excerpt.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidExcerpt, ErrEmptyText)
	}

	return nil
}

// ValidateReportSpec validates a ReportSpec according to domain rules.
//
// Validation rules:
//   - At least one section must be declared
//   - Section titles must be non-empty and unique
//   - Insight counts must be positive
//   - Quote counts must not be negative
func ValidateReportSpec(spec *ReportSpec) error {
	if spec == nil {
		return fmt.Errorf("%w: spec is nil", ErrInvalidReportSpec)
	}

	if len(spec.Sections) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidReportSpec, ErrNoSections)
	}

	seen := make(map[string]bool, len(spec.Sections))
	for _, sec := range spec.Sections {
		if sec.Title == "" {
			return fmt.Errorf("%w: %w", ErrInvalidReportSpec, ErrEmptySectionTitle)
		}
		if seen[sec.Title] {
			return fmt.Errorf("%w: %w: %q", ErrInvalidReportSpec, ErrDuplicateSectionTitle, sec.Title)
		}
		seen[sec.Title] = true

		if sec.InsightCount < 1 {
			return fmt.Errorf("%w: %w: section %q", ErrInvalidReportSpec, ErrInvalidInsightCount, sec.Title)
		}
		if sec.QuotesPerInsight < 0 {
			return fmt.Errorf("%w: %w: section %q", ErrInvalidReportSpec, ErrInvalidQuoteCount, sec.Title)
		}
	}

	return nil
}

// Conforms reports whether the report already satisfies the spec's mandated
// counts: one section per SectionSpec, each with exactly its insight count,
// each insight with exactly its quote count.
func Conforms(spec ReportSpec, report *Report) bool {
	if report == nil || len(report.Sections) != len(spec.Sections) {
		return false
	}
	for i, secSpec := range spec.Sections {
		sec := report.Sections[i]
		if sec.Title != secSpec.Title || len(sec.Insights) != secSpec.InsightCount {
			return false
		}
		for _, in := range sec.Insights {
			if len(in.Quotes) != secSpec.QuotesPerInsight {
				return false
			}
		}
	}
	return true
}
