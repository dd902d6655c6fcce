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


package parse

import (
	"regexp"
	"strings"

	"github.com/sifterlabs/sifter/core"
)

// Citation templates tried in fixed precedence: quoted text with speaker and
// source, quoted text with speaker, unquoted with speaker and source,
// unquoted with speaker.
var citationTemplates = []*regexp.Regexp{
	regexp.MustCompile(`^[“"](.+)[”"]\s*[—–-]+\s*([^,]+),\s*(.+)$`),
	regexp.MustCompile(`^[“"](.+)[”"]\s*[—–-]+\s*(.+)$`),
	// Unquoted forms require an em or en dash so ordinary hyphenated prose
	// does not register as a citation.
	regexp.MustCompile(`^(.+?)\s*[—–]\s*([^,]+),\s*(.+)$`),
	regexp.MustCompile(`^(.+?)\s*[—–]\s*(.+)$`),
}

var entryMarkerRe = regexp.MustCompile(`^(?:\d+[.)]|[-*•])\s+(.+)$`)

// parseSections is the secondary parser for non-serialized free text. It
// tracks a current section via keyword heuristics and accumulates numbered or
// bulleted entries as insights, attaching quote lines to the most recent
// entry.
//
// A header for a different section is deliberately ignored while the active
// section has fewer insights than its mandated count. This keeps short
// ambiguous lines ("the main pain point was...") from prematurely switching
// sections, at the cost of occasionally misfiling a genuine header. Known
// correctness risk; kept as is.
func parseSections(text string, spec core.ReportSpec) (*core.Report, bool) {
	report := core.EmptyReport(spec)
	current := -1
	found := 0

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		if idx := matchHeader(line, spec); idx >= 0 && idx != current {
			if current < 0 || len(report.Sections[current].Insights) >= spec.Sections[current].InsightCount {
				current = idx
				continue
			}
			// Active section not full yet: not a switch, fall through and
			// see whether the line carries an entry of its own.
		}

		if m := entryMarkerRe.FindStringSubmatch(line); m != nil {
			sec := currentSection(report, current)
			sec.Insights = append(sec.Insights, core.Insight{
				Label:  strings.TrimSpace(m[1]),
				Quotes: []core.SupportingQuote{},
			})
			found++
			continue
		}

		if quote, ok := matchCitation(line); ok {
			sec := currentSection(report, current)
			if n := len(sec.Insights); n > 0 {
				sec.Insights[n-1].Quotes = append(sec.Insights[n-1].Quotes, quote)
			}
			continue
		}

		// Prose line with neither marker nor citation: ignored.
	}

	if found == 0 {
		return nil, false
	}

	for i := range report.Sections {
		assignDefaultRanks(report.Sections[i].Insights)
	}
	return report, true
}

// currentSection resolves the insertion target; entries seen before any
// header land in the first section.
func currentSection(report *core.Report, current int) *core.Section {
	if current < 0 {
		current = 0
	}
	return &report.Sections[current]
}

// matchHeader decides whether a line announces a section, returning the
// section index or -1. A line qualifies when it looks like a header (short,
// and either fenced with markdown emphasis, prefixed with #, or ending in a
// colon) and names a section by title or keyword.
func matchHeader(line string, spec core.ReportSpec) int {
	if len(line) > 80 {
		return -1
	}

	stripped := strings.TrimLeft(line, "#*= ")
	stripped = strings.TrimRight(stripped, ":*= ")
	headerish := stripped != line || strings.HasSuffix(line, ":")

	norm := normalizeTitle(stripped)
	if norm == "" {
		return -1
	}

	// Exact or containment title match works even without header markers.
	for i := range spec.Sections {
		if titlesMatch(spec.Sections[i].Title, stripped) {
			return i
		}
	}

	if !headerish {
		return -1
	}

	// Keyword-based match for renamed headers ("Recurring Patterns:").
	words := strings.Fields(norm)
	for i := range spec.Sections {
		for _, kw := range spec.Sections[i].Keywords {
			for _, w := range words {
				if w == kw {
					return i
				}
			}
		}
	}
	return -1
}

// matchCitation tries the citation templates in precedence order.
func matchCitation(line string) (core.SupportingQuote, bool) {
	for _, re := range citationTemplates {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		quote := core.SupportingQuote{
			Text:    strings.TrimSpace(m[1]),
			Speaker: strings.TrimSpace(m[2]),
		}
		if len(m) > 3 {
			quote.Source = strings.TrimSpace(m[3])
		}
		return quote, true
	}
	return core.SupportingQuote{}, false
}
