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


package shape

import (
	"sort"
	"strings"

	"github.com/sifterlabs/sifter/core"
)

// PlaceholderQuote is the text used for synthesized supporting quotes.
const PlaceholderQuote = "Additional quote needed"

// PlaceholderLabel is the label used when no existing insight can seed a
// synthesized entry.
const PlaceholderLabel = "Additional insight needed"

// placeholderSuffix tags labels of insights derived from existing entries.
const placeholderSuffix = " (supplemental)"

// Enforce reshapes a report so every section holds exactly its mandated
// insight count and every insight exactly its mandated quote count. It is a
// pure function: the input report is never modified, and applying Enforce to
// an already-compliant report returns an equal report.
//
// Excess insights move to the nearest under-filled section first; remaining
// excess is truncated lowest-rank first. Shortfalls are filled by pulling
// from over-filled sections, then by reclassifying insights from sections
// the spec does not know about (keyword-overlap scoring), and finally by
// synthesizing placeholder entries so the count is always met exactly.
func Enforce(spec core.ReportSpec, report *core.Report) *core.Report {
	result := core.EmptyReport(spec)
	if report != nil {
		result.GeneratedAt = report.GeneratedAt
	}

	// Distribute input insights onto spec sections; anything the spec does
	// not recognize becomes the overflow pool.
	var overflow []core.Insight
	if report != nil {
		for _, sec := range report.Sections {
			target := matchTitle(spec, sec.Title)
			for _, in := range sec.Insights {
				if target < 0 {
					overflow = append(overflow, in.Clone())
				} else {
					result.Sections[target].Insights = append(result.Sections[target].Insights, in.Clone())
				}
			}
		}
	}

	moveExcessToShort(spec, result)
	reclassifyOverflow(spec, result, overflow)
	synthesizePlaceholders(spec, result)
	truncateExcess(spec, result)

	for i := range result.Sections {
		enforceQuoteCounts(spec.Sections[i], result.Sections[i].Insights)
	}
	return result
}

// moveExcessToShort relocates surplus insights from over-filled sections into
// the nearest under-filled section, measured by section index distance.
// The lowest-ranked surplus insights move first.
func moveExcessToShort(spec core.ReportSpec, report *core.Report) {
	for {
		from := -1
		for i := range report.Sections {
			if len(report.Sections[i].Insights) > spec.Sections[i].InsightCount {
				from = i
				break
			}
		}
		if from < 0 {
			return
		}

		to := nearestShort(spec, report, from)
		if to < 0 {
			return // no under-filled section left; truncation handles the rest
		}

		insights := report.Sections[from].Insights
		idx := lowestRank(insights)
		moved := insights[idx]
		report.Sections[from].Insights = append(insights[:idx], insights[idx+1:]...)
		report.Sections[to].Insights = append(report.Sections[to].Insights, moved)
	}
}

// nearestShort returns the index of the under-filled section closest to from,
// or -1. Ties resolve to the earlier section.
func nearestShort(spec core.ReportSpec, report *core.Report, from int) int {
	best, bestDist := -1, len(report.Sections)+1
	for i := range report.Sections {
		if i == from || len(report.Sections[i].Insights) >= spec.Sections[i].InsightCount {
			continue
		}
		dist := i - from
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}

// reclassifyOverflow fills remaining shortfalls from the overflow pool,
// relocating the best keyword-overlap match for each open slot.
func reclassifyOverflow(spec core.ReportSpec, report *core.Report, overflow []core.Insight) {
	for i := range report.Sections {
		for len(report.Sections[i].Insights) < spec.Sections[i].InsightCount && len(overflow) > 0 {
			best, bestScore := 0, -1
			for j, in := range overflow {
				score := keywordOverlap(in, spec.Sections[i].Keywords)
				if score > bestScore {
					best, bestScore = j, score
				}
			}
			report.Sections[i].Insights = append(report.Sections[i].Insights, overflow[best])
			overflow = append(overflow[:best], overflow[best+1:]...)
		}
	}
}

// keywordOverlap counts how many section keywords occur in the insight's
// label or quote texts.
func keywordOverlap(in core.Insight, keywords []string) int {
	var b strings.Builder
	b.WriteString(in.Label)
	for _, q := range in.Quotes {
		b.WriteByte(' ')
		b.WriteString(q.Text)
	}
	text := strings.ToLower(b.String())

	words := make(map[string]bool)
	for _, w := range strings.Fields(text) {
		words[strings.Trim(w, ".,!?;:'\"-()[]{}")] = true
	}

	score := 0
	for _, kw := range keywords {
		if words[kw] {
			score++
		}
	}
	return score
}

// synthesizePlaceholders pads still-short sections with entries derived from
// existing high-ranked insights, explicitly tagged, so counts are met exactly.
func synthesizePlaceholders(spec core.ReportSpec, report *core.Report) {
	for i := range report.Sections {
		for len(report.Sections[i].Insights) < spec.Sections[i].InsightCount {
			seed := highestRanked(report, i)
			placeholder := core.Insight{
				Label:       PlaceholderLabel,
				Placeholder: true,
				Quotes:      []core.SupportingQuote{},
			}
			if seed != nil {
				placeholder.Label = strings.TrimSuffix(seed.Label, placeholderSuffix) + placeholderSuffix
				placeholder.Rank = seed.Rank / 2
			}
			report.Sections[i].Insights = append(report.Sections[i].Insights, placeholder)
		}
	}
}

// highestRanked returns the highest-ranked non-placeholder insight, preferring
// the given section and falling back to the whole report. Returns nil when
// the report holds no real insights at all.
func highestRanked(report *core.Report, section int) *core.Insight {
	pick := func(insights []core.Insight) *core.Insight {
		var best *core.Insight
		for j := range insights {
			if insights[j].Placeholder {
				continue
			}
			if best == nil || insights[j].Rank > best.Rank {
				best = &insights[j]
			}
		}
		return best
	}

	if best := pick(report.Sections[section].Insights); best != nil {
		return best
	}
	for i := range report.Sections {
		if i == section {
			continue
		}
		if best := pick(report.Sections[i].Insights); best != nil {
			return best
		}
	}
	return nil
}

// truncateExcess drops surplus insights lowest-rank first once no
// under-filled section remains to absorb them.
func truncateExcess(spec core.ReportSpec, report *core.Report) {
	for i := range report.Sections {
		for len(report.Sections[i].Insights) > spec.Sections[i].InsightCount {
			insights := report.Sections[i].Insights
			idx := lowestRank(insights)
			report.Sections[i].Insights = append(insights[:idx], insights[idx+1:]...)
		}
	}
}

// lowestRank returns the index of the lowest-ranked insight. Ties resolve to
// the later entry so stable early entries survive.
func lowestRank(insights []core.Insight) int {
	idx := 0
	for j := 1; j < len(insights); j++ {
		if insights[j].Rank <= insights[idx].Rank {
			idx = j
		}
	}
	return idx
}

// enforceQuoteCounts trims or pads each insight's quote list to the mandated
// count. Surplus quotes are dropped from the tail; shortfalls are padded with
// placeholder quotes.
func enforceQuoteCounts(secSpec core.SectionSpec, insights []core.Insight) {
	for i := range insights {
		quotes := insights[i].Quotes
		if len(quotes) > secSpec.QuotesPerInsight {
			quotes = quotes[:secSpec.QuotesPerInsight]
		}
		for len(quotes) < secSpec.QuotesPerInsight {
			quotes = append(quotes, core.SupportingQuote{Text: PlaceholderQuote})
		}
		insights[i].Quotes = quotes
	}
}

// matchTitle resolves a section title against the spec, or -1.
func matchTitle(spec core.ReportSpec, title string) int {
	for i := range spec.Sections {
		if strings.EqualFold(spec.Sections[i].Title, title) {
			return i
		}
	}
	return -1
}

// SortByRank orders insights in a section rank-descending. Useful for export;
// Enforce itself preserves arrival order.
func SortByRank(insights []core.Insight) {
	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].Rank > insights[j].Rank
	})
}
