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
	"encoding/json"
	"slices"
	"strings"

	"github.com/sifterlabs/sifter/core"
)

// decodePayload unmarshals a JSON candidate into a generic value.
func decodePayload(candidate string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// buildReport maps a decoded payload onto the spec's sections. The mapping is
// tolerant: section keys are fuzzy-matched against titles, insights and quotes
// accept several field spellings, and bare arrays are distributed across
// sections in spec order. Counts are not enforced here.
func buildReport(payload any, spec core.ReportSpec) *core.Report {
	report := core.EmptyReport(spec)

	switch v := payload.(type) {
	case map[string]any:
		if sections, ok := v["sections"].([]any); ok {
			buildFromSectionList(report, spec, sections)
		} else {
			buildFromKeyedObject(report, spec, v)
		}
	case []any:
		buildFromBareList(report, spec, v)
	}

	for i := range report.Sections {
		assignDefaultRanks(report.Sections[i].Insights)
	}
	return report
}

// buildFromSectionList handles the canonical {"sections":[{"title":...}]} form.
func buildFromSectionList(report *core.Report, spec core.ReportSpec, sections []any) {
	for _, raw := range sections {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		title, _ := m["title"].(string)
		idx := matchSection(spec, title)
		if idx < 0 {
			continue
		}
		appendInsights(&report.Sections[idx], m["insights"])
	}
}

// buildFromKeyedObject handles objects keyed by section name, e.g.
// {"key_themes":[...], "pain_points":[...]}.
func buildFromKeyedObject(report *core.Report, spec core.ReportSpec, obj map[string]any) {
	matched := make(map[string]bool, len(obj))

	for i := range spec.Sections {
		for key, val := range obj {
			if matched[key] {
				continue
			}
			if titlesMatch(spec.Sections[i].Title, key) {
				matched[key] = true
				appendInsights(&report.Sections[i], val)
				break
			}
		}
	}

	// Leftover array-valued keys still carry insights; attach them to
	// under-filled sections in spec order so nothing is dropped. Keys are
	// sorted for determinism.
	var leftovers []string
	for key, val := range obj {
		if matched[key] {
			continue
		}
		if _, ok := val.([]any); ok {
			leftovers = append(leftovers, key)
		}
	}
	slices.Sort(leftovers)

	for _, key := range leftovers {
		idx := 0
		for i := range report.Sections {
			if len(report.Sections[i].Insights) < spec.Sections[i].InsightCount {
				idx = i
				break
			}
		}
		appendInsights(&report.Sections[idx], obj[key])
	}
}

// buildFromBareList distributes a bare insight array across sections in spec
// order, filling each to its mandated count; overflow lands in the last section.
func buildFromBareList(report *core.Report, spec core.ReportSpec, list []any) {
	idx := 0
	for _, raw := range list {
		insight, ok := asInsight(raw)
		if !ok {
			continue
		}
		for idx < len(spec.Sections)-1 && len(report.Sections[idx].Insights) >= spec.Sections[idx].InsightCount {
			idx++
		}
		report.Sections[idx].Insights = append(report.Sections[idx].Insights, insight)
	}
}

// appendInsights converts a decoded value into insights appended to sec.
func appendInsights(sec *core.Section, val any) {
	list, ok := val.([]any)
	if !ok {
		if insight, ok := asInsight(val); ok {
			sec.Insights = append(sec.Insights, insight)
		}
		return
	}
	for _, raw := range list {
		if insight, ok := asInsight(raw); ok {
			sec.Insights = append(sec.Insights, insight)
		}
	}
}

var insightLabelKeys = []string{"label", "insight", "finding", "title", "name", "summary"}
var insightQuoteKeys = []string{"quotes", "supporting_quotes", "evidence", "citations"}

// asInsight converts a decoded element into an Insight. Plain strings become
// label-only insights.
func asInsight(raw any) (core.Insight, bool) {
	switch v := raw.(type) {
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return core.Insight{}, false
		}
		return core.Insight{Label: v, Quotes: []core.SupportingQuote{}}, true
	case map[string]any:
		insight := core.Insight{Quotes: []core.SupportingQuote{}}
		for _, key := range insightLabelKeys {
			if s, ok := v[key].(string); ok && strings.TrimSpace(s) != "" {
				insight.Label = strings.TrimSpace(s)
				break
			}
		}
		if insight.Label == "" {
			return core.Insight{}, false
		}
		if rank, ok := v["rank"].(float64); ok {
			insight.Rank = rank
		} else if score, ok := v["score"].(float64); ok {
			insight.Rank = score
		}
		if ph, ok := v["placeholder"].(bool); ok {
			insight.Placeholder = ph
		}
		for _, key := range insightQuoteKeys {
			quotes, ok := v[key].([]any)
			if !ok {
				continue
			}
			for _, rawQuote := range quotes {
				if q, ok := asQuote(rawQuote); ok {
					insight.Quotes = append(insight.Quotes, q)
				}
			}
			break
		}
		return insight, true
	default:
		return core.Insight{}, false
	}
}

// asQuote converts a decoded element into a SupportingQuote. Plain strings
// become text-only quotes.
func asQuote(raw any) (core.SupportingQuote, bool) {
	switch v := raw.(type) {
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return core.SupportingQuote{}, false
		}
		return core.SupportingQuote{Text: strings.Trim(v, `"`)}, true
	case map[string]any:
		var q core.SupportingQuote
		for _, key := range []string{"text", "quote"} {
			if s, ok := v[key].(string); ok && s != "" {
				q.Text = strings.Trim(strings.TrimSpace(s), `"`)
				break
			}
		}
		if q.Text == "" {
			return core.SupportingQuote{}, false
		}
		q.Speaker, _ = v["speaker"].(string)
		for _, key := range []string{"source", "interview", "document"} {
			if s, ok := v[key].(string); ok && s != "" {
				q.Source = s
				break
			}
		}
		return q, true
	default:
		return core.SupportingQuote{}, false
	}
}

// assignDefaultRanks gives unranked insights a descending positional rank so
// later truncation has a stable ordering to work with.
func assignDefaultRanks(insights []core.Insight) {
	n := len(insights)
	for i := range insights {
		if insights[i].Rank == 0 {
			insights[i].Rank = float64(n - i)
		}
	}
}

// matchSection returns the index of the spec section whose title matches the
// given name, or -1.
func matchSection(spec core.ReportSpec, name string) int {
	for i := range spec.Sections {
		if titlesMatch(spec.Sections[i].Title, name) {
			return i
		}
	}
	return -1
}

// titlesMatch compares section names after normalization, accepting
// containment in either direction ("key themes" matches "1. Key Themes").
func titlesMatch(a, b string) bool {
	na, nb := normalizeTitle(a), normalizeTitle(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb || strings.Contains(na, nb) || strings.Contains(nb, na)
}

// normalizeTitle lowercases, maps separators to spaces, strips everything
// else non-alphanumeric, and collapses whitespace.
func normalizeTitle(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '_' || r == '-':
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
