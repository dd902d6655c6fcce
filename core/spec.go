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

// SectionSpec declares one report section, its mandated insight count, and the
// keyword set used to reclassify stray insights into it.
type SectionSpec struct {
	Title            string
	Keywords         []string
	InsightCount     int
	QuotesPerInsight int
}

// ReportSpec declares the full mandated shape of a report.
type ReportSpec struct {
	Sections []SectionSpec
}

// Section returns the spec for the section with the given title, or nil.
func (s *ReportSpec) Section(title string) *SectionSpec {
	for i := range s.Sections {
		if s.Sections[i].Title == title {
			return &s.Sections[i]
		}
	}
	return nil
}

// TotalInsights returns the sum of mandated insight counts across sections.
func (s *ReportSpec) TotalInsights() int {
	n := 0
	for _, sec := range s.Sections {
		n += sec.InsightCount
	}
	return n
}

// DefaultReportSpec returns the standard insight report shape:
// three key themes, two pain points, and two opportunities, each insight
// backed by two supporting quotes.
func DefaultReportSpec() ReportSpec {
	return ReportSpec{
		Sections: []SectionSpec{
			{
				Title:            "Key Themes",
				Keywords:         []string{"theme", "pattern", "common", "recurring", "overall", "trend", "often", "generally"},
				InsightCount:     3,
				QuotesPerInsight: 2,
			},
			{
				Title:            "Pain Points",
				Keywords:         []string{"pain", "problem", "issue", "frustration", "difficult", "struggle", "blocker", "confusing", "slow"},
				InsightCount:     2,
				QuotesPerInsight: 2,
			},
			{
				Title:            "Opportunities",
				Keywords:         []string{"opportunity", "improve", "wish", "want", "could", "would", "suggest", "idea", "future"},
				InsightCount:     2,
				QuotesPerInsight: 2,
			},
		},
	}
}

// EmptyReport returns a report with every section from the spec present and
// no insights. It is the parser's terminal fallback shape.
func EmptyReport(spec ReportSpec) *Report {
	sections := make([]Section, len(spec.Sections))
	for i, sec := range spec.Sections {
		sections[i] = Section{Title: sec.Title, Insights: []Insight{}}
	}
	return &Report{Sections: sections}
}
