package analyze

import (
	"github.com/sifterlabs/sifter/core"
	"github.com/sifterlabs/sifter/shape"
)

// mergeReports folds per-batch partial reports into a single report laid
// out per the spec. Insights land in the section with the matching title,
// sorted by rank descending. Each section's total quote count is capped at
// maxQuotes; once a section is full, lower-ranked insights are dropped.
func mergeReports(spec core.ReportSpec, reports []*core.Report, maxQuotes int) *core.Report {
	merged := core.EmptyReport(spec)

	index := make(map[string]int, len(merged.Sections))
	for i, sec := range merged.Sections {
		index[sec.Title] = i
	}

	for _, report := range reports {
		if report == nil {
			continue
		}
		for _, sec := range report.Sections {
			i, ok := index[sec.Title]
			if !ok {
				continue
			}
			for _, insight := range sec.Insights {
				merged.Sections[i].Insights = append(merged.Sections[i].Insights, insight.Clone())
			}
		}
	}

	for i := range merged.Sections {
		shape.SortByRank(merged.Sections[i].Insights)
		merged.Sections[i].Insights = capQuotes(merged.Sections[i].Insights, maxQuotes)
	}
	return merged
}

// capQuotes keeps insights in order until the section's cumulative quote
// count would exceed the cap. Insights without quotes never trip the cap.
func capQuotes(insights []core.Insight, maxQuotes int) []core.Insight {
	if maxQuotes <= 0 {
		return insights
	}
	total := 0
	for i, insight := range insights {
		total += len(insight.Quotes)
		if total > maxQuotes {
			return insights[:i]
		}
	}
	return insights
}
