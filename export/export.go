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

package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sifterlabs/sifter/core"
)

// ErrNilReport is returned when a writer is handed a nil report.
var ErrNilReport = errors.New("cannot export nil report")

// WriteJSON writes the report in its canonical JSON form: a top-level
// "sections" array of titled sections, each holding labelled insights with
// supporting quotes. This is the same form the response parser accepts
// directly, so exported reports re-import losslessly.
func WriteJSON(w io.Writer, report *core.Report) error {
	if report == nil {
		return ErrNilReport
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// WriteMarkdown renders the report as a Markdown document with one
// heading per section and blockquoted supporting quotes.
func WriteMarkdown(w io.Writer, report *core.Report) error {
	if report == nil {
		return ErrNilReport
	}

	if _, err := fmt.Fprintf(w, "# Insight Report\n"); err != nil {
		return err
	}
	if !report.GeneratedAt.IsZero() {
		if _, err := fmt.Fprintf(w, "\nGenerated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04 MST")); err != nil {
			return err
		}
	}

	for _, sec := range report.Sections {
		if _, err := fmt.Fprintf(w, "\n## %s\n", sec.Title); err != nil {
			return err
		}
		for _, insight := range sec.Insights {
			label := insight.Label
			if insight.Placeholder {
				label += " *(placeholder)*"
			}
			if _, err := fmt.Fprintf(w, "\n### %s\n", label); err != nil {
				return err
			}
			for _, quote := range insight.Quotes {
				if err := writeQuote(w, quote); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func writeQuote(w io.Writer, quote core.SupportingQuote) error {
	attribution := ""
	switch {
	case quote.Speaker != "" && quote.Source != "":
		attribution = fmt.Sprintf(" — %s, %s", quote.Speaker, quote.Source)
	case quote.Speaker != "":
		attribution = fmt.Sprintf(" — %s", quote.Speaker)
	case quote.Source != "":
		attribution = fmt.Sprintf(" — %s", quote.Source)
	}
	_, err := fmt.Fprintf(w, "\n> %q%s\n", quote.Text, attribution)
	return err
}
