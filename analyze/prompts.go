package analyze

import (
	"fmt"
	"strings"

	"github.com/sifterlabs/sifter/core"
)

const analysisResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "sections": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "title": {
            "type": "string"
          },
          "insights": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {
                "label": {
                  "type": "string"
                },
                "rank": {
                  "type": "integer",
                  "minimum": 1,
                  "maximum": 10
                },
                "quotes": {
                  "type": "array",
                  "items": {
                    "type": "object",
                    "properties": {
                      "text": {"type": "string"},
                      "speaker": {"type": "string"},
                      "source": {"type": "string"}
                    },
                    "required": ["text"],
                    "additionalProperties": false
                  }
                }
              },
              "required": ["label", "rank", "quotes"],
              "additionalProperties": false
            }
          }
        },
        "required": ["title", "insights"],
        "additionalProperties": false
      }
    }
  },
  "required": ["sections"],
  "additionalProperties": false
}`

const analysisPromptTemplate = `Analyze the given interview excerpts and return structured insights as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Produce exactly these sections, in this order:
%s

Rules:
- Every insight label is a short declarative phrase summarizing a finding, not a question.
- Rank is an integer from 1 (marginal) to 10 (central). Rate based on how strongly the excerpts support the finding.
- Quotes must be verbatim text taken from the excerpts. Do not paraphrase and do not invent quotes.
- Carry over the speaker and source from the excerpt each quote was taken from.
- If the excerpts do not support enough insights for a section, return fewer rather than inventing findings.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`

// buildSystemPrompt creates the system prompt with the report shape embedded.
func buildSystemPrompt(spec core.ReportSpec) string {
	var b strings.Builder
	for _, sec := range spec.Sections {
		fmt.Fprintf(&b, "- %q: %d insights, each backed by %d supporting quotes\n",
			sec.Title, sec.InsightCount, sec.QuotesPerInsight)
	}
	return fmt.Sprintf(analysisPromptTemplate,
		analysisResponseSchema,
		strings.TrimRight(b.String(), "\n"))
}

// buildUserPrompt renders a batch of excerpts as a numbered list with
// speaker and source attribution.
func buildUserPrompt(excerpts []*core.Excerpt) string {
	var b strings.Builder
	for i, ex := range excerpts {
		fmt.Fprintf(&b, "%d. %s", i+1, strings.TrimSpace(ex.Text))
		if ex.Speaker != "" || ex.Source != "" {
			b.WriteString(" (")
			if ex.Speaker != "" {
				b.WriteString(ex.Speaker)
			}
			if ex.Speaker != "" && ex.Source != "" {
				b.WriteString(", ")
			}
			if ex.Source != "" {
				b.WriteString(ex.Source)
			}
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
