package extract

import (
	"regexp"
	"strings"
)

// speakerRe matches a dialogue attribution at the start of a paragraph,
// e.g. "Dana: the setup took forever". The name part is capped so prose
// containing a colon mid-sentence is not mistaken for attribution.
var speakerRe = regexp.MustCompile(`^([A-Z][\w .'-]{0,40}):\s+(.+)$`)

// paragraph is one candidate excerpt with its optional speaker.
type paragraph struct {
	speaker string
	text    string
}

// splitParagraphs cuts transcript text into paragraphs on blank lines and
// pulls dialogue attribution off each one. Consecutive lines from the same
// speaker stay in one paragraph; a new attribution starts a new paragraph
// even without a blank line, which is how most transcript exports look.
func splitParagraphs(text string) []paragraph {
	var (
		paragraphs []paragraph
		current    paragraph
		lines      []string
	)

	flush := func() {
		if len(lines) > 0 {
			current.text = strings.TrimSpace(strings.Join(lines, " "))
			if current.text != "" {
				paragraphs = append(paragraphs, current)
			}
		}
		current = paragraph{}
		lines = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		if m := speakerRe.FindStringSubmatch(line); m != nil {
			flush()
			current.speaker = m[1]
			lines = append(lines, m[2])
			continue
		}
		lines = append(lines, line)
	}
	flush()

	return paragraphs
}
