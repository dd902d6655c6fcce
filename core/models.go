package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces the same ID.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Status marks the processing outcome recorded on an excerpt.
type Status string

const (
	// StatusProcessed marks an excerpt that was analyzed successfully.
	StatusProcessed Status = "processed"
	// StatusFailed marks an excerpt whose batch exhausted its retries.
	StatusFailed Status = "failed"
)

// Excerpt is a single unit of text submitted for analysis.
// Excerpts are created upstream, passed in, and annotated in place with
// processing outcomes. Identity is caller-defined; IDFromContent is the
// conventional choice.
type Excerpt struct {
	Id       ID
	Text     string
	Speaker  string            // Speaker descriptor, e.g. "Participant 3"
	Source   string            // Source descriptor, e.g. "interview-07.txt"
	Rank     float64           // Relevance rank assigned by enrichment
	Status   Status            // Outcome annotation, empty until processed
	Stage    string            // Name of the stage that last touched the excerpt
	Error    string            // Failure message when Status is StatusFailed
	Retries  int               // Retry attempts consumed before the outcome
	Metadata map[string]string // Optional caller-defined metadata
}

// Clone returns a copy of the excerpt with its own metadata map.
func (e *Excerpt) Clone() *Excerpt {
	c := *e
	if e.Metadata != nil {
		c.Metadata = make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// SupportingQuote is a verbatim quote backing an insight.
type SupportingQuote struct {
	Text    string `json:"text"`
	Speaker string `json:"speaker"`
	Source  string `json:"source"`
}

// Insight is a single labelled finding with its supporting quotes.
type Insight struct {
	Label       string            `json:"label"`
	Quotes      []SupportingQuote `json:"quotes"`
	Rank        float64           `json:"rank,omitempty"`
	Placeholder bool              `json:"placeholder,omitempty"`
}

// Clone returns a copy of the insight with its own quote slice.
func (in Insight) Clone() Insight {
	c := in
	c.Quotes = make([]SupportingQuote, len(in.Quotes))
	copy(c.Quotes, in.Quotes)
	return c
}

// Section is one named category of a report.
type Section struct {
	Title    string    `json:"title"`
	Insights []Insight `json:"insights"`
}

// Report is the fixed-shape structured output produced from a model response.
// A report is created fresh per analysis call; after structure enforcement
// every section holds exactly the insight count its spec mandates.
type Report struct {
	Sections    []Section `json:"sections"`
	GeneratedAt time.Time `json:"generated_at,omitzero"`
}

// Section returns the section with the given title, or nil.
func (r *Report) Section(title string) *Section {
	for i := range r.Sections {
		if r.Sections[i].Title == title {
			return &r.Sections[i]
		}
	}
	return nil
}

// InsightCount returns the total number of insights across all sections.
func (r *Report) InsightCount() int {
	n := 0
	for i := range r.Sections {
		n += len(r.Sections[i].Insights)
	}
	return n
}

// Clone returns a deep copy of the report.
func (r *Report) Clone() *Report {
	c := &Report{
		Sections:    make([]Section, len(r.Sections)),
		GeneratedAt: r.GeneratedAt,
	}
	for i, s := range r.Sections {
		cs := Section{Title: s.Title, Insights: make([]Insight, len(s.Insights))}
		for j, in := range s.Insights {
			cs.Insights[j] = in.Clone()
		}
		c.Sections[i] = cs
	}
	return c
}
