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
	"regexp"
	"strings"
)

// Greeting and filler prefixes models commonly emit before the payload.
var boilerplatePrefixes = []string{
	"sure, here is",
	"sure, here's",
	"certainly!",
	"certainly,",
	"of course!",
	"of course,",
	"here is the json",
	"here's the json",
	"here is the analysis",
	"here's the analysis",
	"here is your",
	"here's your",
}

// stripBoilerplate removes markdown code fences and greeting phrases that
// commonly wrap the payload.
func stripBoilerplate(text string) string {
	s := strings.TrimSpace(text)

	lower := strings.ToLower(s)
	for _, prefix := range boilerplatePrefixes {
		if strings.HasPrefix(lower, prefix) {
			// Drop the greeting line entirely.
			if idx := strings.IndexByte(s, '\n'); idx >= 0 {
				s = strings.TrimSpace(s[idx+1:])
			} else if idx := strings.IndexAny(s, "{["); idx >= 0 {
				s = s[idx:]
			}
			break
		}
	}

	// Strip markdown code fences if present
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	// A fenced block in the middle of prose: keep only the fenced content.
	if start := strings.Index(s, "```json"); start >= 0 {
		rest := s[start+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			s = strings.TrimSpace(rest[:end])
		}
	}

	return s
}

// directCandidate succeeds when the cleaned text is already valid JSON.
func directCandidate(text string) (string, bool) {
	if json.Valid([]byte(text)) {
		return text, true
	}
	return "", false
}

// balancedCandidate walks the text tracking brace and bracket nesting depth
// and extracts the first complete top-level region. String literals and
// escapes are respected so delimiters inside quotes do not affect depth.
func balancedCandidate(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}

	region, ok := balancedRegion(text[start:])
	if !ok || !json.Valid([]byte(region)) {
		return "", false
	}
	return region, true
}

// balancedRegion returns the prefix of text forming one complete balanced
// {} or [] region. text must start at an opening delimiter.
func balancedRegion(text string) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i, r := range text {
		if escaped {
			escaped = false
			continue
		}
		switch {
		case inString && r == '\\':
			escaped = true
		case r == '"':
			inString = !inString
		case inString:
			// Delimiters inside strings are content, not structure.
		case r == '{' || r == '[':
			depth++
		case r == '}' || r == ']':
			depth--
			if depth == 0 {
				return text[:i+len(string(r))], true
			}
			if depth < 0 {
				return "", false
			}
		}
	}
	return "", false
}

// Structural templates tried in order: nested object, array of objects,
// simple object, simple array. Greedy on purpose; each match is validated
// before use.
var structureTemplates = []*regexp.Regexp{
	regexp.MustCompile(`(?s)\{.*?:\s*\[.*?\{.*?\}.*?\].*\}`),
	regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`),
	regexp.MustCompile(`(?s)\{[^{}]*\}`),
	regexp.MustCompile(`(?s)\[[^\[\]]*\]`),
}

// templateCandidate tries the ordered template library against the text.
func templateCandidate(text string) (string, bool) {
	for _, re := range structureTemplates {
		match := re.FindString(text)
		if match == "" {
			continue
		}
		if json.Valid([]byte(match)) {
			return match, true
		}
		// The greedy match may overshoot; a balanced prefix can still be valid.
		if region, ok := balancedRegion(match); ok && json.Valid([]byte(region)) {
			return region, true
		}
	}
	return "", false
}

// repairCandidate applies light repair heuristics to the most plausible
// region and retries: trailing commas before closers are stripped and bare
// keys are quoted.
func repairCandidate(text string) (string, bool) {
	region := text
	if start := strings.IndexAny(text, "{["); start >= 0 {
		if r, ok := balancedRegion(text[start:]); ok {
			region = r
		} else {
			region = text[start:]
		}
	}

	repaired := repairJSON(stripTrailingCommas(region))
	if json.Valid([]byte(repaired)) {
		return repaired, true
	}
	return "", false
}

// Marker phrases that introduce the payload in chatty responses.
var markerPhrases = []string{
	"here is the json",
	"here's the json",
	"the json is",
	"json output",
	"response:",
	"result:",
	"output:",
	"analysis:",
}

// markerCandidate slices the text between a known marker phrase and the
// following balanced region.
func markerCandidate(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, marker := range markerPhrases {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}

		rest := text[idx+len(marker):]
		start := strings.IndexAny(rest, "{[")
		if start < 0 {
			continue
		}

		region, ok := balancedRegion(rest[start:])
		if !ok {
			continue
		}

		repaired := repairJSON(stripTrailingCommas(region))
		if json.Valid([]byte(repaired)) {
			return repaired, true
		}
	}
	return "", false
}
