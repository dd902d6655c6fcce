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

import "regexp"

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// stripTrailingCommas removes commas that directly precede a closing brace
// or bracket, a frequent model output defect.
func stripTrailingCommas(s string) string {
	return trailingCommaRe.ReplaceAllString(s, "$1")
}

// repairJSON attempts to fix common JSON formatting issues in model responses.
// It handles keys with a missing opening quote (`, type":`) and fully bare
// keys (`, type:`) by quoting them.
func repairJSON(s string) string {
	result := []rune(s)
	fixed := make([]rune, 0, len(result)+100)

	i := 0
	for i < len(result) {
		ch := result[i]

		// After { or , look for unquoted keys
		if ch == '{' || ch == ',' {
			fixed = append(fixed, ch)
			i++

			// Skip whitespace
			for i < len(result) && (result[i] == ' ' || result[i] == '\n' || result[i] == '\t') {
				fixed = append(fixed, result[i])
				i++
			}

			// Check if we have an unquoted key (starts with letter, not with quote)
			if i < len(result) && result[i] != '"' && isLetter(result[i]) {
				keyStart := i
				// Find the end of the key name
				for i < len(result) && (isLetter(result[i]) || isDigit(result[i]) || result[i] == '_' || result[i] == ' ') {
					i++
				}
				keyEnd := i

				switch {
				case i+1 < len(result) && result[i] == '"' && result[i+1] == ':':
					// Missing opening quote only: key": -> "key":
					fixed = append(fixed, '"')
					fixed = append(fixed, result[keyStart:keyEnd]...)
					// The closing quote is already present at result[i].
					continue
				case i < len(result) && result[i] == ':':
					// Fully bare key: key: -> "key":
					fixed = append(fixed, '"')
					fixed = append(fixed, trimTrailingSpaces(result[keyStart:keyEnd])...)
					fixed = append(fixed, '"')
					continue
				default:
					// Not an unquoted key, just copy what we skipped
					fixed = append(fixed, result[keyStart:i]...)
				}
			}
		} else {
			fixed = append(fixed, ch)
			i++
		}
	}

	return string(fixed)
}

func trimTrailingSpaces(rs []rune) []rune {
	end := len(rs)
	for end > 0 && rs[end-1] == ' ' {
		end--
	}
	return rs[:end]
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// isDigit returns true if the rune is an ASCII digit.
func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
