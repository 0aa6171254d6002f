// Copyright 2025 TubeNote Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package transcript converts raw caption data into plain text and splits
// that text into bounded, overlapping chunks sized for a generative model's
// context window. It is pure string manipulation with no I/O; the commands
// package wraps these functions into pipeline steps.
package transcript

import (
	"strings"

	"github.com/tubenote/tubenote/internal/core/model"
)

// Normalize flattens an ordered sequence of caption segments into a single
// plain-text string: each segment's text in sequence order, separated by a
// single space, with leading and trailing whitespace trimmed. No segment is
// dropped; a segment with empty text contributes only its separator. An
// empty sequence yields the empty string, not an error.
func Normalize(segments []model.TranscriptSegment) string {
	if len(segments) == 0 {
		return ""
	}
	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Text
	}
	return strings.TrimSpace(strings.Join(texts, " "))
}

// NormalizeDump converts a raw newline-delimited "timestamp  text" caption
// dump into plain text. Each line is split on the first double space into a
// timestamp and its text; only the text survives, re-joined with single
// spaces. Lines without a double space are kept whole so no words are lost.
func NormalizeDump(raw string) string {
	if raw == "" {
		return ""
	}
	lines := strings.Split(raw, "\n")
	texts := make([]string, len(lines))
	for i, line := range lines {
		if _, text, ok := strings.Cut(line, "  "); ok {
			texts[i] = text
		} else {
			texts[i] = line
		}
	}
	return strings.TrimSpace(strings.Join(texts, " "))
}
