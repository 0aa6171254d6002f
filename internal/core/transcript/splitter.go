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

package transcript

import (
	"errors"
	"fmt"
	"strings"
)

// boundarySeparators are tried in order when choosing where to cut a chunk:
// paragraph break, line break, sentence end, word break. When none occurs
// inside the window the cut falls back to a raw rune cut.
var boundarySeparators = []string{"\n\n", "\n", ". ", " "}

// ErrInvalidSplitterConfig is returned by NewSplitter for a non-positive
// chunk size, a negative overlap, or an overlap that is not smaller than the
// chunk size.
var ErrInvalidSplitterConfig = errors.New("transcript: invalid splitter configuration")

// Splitter cuts normalized transcript text into an ordered sequence of
// chunks of at most ChunkSize runes, where each chunk after the first
// re-covers the final ChunkOverlap runes of its predecessor. Cuts prefer
// natural boundaries (paragraph, newline, sentence, word) and fall back to
// raw rune cuts, so every rune of the input appears in at least one chunk
// and no rune is ever skipped.
//
// The ordering of the output matters: the question-answering refinement
// walks chunks front to back and feeds each step the previous step's
// partial answer.
type Splitter struct {
	ChunkSize    int // maximum chunk length in runes, > 0
	ChunkOverlap int // runes shared with the previous chunk, >= 0 and < ChunkSize
}

// NewSplitter validates the configuration and returns a Splitter.
func NewSplitter(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidSplitterConfig, chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrInvalidSplitterConfig, chunkOverlap, chunkSize)
	}
	return &Splitter{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}, nil
}

// Split returns the ordered chunk sequence for text. Input no longer than
// ChunkSize comes back as a single chunk equal to the input; empty input
// yields no chunks. Concatenating the chunks with each successor's first
// ChunkOverlap runes removed reconstructs the input exactly.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}
	if n <= s.ChunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for {
		end := start + s.ChunkSize
		if end >= n {
			chunks = append(chunks, string(runes[start:]))
			return chunks
		}
		cut := s.boundary(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))
		// The next chunk restarts inside the previous one so the model sees
		// ChunkOverlap runes of shared context across the cut.
		start = cut - s.ChunkOverlap
	}
}

// boundary picks the cut index in (start, end] for a chunk beginning at
// start. It takes the latest occurrence of the highest-priority separator
// inside the window, cutting after the separator so the separator runes stay
// with the earlier chunk. The search never reaches back past the overlap
// span, which keeps every cut strictly ahead of the previous one.
func (s *Splitter) boundary(runes []rune, start, end int) int {
	min := start + s.ChunkOverlap + 1
	if min >= end {
		return end
	}
	window := string(runes[min:end])
	for _, sep := range boundarySeparators {
		if i := strings.LastIndex(window, sep); i >= 0 {
			return min + len([]rune(window[:i+len(sep)]))
		}
	}
	return end
}
