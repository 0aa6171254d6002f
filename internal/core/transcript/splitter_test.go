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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reassemble undoes the chunking: the first chunk whole, then every later
// chunk with its leading overlap runes dropped.
func reassemble(chunks []string, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		if i == 0 {
			b.WriteString(c)
			continue
		}
		b.WriteString(string([]rune(c)[overlap:]))
	}
	return b.String()
}

func TestNewSplitterValidation(t *testing.T) {
	_, err := NewSplitter(0, 0)
	assert.ErrorIs(t, err, ErrInvalidSplitterConfig)

	_, err = NewSplitter(100, -1)
	assert.ErrorIs(t, err, ErrInvalidSplitterConfig)

	_, err = NewSplitter(100, 100)
	assert.ErrorIs(t, err, ErrInvalidSplitterConfig)

	s, err := NewSplitter(100, 20)
	require.NoError(t, err)
	assert.Equal(t, 100, s.ChunkSize)
	assert.Equal(t, 20, s.ChunkOverlap)
}

func TestSplitShortInputIsSingleChunk(t *testing.T) {
	s, err := NewSplitter(2000, 100)
	require.NoError(t, err)

	chunks := s.Split("Hello world")
	require.Len(t, chunks, 1)
	assert.Equal(t, "Hello world", chunks[0])
}

func TestSplitEmptyInput(t *testing.T) {
	s, err := NewSplitter(100, 10)
	require.NoError(t, err)
	assert.Empty(t, s.Split(""))
}

func TestSplitRespectsChunkSize(t *testing.T) {
	s, err := NewSplitter(40, 8)
	require.NoError(t, err)

	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 20)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.LessOrEqualf(t, len([]rune(c)), 40, "chunk %d exceeds the size bound", i)
	}
}

func TestSplitOverlapAndRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		size    int
		overlap int
		text    string
	}{
		{"word boundaries", 50, 10, strings.Repeat("lorem ipsum dolor sit amet consectetur ", 30)},
		{"no spaces forces raw cuts", 32, 4, strings.Repeat("abcdefghij", 40)},
		{"zero overlap", 64, 0, strings.Repeat("pack my box with five dozen liquor jugs. ", 25)},
		{"paragraph breaks", 80, 16, strings.Repeat("first paragraph text here.\n\nsecond paragraph follows on.\n\n", 12)},
		{"multibyte runes", 30, 6, strings.Repeat("こんにちは世界 и привет мир ", 40)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewSplitter(tc.size, tc.overlap)
			require.NoError(t, err)

			chunks := s.Split(tc.text)
			require.NotEmpty(t, chunks)

			// Every chunk within bounds.
			for _, c := range chunks {
				assert.LessOrEqual(t, len([]rune(c)), tc.size)
				assert.NotEmpty(t, c)
			}

			// Each chunk after the first starts with the tail of its
			// predecessor.
			for i := 1; i < len(chunks); i++ {
				prev := []rune(chunks[i-1])
				tail := string(prev[len(prev)-tc.overlap:])
				assert.Truef(t, strings.HasPrefix(chunks[i], tail),
					"chunk %d does not re-cover the previous chunk's tail", i)
			}

			// Dropping the overlaps reconstructs the input exactly, so no
			// rune was skipped or duplicated outside the overlap spans.
			assert.Equal(t, tc.text, reassemble(chunks, tc.overlap))
		})
	}
}

func TestSplitPrefersWordBoundary(t *testing.T) {
	s, err := NewSplitter(20, 0)
	require.NoError(t, err)

	chunks := s.Split("alpha beta gamma delta epsilon zeta")
	require.Greater(t, len(chunks), 1)
	// The first cut should land after a space rather than mid-word.
	assert.True(t, strings.HasSuffix(chunks[0], " "), "expected cut after a word boundary, got %q", chunks[0])
}
