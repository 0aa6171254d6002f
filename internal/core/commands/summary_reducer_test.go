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

package commands_test

import (
	"context"
	"strings"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubenote/tubenote/internal/core/commands"
	"github.com/tubenote/tubenote/internal/core/cor"
	"github.com/tubenote/tubenote/internal/testutil"
)

func runReducer(t *testing.T, gen *testutil.FakeGenerator, budget int, partials []string) (cor.Context, string) {
	t.Helper()
	prompt, err := template.New("combine").Parse("Combine:\n\n{{.Content}}")
	require.NoError(t, err)

	reducer := commands.NewSummaryReducer("test-reducer", gen, prompt, budget)

	c := cor.NewBaseContext()
	c.SetContext(context.Background())
	c.Add(cor.CtxIn, partials)
	reducer.Execute(c)

	out, _ := c.Get(cor.CtxOut).(string)
	return c, out
}

func TestSummaryReducerSingleShortPartialSkipsModel(t *testing.T) {
	gen := &testutil.FakeGenerator{}
	c, out := runReducer(t, gen, 100, []string{"already a summary"})

	assert.False(t, c.HasErrors())
	assert.Equal(t, "already a summary", out)
	assert.Zero(t, gen.CallCount())
}

func TestSummaryReducerSingleLongPartialGetsOnePass(t *testing.T) {
	gen := &testutil.FakeGenerator{Responses: []string{"condensed"}}
	long := strings.Repeat("x", 25)
	c, out := runReducer(t, gen, 10, []string{long})

	assert.False(t, c.HasErrors())
	assert.Equal(t, "condensed", out)
	assert.Equal(t, 1, gen.CallCount())
	assert.Contains(t, gen.Prompts[0], long)
}

func TestSummaryReducerRecombinesOversizedCombineOutput(t *testing.T) {
	// The first combine returns text still over the budget; the reducer
	// must run it through another round instead of returning it as-is.
	gen := &testutil.FakeGenerator{Responses: []string{strings.Repeat("b", 15), "fits now"}}
	c, out := runReducer(t, gen, 10, []string{strings.Repeat("a", 25)})

	assert.False(t, c.HasErrors())
	assert.Equal(t, "fits now", out)
	assert.Equal(t, 2, gen.CallCount())
	assert.Contains(t, gen.Prompts[1], strings.Repeat("b", 15))
}

func TestSummaryReducerCollapsesInRounds(t *testing.T) {
	// With a budget of 20 runes, three 15-rune partials each form their own
	// batch in round 0; the three short round-0 results fit a single batch
	// in round 1.
	partials := []string{
		strings.Repeat("a", 15),
		strings.Repeat("b", 15),
		strings.Repeat("c", 15),
	}
	gen := &testutil.FakeGenerator{Responses: []string{"x", "y", "z", "final summary"}}

	c, out := runReducer(t, gen, 20, partials)

	assert.False(t, c.HasErrors())
	assert.Equal(t, "final summary", out)
	assert.Equal(t, 4, gen.CallCount())
	assert.Contains(t, gen.Prompts[3], "x\n\ny\n\nz")
}
