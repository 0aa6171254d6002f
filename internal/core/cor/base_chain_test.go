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

package cor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// appendCommand appends its suffix to the piped string, or fails once.
type appendCommand struct {
	BaseCommand
	suffix string
	fail   bool
	ran    bool
}

func newAppendCommand(name, suffix string, fail bool) *appendCommand {
	return &appendCommand{BaseCommand: *NewBaseCommand(name), suffix: suffix, fail: fail}
}

func (a *appendCommand) Execute(context Context) {
	a.ran = true
	if a.fail {
		context.AddError(a.GetName(), errors.New("forced failure"))
		return
	}
	in := context.Get(a.GetInputParam()).(string)
	context.Add(a.GetOutputParam(), in+a.suffix)
}

func TestChainPipesOutputToNextInput(t *testing.T) {
	chain := NewBaseChain("test-chain").
		AddCommand(newAppendCommand("first", "-a", false)).
		AddCommand(newAppendCommand("second", "-b", false))

	c := NewBaseContext()
	c.SetContext(context.Background())
	c.Add(CtxIn, "start")

	chain.Execute(c)

	require.False(t, c.HasErrors())
	assert.Equal(t, "start-a-b", c.Get(CtxOut))
}

func TestChainStopsOnFirstError(t *testing.T) {
	failing := newAppendCommand("failing", "-a", true)
	skipped := newAppendCommand("skipped", "-b", false)

	chain := NewBaseChain("test-chain").
		AddCommand(failing).
		AddCommand(skipped)

	c := NewBaseContext()
	c.SetContext(context.Background())
	c.Add(CtxIn, "start")

	chain.Execute(c)

	require.True(t, c.HasErrors())
	assert.True(t, failing.ran)
	assert.False(t, skipped.ran)
	assert.Contains(t, c.GetErrors(), "failing")
}

func TestChainComposesAsCommand(t *testing.T) {
	inner := NewBaseChain("inner").
		AddCommand(newAppendCommand("inner-first", "-a", false)).
		AddCommand(newAppendCommand("inner-second", "-b", false))

	outer := NewBaseChain("outer").
		AddCommand(inner).
		AddCommand(newAppendCommand("outer-last", "-c", false))

	c := NewBaseContext()
	c.SetContext(context.Background())
	c.Add(CtxIn, "start")

	outer.Execute(c)

	require.False(t, c.HasErrors())
	assert.Equal(t, "start-a-b-c", c.Get(CtxOut))
}

func TestChainSkipsNonExecutableCommand(t *testing.T) {
	cmd := newAppendCommand("needs-input", "-a", false)
	chain := NewBaseChain("test-chain").AddCommand(cmd)

	// No CtxIn value, so the default precondition fails.
	c := NewBaseContext()
	c.SetContext(context.Background())

	chain.Execute(c)

	assert.False(t, cmd.ran)
	assert.Nil(t, c.Get(CtxOut))
}
