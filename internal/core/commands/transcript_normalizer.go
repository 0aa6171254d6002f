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

// This file defines the first command of every transcript pipeline. Caption
// tracks arrive as timed segments; the language model works on plain prose,
// so the segments are flattened to a single normalized string before any
// chunking or prompting happens.
package commands

import (
	"errors"

	"github.com/tubenote/tubenote/internal/core/cor"
	"github.com/tubenote/tubenote/internal/core/model"
	"github.com/tubenote/tubenote/internal/core/transcript"
)

// TranscriptNormalizer flattens caption segments into one text document.
type TranscriptNormalizer struct {
	cor.BaseCommand
}

// NewTranscriptNormalizer is the constructor for the TranscriptNormalizer
// command.
func NewTranscriptNormalizer(name string) *TranscriptNormalizer {
	return &TranscriptNormalizer{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute joins the segment texts and places the normalized document on the
// context. An empty result is an error: every downstream command needs text
// to work on.
func (t *TranscriptNormalizer) Execute(context cor.Context) {
	segments := context.Get(t.GetInputParam()).([]model.TranscriptSegment)

	text := transcript.Normalize(segments)
	if len(text) == 0 {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), errors.New("transcript contains no text"))
		return
	}

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(t.GetOutputParam(), text)
}
