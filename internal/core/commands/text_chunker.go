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

// This file defines the command that slices the normalized transcript into
// overlapping chunks sized to fit a single model prompt.
package commands

import (
	"errors"

	"go.opentelemetry.io/otel/metric"

	"github.com/tubenote/tubenote/internal/core/cor"
	"github.com/tubenote/tubenote/internal/core/transcript"
)

// TextChunker splits a text document into overlapping chunks using the
// boundary-aware splitter.
type TextChunker struct {
	cor.BaseCommand
	splitter     *transcript.Splitter
	chunkCounter metric.Int64Counter // total chunks produced
}

// NewTextChunker is the constructor for the TextChunker command.
func NewTextChunker(name string, splitter *transcript.Splitter) *TextChunker {
	out := &TextChunker{
		BaseCommand: *cor.NewBaseCommand(name),
		splitter:    splitter,
	}
	out.chunkCounter, _ = out.GetMeter().Int64Counter(name + ".chunks")
	return out
}

// Execute splits the input document and places the chunk slice on the
// context. The normalizer upstream guarantees non-empty input, so an empty
// split is still treated as an error rather than silently producing an
// empty pipeline.
func (t *TextChunker) Execute(context cor.Context) {
	text := context.Get(t.GetInputParam()).(string)

	chunks := t.splitter.Split(text)
	if len(chunks) == 0 {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), errors.New("no chunks produced from input text"))
		return
	}

	t.chunkCounter.Add(context.GetContext(), int64(len(chunks)))
	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(t.GetOutputParam(), chunks)
}
