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

// This file defines the map step of the summarization pipeline: each
// transcript chunk is summarized independently, producing one partial
// summary per chunk for the reducer to merge.
package commands

import (
	"bytes"
	"fmt"
	"text/template"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/tubenote/tubenote/internal/cloud"
	"github.com/tubenote/tubenote/internal/core/cor"
)

// ChunkSummarizer is a command that produces a partial summary for every
// chunk of the transcript. Chunks are processed in order; partial summaries
// come out in the same order as their source chunks.
type ChunkSummarizer struct {
	cor.BaseCommand
	generator      cloud.TextGenerator
	promptTemplate *template.Template
	callCounter    metric.Int64Counter // model invocations
}

// NewChunkSummarizer is the constructor for the ChunkSummarizer command.
func NewChunkSummarizer(
	name string,
	generator cloud.TextGenerator,
	prompt *template.Template) *ChunkSummarizer {
	out := &ChunkSummarizer{
		BaseCommand:    *cor.NewBaseCommand(name),
		generator:      generator,
		promptTemplate: prompt,
	}
	out.callCounter, _ = out.GetMeter().Int64Counter(name + ".genai.calls")
	return out
}

// Execute summarizes each chunk with one model call and places the slice of
// partial summaries on the context. The first failed call aborts the rest.
func (c *ChunkSummarizer) Execute(context cor.Context) {
	chunks := context.Get(c.GetInputParam()).([]string)

	partials := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		chunkCtx, span := c.Tracer.Start(context.GetContext(), fmt.Sprintf("%s_chunk_%d", c.GetName(), i))

		var prompt bytes.Buffer
		if err := c.promptTemplate.Execute(&prompt, map[string]string{"Content": chunk}); err != nil {
			span.SetStatus(codes.Error, "prompt template failed")
			span.End()
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), fmt.Errorf("failed to execute prompt template: %w", err))
			return
		}

		c.callCounter.Add(chunkCtx, 1)
		partial, err := c.generator.GenerateText(chunkCtx, prompt.String())
		if err != nil {
			span.SetStatus(codes.Error, "summarize call failed")
			span.End()
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), fmt.Errorf("chunk %d summarization failed: %w", i, err))
			return
		}
		span.SetStatus(codes.Ok, "chunk summarized")
		span.End()

		partials = append(partials, partial)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), partials)
}
