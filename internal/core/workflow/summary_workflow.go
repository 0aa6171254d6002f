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

package workflow

import (
	"context"
	"fmt"
	"text/template"

	"github.com/tubenote/tubenote/internal/cloud"
	"github.com/tubenote/tubenote/internal/core/commands"
	"github.com/tubenote/tubenote/internal/core/cor"
	"github.com/tubenote/tubenote/internal/core/model"
	"github.com/tubenote/tubenote/internal/core/transcript"
)

// SummaryWorkflow turns a caption track into a single prose summary:
// normalize, chunk, summarize each chunk, then merge the partial summaries.
type SummaryWorkflow struct {
	chain cor.Chain
}

// NewSummaryWorkflow builds the summarization chain from configuration. The
// prompt templates and chunking parameters come from the pipelines and
// prompt_templates config sections.
func NewSummaryWorkflow(config *cloud.Config, generator cloud.TextGenerator) (*SummaryWorkflow, error) {
	splitter, err := transcript.NewSplitter(config.Pipelines.ChunkSize, config.Pipelines.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("invalid chunking config: %w", err)
	}

	summarizePrompt, err := template.New("summarize").Parse(config.PromptTemplates.Summarize)
	if err != nil {
		return nil, fmt.Errorf("invalid summarize template: %w", err)
	}
	combinePrompt, err := template.New("combine").Parse(config.PromptTemplates.Combine)
	if err != nil {
		return nil, fmt.Errorf("invalid combine template: %w", err)
	}

	chain := cor.NewBaseChain("summary-workflow").
		AddCommand(commands.NewTranscriptNormalizer("summary-normalizer")).
		AddCommand(commands.NewTextChunker("summary-chunker", splitter)).
		AddCommand(commands.NewChunkSummarizer("chunk-summarizer", generator, summarizePrompt)).
		AddCommand(commands.NewSummaryReducer("summary-reducer", generator, combinePrompt, config.Pipelines.ChunkSize))

	return &SummaryWorkflow{chain: chain}, nil
}

// Summarize runs the chain over the given caption segments and returns the
// final summary. An empty transcript fails before any model call.
func (w *SummaryWorkflow) Summarize(ctx context.Context, segments []model.TranscriptSegment) (string, error) {
	if len(transcript.Normalize(segments)) == 0 {
		return "", ErrEmptyTranscript
	}

	c := cor.NewBaseContext()
	c.SetContext(ctx)
	c.Add(cor.CtxIn, segments)

	w.chain.Execute(c)
	if c.HasErrors() {
		return "", chainError(c)
	}
	return chainOutput(c)
}
