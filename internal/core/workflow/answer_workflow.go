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
	"strings"
	"text/template"

	"github.com/tubenote/tubenote/internal/cloud"
	"github.com/tubenote/tubenote/internal/core/commands"
	"github.com/tubenote/tubenote/internal/core/cor"
	"github.com/tubenote/tubenote/internal/core/model"
	"github.com/tubenote/tubenote/internal/core/transcript"
)

// AnswerWorkflow answers a free-form question from a video's caption track.
// Two strategies exist: "refine" folds the question over the chunks in
// order, carrying a running answer; "map_reduce" queries all chunks
// concurrently and synthesizes the candidates. The strategy is fixed at
// construction from configuration.
type AnswerWorkflow struct {
	chain cor.Chain
}

// NewAnswerWorkflow builds the answering chain for the configured strategy.
// An empty strategy means "refine"; anything else unrecognized is an error.
func NewAnswerWorkflow(config *cloud.Config, generator cloud.TextGenerator) (*AnswerWorkflow, error) {
	splitter, err := transcript.NewSplitter(config.Pipelines.ChunkSize, config.Pipelines.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("invalid chunking config: %w", err)
	}

	chain := cor.NewBaseChain("answer-workflow").
		AddCommand(commands.NewTranscriptNormalizer("answer-normalizer")).
		AddCommand(commands.NewTextChunker("answer-chunker", splitter))

	strategy := config.Pipelines.AnswerStrategy
	if strategy == "" {
		strategy = StrategyRefine
	}
	switch strategy {
	case StrategyRefine:
		refinePrompt, err := template.New("refine").Parse(config.PromptTemplates.Refine)
		if err != nil {
			return nil, fmt.Errorf("invalid refine template: %w", err)
		}
		chain.AddCommand(commands.NewAnswerRefiner("answer-refiner", generator, refinePrompt))
	case StrategyMapReduce:
		mapPrompt, err := template.New("map_question").Parse(config.PromptTemplates.MapQuestion)
		if err != nil {
			return nil, fmt.Errorf("invalid map_question template: %w", err)
		}
		reducePrompt, err := template.New("reduce_answers").Parse(config.PromptTemplates.ReduceAnswers)
		if err != nil {
			return nil, fmt.Errorf("invalid reduce_answers template: %w", err)
		}
		chain.AddCommand(commands.NewAnswerMapper("answer-mapper", generator, mapPrompt, config.Pipelines.MapWorkers)).
			AddCommand(commands.NewAnswerReducer("answer-reducer", generator, reducePrompt))
	default:
		return nil, fmt.Errorf("unknown answer strategy %q", strategy)
	}

	return &AnswerWorkflow{chain: chain}, nil
}

// Answer runs the chain and returns the final answer. A blank question or
// empty transcript fails before any model call.
func (w *AnswerWorkflow) Answer(ctx context.Context, segments []model.TranscriptSegment, question string) (string, error) {
	if len(strings.TrimSpace(question)) == 0 {
		return "", ErrEmptyQuestion
	}
	if len(transcript.Normalize(segments)) == 0 {
		return "", ErrEmptyTranscript
	}

	c := cor.NewBaseContext()
	c.SetContext(ctx)
	c.Add(cor.CtxIn, segments)
	c.Add(commands.GetQuestionParameterName(), question)

	w.chain.Execute(c)
	if c.HasErrors() {
		return "", chainError(c)
	}
	return chainOutput(c)
}
