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

// This file defines the reduce step of the summarization pipeline. Partial
// chunk summaries are merged into a single coherent summary, collapsing in
// rounds when the combined partials themselves exceed the prompt budget.
package commands

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/tubenote/tubenote/internal/cloud"
	"github.com/tubenote/tubenote/internal/core/cor"
)

// partialJoiner separates partial summaries inside a combine prompt.
const partialJoiner = "\n\n"

// maxReduceRounds bounds the collapse loop. The model decides how long its
// combined output is, so without a cap a model that never condenses below
// the budget would loop forever.
const maxReduceRounds = 8

// SummaryReducer merges partial summaries into the final summary. A single
// partial that already fits the prompt budget is returned as-is with no
// model call; everything else is combined in rounds until one summary
// remains.
type SummaryReducer struct {
	cor.BaseCommand
	generator      cloud.TextGenerator
	promptTemplate *template.Template
	promptBudget   int // max runes of combined partials per model call
	callCounter    metric.Int64Counter
}

// NewSummaryReducer is the constructor for the SummaryReducer command. The
// promptBudget matches the chunker's chunk size so a combine prompt is never
// larger than a map prompt.
func NewSummaryReducer(
	name string,
	generator cloud.TextGenerator,
	prompt *template.Template,
	promptBudget int) *SummaryReducer {
	out := &SummaryReducer{
		BaseCommand:    *cor.NewBaseCommand(name),
		generator:      generator,
		promptTemplate: prompt,
		promptBudget:   promptBudget,
	}
	out.callCounter, _ = out.GetMeter().Int64Counter(name + ".genai.calls")
	return out
}

// Execute collapses the partial summaries round by round and places the
// final summary string on the context.
func (r *SummaryReducer) Execute(context cor.Context) {
	partials := context.Get(r.GetInputParam()).([]string)

	if len(partials) == 1 && utf8.RuneCountInString(partials[0]) <= r.promptBudget {
		r.GetSuccessCounter().Add(context.GetContext(), 1)
		context.Add(r.GetOutputParam(), strings.TrimSpace(partials[0]))
		return
	}

	// Collapse until a single summary fits the budget. The fit is
	// re-checked after every round, so an oversized output of the final
	// combine goes through another pass.
	for round := 0; r.needsRound(partials); round++ {
		if round >= maxReduceRounds {
			break
		}
		groups := r.group(partials)
		next := make([]string, 0, len(groups))
		for i, g := range groups {
			combined, err := r.combine(context, fmt.Sprintf("%s_round_%d_group_%d", r.GetName(), round, i), g)
			if err != nil {
				r.GetErrorCounter().Add(context.GetContext(), 1)
				context.AddError(r.GetName(), err)
				return
			}
			next = append(next, combined)
		}
		partials = next
	}

	// Normally a single summary remains; if the round cap was hit the
	// surviving partials are joined rather than dropped.
	r.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(r.GetOutputParam(), strings.Join(partials, partialJoiner))
}

// needsRound reports whether another collapse round is required: more than
// one partial remains, or the lone survivor still exceeds the budget.
func (r *SummaryReducer) needsRound(partials []string) bool {
	return len(partials) > 1 || utf8.RuneCountInString(partials[0]) > r.promptBudget
}

// group packs consecutive partials into batches whose joined text stays
// within the prompt budget. A partial that alone exceeds the budget still
// forms its own batch so the reduction always makes progress.
func (r *SummaryReducer) group(partials []string) [][]string {
	groups := make([][]string, 0, len(partials))
	var current []string
	size := 0
	for _, p := range partials {
		n := utf8.RuneCountInString(p)
		if len(current) > 0 && size+len(partialJoiner)+n > r.promptBudget {
			groups = append(groups, current)
			current = nil
			size = 0
		}
		if len(current) > 0 {
			size += len(partialJoiner)
		}
		current = append(current, p)
		size += n
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// combine runs one model call merging a batch of partials.
func (r *SummaryReducer) combine(context cor.Context, spanName string, batch []string) (string, error) {
	callCtx, span := r.Tracer.Start(context.GetContext(), spanName)
	defer span.End()

	var prompt bytes.Buffer
	if err := r.promptTemplate.Execute(&prompt, map[string]string{"Content": strings.Join(batch, partialJoiner)}); err != nil {
		span.SetStatus(codes.Error, "prompt template failed")
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	r.callCounter.Add(callCtx, 1)
	out, err := r.generator.GenerateText(callCtx, prompt.String())
	if err != nil {
		span.SetStatus(codes.Error, "combine call failed")
		return "", fmt.Errorf("summary combine failed: %w", err)
	}
	span.SetStatus(codes.Ok, "partials combined")
	return out, nil
}
