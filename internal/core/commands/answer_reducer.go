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

// This file defines the reduce step of the map-reduce answering strategy:
// the per-chunk candidate answers are synthesized into one final answer.
package commands

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/tubenote/tubenote/internal/cloud"
	"github.com/tubenote/tubenote/internal/core/cor"
)

// NoAnswerFound is the answer returned when no transcript chunk yielded a
// relevant candidate. The transcript simply not covering the question is a
// normal outcome, not a pipeline failure.
const NoAnswerFound = "The transcript does not contain an answer to this question."

// AnswerReducer merges candidate answers into the final one. A single
// candidate is already the answer and skips the model call; no candidates
// at all produce NoAnswerFound.
type AnswerReducer struct {
	cor.BaseCommand
	generator      cloud.TextGenerator
	promptTemplate *template.Template
	callCounter    metric.Int64Counter
}

// NewAnswerReducer is the constructor for the AnswerReducer command.
func NewAnswerReducer(
	name string,
	generator cloud.TextGenerator,
	prompt *template.Template) *AnswerReducer {
	out := &AnswerReducer{
		BaseCommand:    *cor.NewBaseCommand(name),
		generator:      generator,
		promptTemplate: prompt,
	}
	out.callCounter, _ = out.GetMeter().Int64Counter(name + ".genai.calls")
	return out
}

// IsExecutable additionally requires the question to be present.
func (a *AnswerReducer) IsExecutable(context cor.Context) bool {
	return a.BaseCommand.IsExecutable(context) &&
		context.Get(GetQuestionParameterName()) != nil
}

// Execute synthesizes the candidates and places the final answer string on
// the context.
func (a *AnswerReducer) Execute(context cor.Context) {
	candidates := context.Get(a.GetInputParam()).([]string)
	question := context.Get(GetQuestionParameterName()).(string)

	if len(candidates) == 0 {
		a.GetSuccessCounter().Add(context.GetContext(), 1)
		context.Add(a.GetOutputParam(), NoAnswerFound)
		return
	}
	if len(candidates) == 1 {
		a.GetSuccessCounter().Add(context.GetContext(), 1)
		context.Add(a.GetOutputParam(), strings.TrimSpace(candidates[0]))
		return
	}

	callCtx, span := a.Tracer.Start(context.GetContext(), a.GetName()+"_reduce")
	defer span.End()

	var prompt bytes.Buffer
	err := a.promptTemplate.Execute(&prompt, map[string]string{
		"Candidates": strings.Join(candidates, "\n\n"),
		"Query":      question,
	})
	if err != nil {
		span.SetStatus(codes.Error, "prompt template failed")
		a.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(a.GetName(), fmt.Errorf("failed to execute prompt template: %w", err))
		return
	}

	a.callCounter.Add(callCtx, 1)
	answer, err := a.generator.GenerateText(callCtx, prompt.String())
	if err != nil {
		span.SetStatus(codes.Error, "reduce call failed")
		a.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(a.GetName(), fmt.Errorf("answer reduction failed: %w", err))
		return
	}

	span.SetStatus(codes.Ok, "candidates reduced")
	a.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(a.GetOutputParam(), answer)
}
