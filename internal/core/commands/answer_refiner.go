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

// This file defines the iterative answering strategy: the question is asked
// against each transcript chunk in order, and every call carries the answer
// accumulated so far, so later chunks refine rather than replace it.
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

// AnswerRefiner folds the question over the transcript chunks, threading a
// running answer through every model call. Chunk order is the transcript's
// chronological order; the fold depends on it.
type AnswerRefiner struct {
	cor.BaseCommand
	generator      cloud.TextGenerator
	promptTemplate *template.Template
	callCounter    metric.Int64Counter
}

// NewAnswerRefiner is the constructor for the AnswerRefiner command.
func NewAnswerRefiner(
	name string,
	generator cloud.TextGenerator,
	prompt *template.Template) *AnswerRefiner {
	out := &AnswerRefiner{
		BaseCommand:    *cor.NewBaseCommand(name),
		generator:      generator,
		promptTemplate: prompt,
	}
	out.callCounter, _ = out.GetMeter().Int64Counter(name + ".genai.calls")
	return out
}

// IsExecutable additionally requires the question to be present.
func (a *AnswerRefiner) IsExecutable(context cor.Context) bool {
	return a.BaseCommand.IsExecutable(context) &&
		context.Get(GetQuestionParameterName()) != nil
}

// Execute runs one model call per chunk, feeding the previous call's answer
// into the next prompt, and places the final answer on the context.
func (a *AnswerRefiner) Execute(context cor.Context) {
	chunks := context.Get(a.GetInputParam()).([]string)
	question := context.Get(GetQuestionParameterName()).(string)

	answer := ""
	for i, chunk := range chunks {
		chunkCtx, span := a.Tracer.Start(context.GetContext(), fmt.Sprintf("%s_chunk_%d", a.GetName(), i))

		var prompt bytes.Buffer
		err := a.promptTemplate.Execute(&prompt, map[string]string{
			"Context": chunk,
			"Answer":  answer,
			"Query":   question,
		})
		if err != nil {
			span.SetStatus(codes.Error, "prompt template failed")
			span.End()
			a.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(a.GetName(), fmt.Errorf("failed to execute prompt template: %w", err))
			return
		}

		a.callCounter.Add(chunkCtx, 1)
		answer, err = a.generator.GenerateText(chunkCtx, prompt.String())
		if err != nil {
			span.SetStatus(codes.Error, "refine call failed")
			span.End()
			a.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(a.GetName(), fmt.Errorf("chunk %d refinement failed: %w", i, err))
			return
		}
		span.SetStatus(codes.Ok, "answer refined")
		span.End()
	}

	a.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(a.GetOutputParam(), answer)
}
