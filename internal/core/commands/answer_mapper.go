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

// This file defines the map step of the map-reduce answering strategy. Each
// chunk is queried independently, so the calls carry no shared state and can
// run concurrently on a worker pool. Results are reassembled in chunk order
// after the join barrier so the reducer sees candidates chronologically.
package commands

import (
	"bytes"
	goctx "context"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/tubenote/tubenote/internal/cloud"
	"github.com/tubenote/tubenote/internal/core/cor"
)

// AnswerMapper asks the question of every chunk in parallel and collects the
// per-chunk candidate answers.
type AnswerMapper struct {
	cor.BaseCommand
	generator       cloud.TextGenerator
	promptTemplate  *template.Template
	numberOfWorkers int
	callCounter     metric.Int64Counter
}

// NewAnswerMapper is the constructor for the AnswerMapper command.
func NewAnswerMapper(
	name string,
	generator cloud.TextGenerator,
	prompt *template.Template,
	numberOfWorkers int) *AnswerMapper {
	if numberOfWorkers < 1 {
		numberOfWorkers = 1
	}
	out := &AnswerMapper{
		BaseCommand:     *cor.NewBaseCommand(name),
		generator:       generator,
		promptTemplate:  prompt,
		numberOfWorkers: numberOfWorkers,
	}
	out.callCounter, _ = out.GetMeter().Int64Counter(name + ".genai.calls")
	return out
}

// IsExecutable additionally requires the question to be present.
func (a *AnswerMapper) IsExecutable(context cor.Context) bool {
	return a.BaseCommand.IsExecutable(context) &&
		context.Get(GetQuestionParameterName()) != nil
}

// mapJob carries one chunk to a worker.
type mapJob struct {
	sequence int
	ctx      goctx.Context
	span     trace.Span
	prompt   string
	err      error
}

// mapResult carries one candidate answer back, tagged with its chunk index
// so ordering survives the concurrent execution.
type mapResult struct {
	sequence int
	value    string
	err      error
}

// Execute fans the chunks out over the worker pool, waits on the join
// barrier, and places the ordered candidate slice on the context. Empty
// candidates are dropped; the reducer only sees chunks that had something
// to say.
func (a *AnswerMapper) Execute(context cor.Context) {
	chunks := context.Get(a.GetInputParam()).([]string)
	question := context.Get(GetQuestionParameterName()).(string)

	jobs := make(chan *mapJob, len(chunks))
	results := make(chan *mapResult, len(chunks))

	var wg sync.WaitGroup
	for w := 0; w < a.numberOfWorkers; w++ {
		wg.Add(1)
		go a.mapWorker(jobs, results, &wg)
	}

	for i, chunk := range chunks {
		jobs <- a.createJob(context.GetContext(), i, chunk, question)
	}
	close(jobs)

	wg.Wait()
	close(results)

	// The context is only written here, after every worker has finished.
	ordered := make([]string, len(chunks))
	for r := range results {
		if r.err != nil {
			a.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(a.GetName(), r.err)
			continue
		}
		ordered[r.sequence] = r.value
	}
	if context.HasErrors() {
		return
	}

	candidates := make([]string, 0, len(chunks))
	for _, c := range ordered {
		if len(strings.TrimSpace(c)) > 0 {
			candidates = append(candidates, c)
		}
	}

	a.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(a.GetOutputParam(), candidates)
}

// createJob renders the prompt for one chunk and opens its span.
func (a *AnswerMapper) createJob(ctx goctx.Context, sequence int, chunk string, question string) *mapJob {
	jobCtx, span := a.Tracer.Start(ctx, fmt.Sprintf("%s_chunk_%d", a.GetName(), sequence))
	span.SetAttributes(attribute.Int("sequence", sequence))

	var prompt bytes.Buffer
	err := a.promptTemplate.Execute(&prompt, map[string]string{
		"Context": chunk,
		"Query":   question,
	})
	if err != nil {
		return &mapJob{sequence: sequence, ctx: jobCtx, span: span, err: fmt.Errorf("failed to execute prompt template: %w", err)}
	}

	return &mapJob{sequence: sequence, ctx: jobCtx, span: span, prompt: prompt.String()}
}

// mapWorker drains the jobs channel until it closes, one model call per job.
func (a *AnswerMapper) mapWorker(jobs <-chan *mapJob, results chan<- *mapResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for j := range jobs {
		if j.err != nil {
			j.span.SetStatus(codes.Error, "prompt template failed")
			j.span.End()
			results <- &mapResult{sequence: j.sequence, err: j.err}
			continue
		}

		a.callCounter.Add(j.ctx, 1)
		out, err := a.generator.GenerateText(j.ctx, j.prompt)
		if err != nil {
			j.span.SetStatus(codes.Error, "map call failed")
			j.span.End()
			results <- &mapResult{sequence: j.sequence, err: fmt.Errorf("chunk %d mapping failed: %w", j.sequence, err)}
			continue
		}

		j.span.SetStatus(codes.Ok, "chunk mapped")
		j.span.End()
		results <- &mapResult{sequence: j.sequence, value: out}
	}
}
