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

// Package testutil provides shared fixtures for tests: a fully populated
// in-memory configuration and a scripted fake text generator, so pipeline
// tests never touch TOML files or a live model backend.
package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/tubenote/tubenote/internal/cloud"
)

// Logger returns a slog.Logger bridged onto the OpenTelemetry logging
// provider, the same shape of logger the server runs with. Without a
// registered provider the records are discarded, which is what tests want
// by default.
func Logger(name string) *slog.Logger {
	return otelslog.NewLogger(name)
}

// NewTestConfig returns a configuration equivalent to the checked-in TOML
// files, built in memory. Chunking is kept small so tests can exercise
// multi-chunk behavior with short fixture text.
func NewTestConfig() *cloud.Config {
	cfg := cloud.NewConfig()
	cfg.Application.Name = "tubenote-test"
	cfg.Application.Port = 8080
	cfg.Database.Path = ":memory:"
	cfg.YouTube.MaxDurationSeconds = 3600
	cfg.YouTube.TimeoutSeconds = 5
	cfg.Pipelines.ChunkSize = 50
	cfg.Pipelines.ChunkOverlap = 10
	cfg.Pipelines.AnswerStrategy = "refine"
	cfg.Pipelines.MapWorkers = 2
	cfg.Notes.RejectDuplicates = true
	cfg.AgentModels["default"] = &cloud.GenAILLMModel{
		Model:       "gemini-2.0-flash",
		Temperature: 0.2,
		TopP:        0.95,
		MaxTokens:   8192,
		RateLimit:   10,
	}
	cfg.PromptTemplates = cloud.PromptTemplates{
		Summarize: "Summarize the following text:\n\n{{.Content}}",
		Combine:   "Combine the following summaries into one:\n\n{{.Content}}",
		Refine: "Answer the query based on the following context:\n\n{{.Context}}\n\n" +
			"Also consider the previous incomplete answer: {{.Answer}}\n\nQuery: {{.Query}}",
		MapQuestion:   "Extract everything relevant to the query from the context.\n\nContext: {{.Context}}\n\nQuery: {{.Query}}",
		ReduceAnswers: "Synthesize a final answer to the query from the candidates.\n\nCandidates:\n{{.Candidates}}\n\nQuery: {{.Query}}",
	}
	return cfg
}

// FakeGenerator is a cloud.TextGenerator that records every prompt it
// receives and answers from a script. Safe for concurrent use so it can sit
// behind the concurrent map step.
type FakeGenerator struct {
	mu sync.Mutex

	// Prompts holds every prompt received, in call order.
	Prompts []string

	// Responses are returned in order; when exhausted, Respond (or a
	// default echo) takes over.
	Responses []string

	// Respond, when set, computes the response for a prompt.
	Respond func(prompt string) (string, error)

	// Err, when set, fails every call.
	Err error

	calls int
}

// GenerateText implements cloud.TextGenerator.
func (f *FakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Prompts = append(f.Prompts, prompt)
	f.calls++

	if f.Err != nil {
		return "", f.Err
	}
	if n := f.calls - 1; n < len(f.Responses) {
		return f.Responses[n], nil
	}
	if f.Respond != nil {
		return f.Respond(prompt)
	}
	return fmt.Sprintf("response %d", f.calls), nil
}

// CallCount returns how many times the generator was invoked.
func (f *FakeGenerator) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
