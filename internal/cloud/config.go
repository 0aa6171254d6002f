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

// Package cloud holds the application configuration and the clients for the
// external services the server depends on: the generative model backend and
// the local database. Configuration is loaded from TOML files with an
// environment-specific overlay.
package cloud

import "google.golang.org/genai"

// DefaultSafetySettings disables content blocking for all harm categories.
// Transcript text is arbitrary user-chosen video content; blocking a
// category mid-pipeline would surface as an opaque summarization failure.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// ApplicationConfig identifies the server and where it listens.
type ApplicationConfig struct {
	Name string `toml:"name"` // service name, used in telemetry resources
	Port int    `toml:"port"` // HTTP listen port
}

// DatabaseConfig locates the sqlite database file.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// YouTubeConfig bounds the video fetcher.
type YouTubeConfig struct {
	MaxDurationSeconds int `toml:"max_duration_seconds"` // videos longer than this are rejected
	TimeoutSeconds     int `toml:"timeout_seconds"`      // per-request HTTP timeout
}

// PipelineConfig tunes the transcript pipelines. Chunk size and overlap are
// counted in runes of normalized transcript text.
type PipelineConfig struct {
	ChunkSize      int    `toml:"chunk_size"`
	ChunkOverlap   int    `toml:"chunk_overlap"`
	AnswerStrategy string `toml:"answer_strategy"` // "refine" or "map_reduce"
	MapWorkers     int    `toml:"map_workers"`     // worker pool size for the map_reduce map step
}

// NotesConfig selects the duplicate-note policy. When RejectDuplicates is
// set, adding an identical (question, answer) pair for the same user and
// video is refused.
type NotesConfig struct {
	RejectDuplicates bool `toml:"reject_duplicates"`
}

// GenAILLMModel configures one named generative model.
type GenAILLMModel struct {
	Model              string  `toml:"model"`
	SystemInstructions string  `toml:"system_instructions"`
	Temperature        float32 `toml:"temperature"`
	TopP               float32 `toml:"top_p"`
	TopK               float32 `toml:"top_k"`
	MaxTokens          int32   `toml:"max_tokens"`
	RateLimit          int     `toml:"rate_limit"` // requests per second
}

// PromptTemplates holds the Go text/template sources for every model call
// the pipelines make. Keeping them in configuration lets prompts change
// without a rebuild.
type PromptTemplates struct {
	// Summarize produces a partial summary of one chunk. Params: Content.
	Summarize string `toml:"summarize"`
	// Combine merges partial summaries into one. Params: Content.
	Combine string `toml:"combine"`
	// Refine answers a question from one chunk plus the running answer so
	// far. Params: Context, Answer, Query.
	Refine string `toml:"refine"`
	// MapQuestion extracts, from one chunk, whatever is relevant to the
	// question. Params: Context, Query.
	MapQuestion string `toml:"map_question"`
	// ReduceAnswers synthesizes the per-chunk candidates into the final
	// answer. Params: Candidates, Query.
	ReduceAnswers string `toml:"reduce_answers"`
}

// Config aggregates every configurable parameter of the server.
type Config struct {
	Application     ApplicationConfig         `toml:"application"`
	Database        DatabaseConfig            `toml:"database"`
	YouTube         YouTubeConfig             `toml:"youtube"`
	Pipelines       PipelineConfig            `toml:"pipelines"`
	Notes           NotesConfig               `toml:"notes"`
	AgentModels     map[string]*GenAILLMModel `toml:"agent_models"`
	PromptTemplates PromptTemplates           `toml:"prompt_templates"`
}

// NewConfig returns a Config with initialized maps, ready for the TOML
// decoder.
func NewConfig() *Config {
	return &Config{
		AgentModels: make(map[string]*GenAILLMModel),
	}
}
