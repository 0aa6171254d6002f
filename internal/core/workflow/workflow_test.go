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

package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubenote/tubenote/internal/core/commands"
	"github.com/tubenote/tubenote/internal/core/model"
	"github.com/tubenote/tubenote/internal/core/transcript"
	"github.com/tubenote/tubenote/internal/core/workflow"
	"github.com/tubenote/tubenote/internal/testutil"
)

// segmentsFromWords builds one caption segment per word, which normalizes
// back to the words joined by single spaces.
func segmentsFromWords(words []string) []model.TranscriptSegment {
	segments := make([]model.TranscriptSegment, 0, len(words))
	for i, w := range words {
		segments = append(segments, model.TranscriptSegment{
			Text:     w,
			Offset:   int64(i * 1000),
			Duration: 1000,
		})
	}
	return segments
}

// numberedWords produces n distinct words so chunk contents never collide.
func numberedWords(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("word%02d", i)
	}
	return words
}

// chunksFor mirrors the pipeline's own chunking so call-count expectations
// stay correct if the fixture text changes.
var logger = testutil.Logger("workflow-test")

func chunksFor(t *testing.T, text string, size, overlap int) []string {
	t.Helper()
	splitter, err := transcript.NewSplitter(size, overlap)
	require.NoError(t, err)
	chunks := splitter.Split(text)
	logger.Debug("chunked fixture text", "runes", len([]rune(text)), "chunks", len(chunks))
	return chunks
}

func TestSummarizeSingleChunkMakesOneModelCall(t *testing.T) {
	cfg := testutil.NewTestConfig()
	gen := &testutil.FakeGenerator{Responses: []string{"a short greeting video"}}

	w, err := workflow.NewSummaryWorkflow(cfg, gen)
	require.NoError(t, err)

	summary, err := w.Summarize(context.Background(), segmentsFromWords([]string{"Hello", "world"}))
	require.NoError(t, err)
	assert.Equal(t, "a short greeting video", summary)

	// One summarize call; the lone partial is returned without a combine
	// call.
	assert.Equal(t, 1, gen.CallCount())
	assert.Contains(t, gen.Prompts[0], "Hello world")
}

func TestSummarizeMultiChunkCombinesPartials(t *testing.T) {
	cfg := testutil.NewTestConfig()
	words := numberedWords(30)
	text := strings.Join(words, " ")
	chunks := chunksFor(t, text, cfg.Pipelines.ChunkSize, cfg.Pipelines.ChunkOverlap)
	require.Greater(t, len(chunks), 1, "fixture must span several chunks")

	gen := &testutil.FakeGenerator{
		Respond: func(prompt string) (string, error) {
			if strings.HasPrefix(prompt, "Combine") {
				return "combined summary", nil
			}
			return "partial", nil
		},
	}

	w, err := workflow.NewSummaryWorkflow(cfg, gen)
	require.NoError(t, err)

	summary, err := w.Summarize(context.Background(), segmentsFromWords(words))
	require.NoError(t, err)
	assert.Equal(t, "combined summary", summary)

	// One call per chunk plus a single combine round.
	assert.Equal(t, len(chunks)+1, gen.CallCount())
	for i, chunk := range chunks {
		assert.Contains(t, gen.Prompts[i], chunk)
	}
	assert.Contains(t, gen.Prompts[len(chunks)], "partial")
}

func TestSummarizeEmptyTranscriptFailsBeforeModelCall(t *testing.T) {
	cfg := testutil.NewTestConfig()
	gen := &testutil.FakeGenerator{}

	w, err := workflow.NewSummaryWorkflow(cfg, gen)
	require.NoError(t, err)

	_, err = w.Summarize(context.Background(), nil)
	assert.ErrorIs(t, err, workflow.ErrEmptyTranscript)

	_, err = w.Summarize(context.Background(), segmentsFromWords([]string{"", "  "}))
	assert.ErrorIs(t, err, workflow.ErrEmptyTranscript)

	assert.Zero(t, gen.CallCount())
}

func TestSummarizeModelFailureSurfaces(t *testing.T) {
	cfg := testutil.NewTestConfig()
	boom := errors.New("backend unavailable")
	gen := &testutil.FakeGenerator{Err: boom}

	w, err := workflow.NewSummaryWorkflow(cfg, gen)
	require.NoError(t, err)

	_, err = w.Summarize(context.Background(), segmentsFromWords([]string{"Hello", "world"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestAnswerRefineThreadsRunningAnswer(t *testing.T) {
	cfg := testutil.NewTestConfig()
	words := numberedWords(30)
	text := strings.Join(words, " ")
	chunks := chunksFor(t, text, cfg.Pipelines.ChunkSize, cfg.Pipelines.ChunkOverlap)
	require.Greater(t, len(chunks), 1, "fixture must span several chunks")

	responses := make([]string, len(chunks))
	for i := range responses {
		responses[i] = fmt.Sprintf("answer after chunk %d", i)
	}
	gen := &testutil.FakeGenerator{Responses: responses}

	w, err := workflow.NewAnswerWorkflow(cfg, gen)
	require.NoError(t, err)

	answer, err := w.Answer(context.Background(), segmentsFromWords(words), "what is discussed?")
	require.NoError(t, err)
	assert.Equal(t, responses[len(responses)-1], answer)
	assert.Equal(t, len(chunks), gen.CallCount())

	// The fold is strictly chronological: call i sees chunk i and the
	// answer produced by call i-1.
	for i, chunk := range chunks {
		assert.Contains(t, gen.Prompts[i], chunk)
		assert.Contains(t, gen.Prompts[i], "what is discussed?")
		if i > 0 {
			assert.Contains(t, gen.Prompts[i], responses[i-1])
		}
	}
}

func TestAnswerValidationFailsBeforeModelCall(t *testing.T) {
	cfg := testutil.NewTestConfig()
	gen := &testutil.FakeGenerator{}

	w, err := workflow.NewAnswerWorkflow(cfg, gen)
	require.NoError(t, err)

	_, err = w.Answer(context.Background(), segmentsFromWords([]string{"Hello"}), "   ")
	assert.ErrorIs(t, err, workflow.ErrEmptyQuestion)

	_, err = w.Answer(context.Background(), nil, "a question")
	assert.ErrorIs(t, err, workflow.ErrEmptyTranscript)

	assert.Zero(t, gen.CallCount())
}

func TestAnswerMapReduceOrdersCandidatesChronologically(t *testing.T) {
	cfg := testutil.NewTestConfig()
	cfg.Pipelines.AnswerStrategy = workflow.StrategyMapReduce
	cfg.Pipelines.MapWorkers = 3

	words := numberedWords(40)
	text := strings.Join(words, " ")
	chunks := chunksFor(t, text, cfg.Pipelines.ChunkSize, cfg.Pipelines.ChunkOverlap)
	require.Greater(t, len(chunks), 2, "fixture must span several chunks")

	gen := &testutil.FakeGenerator{
		Respond: func(prompt string) (string, error) {
			if strings.HasPrefix(prompt, "Synthesize") {
				return "final synthesized answer", nil
			}
			for i, chunk := range chunks {
				if strings.Contains(prompt, chunk) {
					return fmt.Sprintf("candidate-%d", i), nil
				}
			}
			return "", fmt.Errorf("prompt matched no chunk: %q", prompt)
		},
	}

	w, err := workflow.NewAnswerWorkflow(cfg, gen)
	require.NoError(t, err)

	answer, err := w.Answer(context.Background(), segmentsFromWords(words), "what is discussed?")
	require.NoError(t, err)
	assert.Equal(t, "final synthesized answer", answer)
	assert.Equal(t, len(chunks)+1, gen.CallCount())

	// However the workers interleave, the reduce prompt must list the
	// candidates in chunk order.
	expected := make([]string, len(chunks))
	for i := range chunks {
		expected[i] = fmt.Sprintf("candidate-%d", i)
	}
	reducePrompt := gen.Prompts[len(gen.Prompts)-1]
	assert.Contains(t, reducePrompt, strings.Join(expected, "\n\n"))
}

func TestAnswerMapReduceNothingRelevantIsNotAFailure(t *testing.T) {
	cfg := testutil.NewTestConfig()
	cfg.Pipelines.AnswerStrategy = workflow.StrategyMapReduce

	words := numberedWords(30)
	chunks := chunksFor(t, strings.Join(words, " "), cfg.Pipelines.ChunkSize, cfg.Pipelines.ChunkOverlap)
	require.Greater(t, len(chunks), 1, "fixture must span several chunks")

	// Every chunk maps to an empty candidate: the transcript just does not
	// cover the question.
	gen := &testutil.FakeGenerator{Respond: func(string) (string, error) { return "", nil }}

	w, err := workflow.NewAnswerWorkflow(cfg, gen)
	require.NoError(t, err)

	answer, err := w.Answer(context.Background(), segmentsFromWords(words), "who won the 1986 world cup?")
	require.NoError(t, err)
	assert.Equal(t, commands.NoAnswerFound, answer)

	// One map call per chunk and no reduce call.
	assert.Equal(t, len(chunks), gen.CallCount())
}

func TestAnswerMapReduceSingleChunkSkipsReduce(t *testing.T) {
	cfg := testutil.NewTestConfig()
	cfg.Pipelines.AnswerStrategy = workflow.StrategyMapReduce

	gen := &testutil.FakeGenerator{Responses: []string{"the only candidate"}}

	w, err := workflow.NewAnswerWorkflow(cfg, gen)
	require.NoError(t, err)

	answer, err := w.Answer(context.Background(), segmentsFromWords([]string{"Hello", "world"}), "what is said?")
	require.NoError(t, err)
	assert.Equal(t, "the only candidate", answer)
	assert.Equal(t, 1, gen.CallCount())
}

func TestAnswerUnknownStrategyRejected(t *testing.T) {
	cfg := testutil.NewTestConfig()
	cfg.Pipelines.AnswerStrategy = "telepathy"

	_, err := workflow.NewAnswerWorkflow(cfg, &testutil.FakeGenerator{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telepathy")
}
