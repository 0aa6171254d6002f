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

// This file wraps the generative model client with rate limiting and bounded
// retries. The model backend enforces per-minute quotas; without the wrapper
// a transcript with many chunks would burn through the quota and fail the
// whole pipeline on a 429.
package cloud

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// TextGenerator is the capability the pipeline commands depend on: one
// prompt in, one completion out. The production implementation is
// QuotaAwareGenerativeAIModel; tests substitute fakes.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// QuotaAwareGenerativeAIModel decorates a genai model handle with a token
// bucket limiter and retry-on-failure. All pipeline model calls go through
// it.
type QuotaAwareGenerativeAIModel struct {
	GenerateConfig *genai.GenerateContentConfig
	ModelName      string
	ModelHandle    *genai.Models
	RateLimit      *rate.Limiter
}

// NewQuotaAwareModel wraps the given model handle, allowing a burst of
// requestsPerSecond calls replenished once per second.
func NewQuotaAwareModel(
	generateConfig *genai.GenerateContentConfig,
	name string,
	modelHandle *genai.Models,
	requestsPerSecond int,
) *QuotaAwareGenerativeAIModel {
	return &QuotaAwareGenerativeAIModel{
		GenerateConfig: generateConfig,
		ModelName:      name,
		ModelHandle:    modelHandle,
		RateLimit:      rate.NewLimiter(rate.Every(time.Second), requestsPerSecond),
	}
}

// GenerateContent blocks for a rate-limiter token, calls the model, and
// retries failed calls up to MaxRetries with a linear backoff. Context
// cancellation aborts both the limiter wait and the backoff.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if err := q.RateLimit.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := q.ModelHandle.GenerateContent(ctx, q.ModelName, contents, q.GenerateConfig)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * time.Second):
		}
	}
	return nil, fmt.Errorf("generation failed after %d attempts: %w", MaxRetries+1, lastErr)
}

// GenerateText sends a single text prompt and returns the concatenated text
// of the response candidates, with any markdown code fence the model wrapped
// around the payload stripped.
func (q *QuotaAwareGenerativeAIModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := q.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			b.WriteString(part.Text)
		}
	}
	out := strings.TrimSpace(b.String())
	out = strings.TrimPrefix(out, "```json")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")
	return strings.TrimSpace(out), nil
}
