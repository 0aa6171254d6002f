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

// Package workflow assembles the pipeline commands into the two chains the
// server runs: transcript summarization and transcript question answering.
// A workflow validates its inputs up front, so a request that can never
// succeed is rejected before the first model call.
package workflow

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tubenote/tubenote/internal/core/cor"
)

// Input validation errors, surfaced to the API layer before any pipeline
// work happens.
var (
	ErrEmptyTranscript = errors.New("transcript contains no text")
	ErrEmptyQuestion   = errors.New("question is empty")
)

// Answer strategy names as they appear in configuration.
const (
	StrategyRefine    = "refine"
	StrategyMapReduce = "map_reduce"
)

// chainError flattens the errors a chain run collected into one error value.
// Keys are sorted so the message is deterministic.
func chainError(c cor.Context) error {
	collected := c.GetErrors()
	names := make([]string, 0, len(collected))
	for name := range collected {
		names = append(names, name)
	}
	sort.Strings(names)

	errs := make([]error, 0, len(names))
	for _, name := range names {
		errs = append(errs, fmt.Errorf("%s: %w", name, collected[name]))
	}
	return errors.Join(errs...)
}

// chainOutput extracts the final string a chain produced.
func chainOutput(c cor.Context) (string, error) {
	out, ok := c.Get(cor.CtxOut).(string)
	if !ok {
		return "", errors.New("workflow produced no output")
	}
	return out, nil
}
