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

// Package commands provides the concrete Command implementations the
// transcript pipelines are assembled from. Each command embeds
// cor.BaseCommand and reads its input from the chain's piped input slot;
// values needed by more than one command in a chain (the user's question)
// travel under well-known parameter names instead.
package commands

// GetQuestionParameterName returns the context key the user's question is
// stored under. The question is read by several commands in the answer
// chains, so it bypasses the piped input slot.
func GetQuestionParameterName() string {
	return "__QUESTION__"
}
