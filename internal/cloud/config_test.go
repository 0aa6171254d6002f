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

package cloud

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseConfigTOML = `
[application]
name = "tubenote"
port = 8080

[database]
path = "tubenote.db"

[pipelines]
chunk_size = 3000
chunk_overlap = 100
answer_strategy = "refine"
map_workers = 4

[notes]
reject_duplicates = true

[agent_models.default]
model = "gemini-2.0-flash"
temperature = 0.0
max_tokens = 8192
rate_limit = 2
`

const overrideConfigTOML = `
[database]
path = ":memory:"

[pipelines]
chunk_size = 1000
`

func TestLoadConfigAppliesEnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.toml"), []byte(baseConfigTOML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.test.toml"), []byte(overrideConfigTOML), 0o644))

	t.Setenv(EnvConfigFilePrefix, dir)
	t.Setenv(EnvConfigRuntime, "test")

	config := NewConfig()
	LoadConfig(config)

	// Base values survive where the overlay is silent.
	assert.Equal(t, "tubenote", config.Application.Name)
	assert.Equal(t, 8080, config.Application.Port)
	assert.Equal(t, 100, config.Pipelines.ChunkOverlap)
	assert.Equal(t, "refine", config.Pipelines.AnswerStrategy)
	assert.True(t, config.Notes.RejectDuplicates)

	// Overlay values win where both define a key.
	assert.Equal(t, ":memory:", config.Database.Path)
	assert.Equal(t, 1000, config.Pipelines.ChunkSize)

	require.Contains(t, config.AgentModels, "default")
	assert.Equal(t, "gemini-2.0-flash", config.AgentModels["default"].Model)
	assert.Equal(t, 2, config.AgentModels["default"].RateLimit)
}

func TestLoadConfigMissingFilesLeavesDefaults(t *testing.T) {
	t.Setenv(EnvConfigFilePrefix, t.TempDir())
	t.Setenv(EnvConfigRuntime, "test")

	config := NewConfig()
	LoadConfig(config)

	assert.Empty(t, config.Application.Name)
	assert.Empty(t, config.AgentModels)
}
