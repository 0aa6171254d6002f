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

// This file initializes and holds all the client objects the application
// talks to the outside world through. NewServiceClients is called once at
// startup; the resulting struct is passed explicitly into services and
// workflows, so there is no hidden global client state.
package cloud

import (
	"context"
	"database/sql"
	"fmt"

	"google.golang.org/genai"
	_ "modernc.org/sqlite"
)

// ServiceClients is the dependency container for external connections: the
// generative model client, the named rate-limited model wrappers built from
// configuration, and the sqlite database handle.
type ServiceClients struct {
	GenAIClient *genai.Client
	AgentModels map[string]*QuotaAwareGenerativeAIModel
	DB          *sql.DB
}

// Close releases the database handle. The genai client holds no persistent
// connection that needs explicit shutdown.
func (c *ServiceClients) Close() {
	if c.DB != nil {
		_ = c.DB.Close()
	}
}

// NewServiceClients builds every external client from configuration: the
// generative model client (API key taken from the GEMINI_API_KEY
// environment variable by the genai SDK), one quota-aware wrapper per
// configured agent model, and the sqlite database.
func NewServiceClients(ctx context.Context, config *Config) (*ServiceClients, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	agentModels := make(map[string]*QuotaAwareGenerativeAIModel)
	for name, modelConfig := range config.AgentModels {
		generateConfig := &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(modelConfig.Temperature),
			TopP:            genai.Ptr(modelConfig.TopP),
			TopK:            genai.Ptr(modelConfig.TopK),
			MaxOutputTokens: modelConfig.MaxTokens,
			SafetySettings:  DefaultSafetySettings,
		}
		if modelConfig.SystemInstructions != "" {
			generateConfig.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: modelConfig.SystemInstructions}},
			}
		}
		agentModels[name] = NewQuotaAwareModel(
			generateConfig,
			modelConfig.Model,
			genaiClient.Models,
			modelConfig.RateLimit,
		)
	}

	db, err := sql.Open("sqlite", config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", config.Database.Path, err)
	}
	// modernc sqlite serializes access through a single writer; a second
	// writing connection would only produce SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	return &ServiceClients{
		GenAIClient: genaiClient,
		AgentModels: agentModels,
		DB:          db,
	}, nil
}
