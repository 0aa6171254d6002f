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

// This file holds the setup and initialization logic for the server's
// shared state: configuration, external clients, domain services and the
// two transcript pipelines.
package main

import (
	"context"
	"log"
	"os"

	"github.com/tubenote/tubenote/internal/cloud"
	"github.com/tubenote/tubenote/internal/core/services"
	"github.com/tubenote/tubenote/internal/core/workflow"
	"github.com/tubenote/tubenote/internal/youtube"
)

// StateManager is the centralized container for everything the request
// handlers share. It avoids scattered globals and makes the dependency
// graph explicit in one place.
type StateManager struct {
	config          *cloud.Config
	cloud           *cloud.ServiceClients
	youtubeClient   *youtube.Client
	videoService    *services.VideoService
	noteService     *services.NoteService
	summaryWorkflow *workflow.SummaryWorkflow
	answerWorkflow  *workflow.AnswerWorkflow
}

// state is the single instance of StateManager for this process.
var state = &StateManager{}

// SetupOS points the configuration loader at the checked-in TOML files and
// selects the "local" runtime overlay.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

// GetConfig loads the application configuration once and caches it on the
// state manager.
func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to set up environment: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState wires the application together: external clients first, then
// the database schema, then the domain services and pipelines that depend
// on them.
func InitState(ctx context.Context) {
	config := GetConfig()

	clients, err := cloud.NewServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.cloud = clients

	if err := services.InitSchema(ctx, clients.DB); err != nil {
		panic(err)
	}

	state.youtubeClient = youtube.NewClient(&config.YouTube)
	state.videoService = &services.VideoService{DB: clients.DB}
	state.noteService = &services.NoteService{
		DB:               clients.DB,
		RejectDuplicates: config.Notes.RejectDuplicates,
	}

	generator := clients.AgentModels["default"]
	if generator == nil {
		panic("no \"default\" agent model configured")
	}

	state.summaryWorkflow, err = workflow.NewSummaryWorkflow(config, generator)
	if err != nil {
		panic(err)
	}
	state.answerWorkflow, err = workflow.NewAnswerWorkflow(config, generator)
	if err != nil {
		panic(err)
	}
}
