// Copyright 2025 VidSense Authors
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

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/nishitbohra/vidsense/internal/config"
	"github.com/nishitbohra/vidsense/internal/core/services"
	"github.com/nishitbohra/vidsense/internal/pybridge"
	"github.com/nishitbohra/vidsense/internal/store"
)

// StateManager holds the shared components for the application.
type StateManager struct {
	config          *config.Config
	store           store.Store
	runner          *pybridge.ScriptRunner
	analysisService *services.AnalysisService
	searchService   *services.SearchService
}

var state = &StateManager{}

// SetupOS points the config loader at the local configs directory unless the
// environment already says otherwise.
func SetupOS() (err error) {
	if os.Getenv(config.EnvConfigFilePrefix) == "" {
		if err = os.Setenv(config.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if os.Getenv(config.EnvConfigRuntime) == "" {
		err = os.Setenv(config.EnvConfigRuntime, "local")
	}
	return err
}

// GetConfig loads the application configuration once: a local .env for
// machine-specific variables, then the layered TOML files.
func GetConfig() *config.Config {
	if state.config == nil {
		if err := godotenv.Load(); err != nil {
			slog.Debug("no .env file found, relying on environment", "error", err)
		}
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to set up config environment: %v\n", err)
		}
		cfg := config.NewConfig()
		config.LoadConfig(cfg)
		state.config = cfg
	}
	return state.config
}

// InitState connects the store, verifies the Python environment, and builds
// the services. Failures here are fatal: the server cannot do anything
// useful without its store or its scripts.
func InitState(ctx context.Context) {
	cfg := GetConfig()

	connectCtx, cancel := context.WithTimeout(ctx,
		time.Duration(cfg.Mongo.ConnectTimeoutInSeconds)*time.Second)
	defer cancel()

	st, err := store.NewMongoStore(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v\n", err)
	}
	if err := st.EnsureIndexes(ctx); err != nil {
		log.Fatalf("failed to create indexes: %v\n", err)
	}
	state.store = st

	runner := pybridge.NewScriptRunner(
		cfg.Python.Interpreter,
		cfg.Python.ScriptsDir,
		cfg.Python.SpawnRatePerSecond,
		cfg.Python.SpawnBurst,
	)
	if err := runner.CheckEnvironment(ctx); err != nil {
		log.Fatalf("python environment check failed: %v\n", err)
	}
	state.runner = runner

	state.analysisService = services.NewAnalysisService(runner, st, &cfg.Timeouts)
	state.searchService = services.NewSearchService(runner, st, cfg.Timeouts.Search())
}
