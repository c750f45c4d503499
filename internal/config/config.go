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

// Package config defines the data structures for application configuration,
// loaded from TOML files. It covers the HTTP server, the MongoDB store, the
// Python analysis scripts, and the per-stage subprocess timeouts.
//
// Configuration is layered: a base file (".env.toml") is loaded first and an
// environment-specific file (".env.<runtime>.toml") may override individual
// values. The directory and runtime name are selected through environment
// variables so that tests, local runs, and deployments can each carry their
// own settings without code changes.
package config

import "time"

// Mongo holds the connection settings for the document store.
type Mongo struct {
	URI                     string `toml:"uri"`                        // The MongoDB connection string.
	Database                string `toml:"database"`                   // The database holding the videos, summaries, and sentiments collections.
	ConnectTimeoutInSeconds int    `toml:"connect_timeout_in_seconds"` // How long to wait for the initial connection before giving up.
}

// Python holds the settings for spawning the external analysis scripts.
type Python struct {
	Interpreter        string `toml:"interpreter"`           // The Python executable, e.g. "python3".
	ScriptsDir         string `toml:"scripts_dir"`           // The directory containing the analysis scripts.
	SpawnRatePerSecond int    `toml:"spawn_rate_per_second"` // Maximum script launches per second across all requests.
	SpawnBurst         int    `toml:"spawn_burst"`           // Burst allowance for the spawn rate limiter.
}

// StageTimeouts holds the per-stage subprocess deadlines, in seconds.
// Summarization and sentiment analysis load large models and are given
// substantially more time than transcript extraction.
type StageTimeouts struct {
	TranscriptInSeconds int `toml:"transcript_in_seconds"`
	SummaryInSeconds    int `toml:"summary_in_seconds"`
	SentimentInSeconds  int `toml:"sentiment_in_seconds"`
	EmbeddingsInSeconds int `toml:"embeddings_in_seconds"`
	SearchInSeconds     int `toml:"search_in_seconds"`
}

// Config is the top-level configuration for the application.
type Config struct {
	Application struct {
		Name       string `toml:"name"`        // The service name, used for telemetry resource attribution.
		ListenAddr string `toml:"listen_addr"` // The address the HTTP server binds to, e.g. ":8080".
	} `toml:"application"`
	Mongo    Mongo         `toml:"mongo"`
	Python   Python        `toml:"python"`
	Timeouts StageTimeouts `toml:"timeouts"`
}

// NewConfig creates a Config pre-populated with the stage timeout and
// subprocess defaults. Values present in the TOML files override these.
func NewConfig() *Config {
	c := &Config{}
	c.Application.Name = "vidsense"
	c.Application.ListenAddr = ":8080"
	c.Mongo.URI = "mongodb://localhost:27017"
	c.Mongo.Database = "vidsense"
	c.Mongo.ConnectTimeoutInSeconds = 30
	c.Python.Interpreter = "python"
	c.Python.ScriptsDir = "python"
	c.Python.SpawnRatePerSecond = 4
	c.Python.SpawnBurst = 8
	c.Timeouts = StageTimeouts{
		TranscriptInSeconds: 60,
		SummaryInSeconds:    180,
		SentimentInSeconds:  300,
		EmbeddingsInSeconds: 180,
		SearchInSeconds:     120,
	}
	return c
}

// Transcript returns the transcript extraction deadline as a duration.
func (t StageTimeouts) Transcript() time.Duration {
	return time.Duration(t.TranscriptInSeconds) * time.Second
}

// Summary returns the summarization deadline as a duration.
func (t StageTimeouts) Summary() time.Duration {
	return time.Duration(t.SummaryInSeconds) * time.Second
}

// Sentiment returns the sentiment analysis deadline as a duration.
func (t StageTimeouts) Sentiment() time.Duration {
	return time.Duration(t.SentimentInSeconds) * time.Second
}

// Embeddings returns the embedding generation deadline as a duration.
func (t StageTimeouts) Embeddings() time.Duration {
	return time.Duration(t.EmbeddingsInSeconds) * time.Second
}

// Search returns the semantic search deadline as a duration.
func (t StageTimeouts) Search() time.Duration {
	return time.Duration(t.SearchInSeconds) * time.Second
}
