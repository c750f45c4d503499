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

// Package testutil provides shared helpers for the test suite: test
// configuration loading, fixture payloads matching the analysis scripts'
// output schemas, a scripted stand-in for the Python bridge, and an
// in-memory store.
package testutil

import (
	"log"
	"os"
	"testing"

	"github.com/nishitbohra/vidsense/internal/config"
)

type stateManager struct {
	config *config.Config
}

var state = &stateManager{}

// HandleErr fails the test when err is set.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// SetupOS points the config loader at the test configuration.
func SetupOS() (err error) {
	err = os.Setenv(config.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(config.EnvConfigRuntime, "test")
	return err
}

// GetConfig is a singleton accessor for the test configuration. Packages
// without a configs directory fall back to the built-in defaults, which is
// what the unit tests want anyway.
func GetConfig() *config.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to set up environment for test: %v\n", err)
		}
		cfg := config.NewConfig()
		config.LoadConfig(cfg)
		state.config = cfg
	}
	return state.config
}

// TranscriptResponseText is a successful transcript extractor output with
// three segments of a short mock video.
func TranscriptResponseText() string {
	return `{
  "success": true,
  "title": "Go Concurrency Patterns",
  "transcript": [
    { "text": "Welcome back to the channel.", "start": 0.0, "duration": 2.5 },
    { "text": "Today we are talking about goroutines.", "start": 2.5, "duration": 3.1 },
    { "text": "This part is honestly a bit frustrating.", "start": 5.6, "duration": 2.8 }
  ]
}`
}

// SummaryResponseText is a successful summarizer output.
func SummaryResponseText() string {
	return `{
  "success": true,
  "summary_short": "An introduction to goroutines and common concurrency patterns.",
  "summary_detailed": "The video walks through goroutine basics, channel usage, and closes with a discussion of common pitfalls that frustrate newcomers.",
  "topics": ["go", "concurrency", "goroutines"]
}`
}

// SentimentResponseText is a successful sentiment analyzer output. The middle
// entry carries a deliberately wrong label for its score, which ingestion
// must correct.
func SentimentResponseText() string {
	return `{
  "success": true,
  "sentiments": [
    { "timestamp": 0.0, "sentiment_label": "positive", "sentiment_score": 0.6, "text_segment": "Welcome back to the channel." },
    { "timestamp": 2.5, "sentiment_label": "positive", "sentiment_score": 0.05, "text_segment": "Today we are talking about goroutines." },
    { "timestamp": 5.6, "sentiment_label": "negative", "sentiment_score": -0.4, "text_segment": "This part is honestly a bit frustrating." }
  ]
}`
}

// EmbeddingResponseText is a successful embedding generator output.
func EmbeddingResponseText() string {
	return `{ "success": true, "stored": 4 }`
}

// SearchResponseText is a successful semantic search output with two hits.
func SearchResponseText() string {
	return `{
  "success": true,
  "results": [
    { "video_id": "dQw4w9WgXcQ", "title": "Go Concurrency Patterns", "similarity_score": 0.91, "summary_short": "An introduction to goroutines.", "topics": ["go"] },
    { "video_id": "abcdefghijk", "title": "Channels Deep Dive", "similarity_score": 0.87, "summary_short": "Everything about channels.", "topics": ["go", "channels"] }
  ]
}`
}

// FailureResponseText is a script-level failure body, used for any stage.
func FailureResponseText(message string) string {
	return `{ "success": false, "error": "` + message + `" }`
}
