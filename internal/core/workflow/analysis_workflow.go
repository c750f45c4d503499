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

// Package workflow assembles the analysis pipeline: one chain running
// transcript extraction, summarization, sentiment analysis, embedding
// storage, and persistence, in that order, over a shared context.
package workflow

import (
	"github.com/nishitbohra/vidsense/internal/config"
	"github.com/nishitbohra/vidsense/internal/core/commands"
	"github.com/nishitbohra/vidsense/internal/core/cor"
	"github.com/nishitbohra/vidsense/internal/pybridge"
	"github.com/nishitbohra/vidsense/internal/store"
)

// Context parameter names shared between the chain's commands and the
// service that seeds and reads the context.
const (
	ParamVideoID    = "analysis.video_id"
	ParamSourceURL  = "analysis.source_url"
	ParamTranscript = "analysis.transcript"
	ParamSummary    = "analysis.summary"
	ParamSentiments = "analysis.sentiments"
	ParamResult     = "analysis.result"
)

// NewAnalysisChain wires the five stage commands into a chain. The caller
// seeds ParamVideoID and ParamSourceURL on the context; on success the
// assembled result lands under ParamResult. A transcript, summary, sentiment,
// or persistence failure stops the chain; the embedding stage absorbs its own
// failures so it can never stop the run.
func NewAnalysisChain(runner pybridge.Runner, st store.Store, timeouts *config.StageTimeouts) cor.Chain {
	transcript := commands.NewTranscriptExtract("transcript_extract", runner, timeouts.Transcript())
	transcript.InputParamName = ParamVideoID
	transcript.OutputParamName = ParamTranscript

	summary := commands.NewSummaryCreate("summary_create", runner, timeouts.Summary())
	summary.InputParamName = ParamTranscript
	summary.OutputParamName = ParamSummary

	sentiment := commands.NewSentimentAnalyze("sentiment_analyze", runner, timeouts.Sentiment())
	sentiment.InputParamName = ParamTranscript
	sentiment.OutputParamName = ParamSentiments

	embedding := commands.NewEmbeddingGenerate("embedding_generate", runner, timeouts.Embeddings(),
		ParamTranscript, ParamSummary)
	embedding.InputParamName = ParamVideoID

	persist := commands.NewAnalysisPersist("analysis_persist", st,
		ParamSourceURL, ParamTranscript, ParamSummary, ParamSentiments)
	persist.InputParamName = ParamVideoID
	persist.OutputParamName = ParamResult

	return cor.NewBaseChain("video_analysis").
		AddCommand(transcript).
		AddCommand(summary).
		AddCommand(sentiment).
		AddCommand(embedding).
		AddCommand(persist)
}
