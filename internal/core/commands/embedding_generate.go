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

package commands

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nishitbohra/vidsense/internal/core/cor"
	"github.com/nishitbohra/vidsense/internal/core/model"
	"github.com/nishitbohra/vidsense/internal/pybridge"
)

// embeddingRequest is the payload handed to the embedding generator's
// "store" action.
type embeddingRequest struct {
	VideoID            string                    `json:"video_id"`
	Title              string                    `json:"title"`
	TranscriptText     string                    `json:"transcript_text"`
	TranscriptSegments []model.TranscriptSegment `json:"transcript_segments"`
	Summary            string                    `json:"summary"`
}

type embeddingResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Stored  int    `json:"stored"`
}

// EmbeddingGenerate stores vector embeddings for a video's transcript and
// summary. Embedding storage is best-effort: a failure here is logged and
// counted but never fails the chain, since the analysis results are complete
// and useful without semantic search coverage for this one video.
type EmbeddingGenerate struct {
	cor.BaseCommand
	runner          pybridge.Runner
	timeout         time.Duration
	transcriptParam string
	summaryParam    string
}

// NewEmbeddingGenerate reads the video identifier from the command's input
// parameter, and the transcript and summary payloads from the two named
// context parameters.
func NewEmbeddingGenerate(name string, runner pybridge.Runner, timeout time.Duration, transcriptParam, summaryParam string) *EmbeddingGenerate {
	return &EmbeddingGenerate{
		BaseCommand:     *cor.NewBaseCommand(name),
		runner:          runner,
		timeout:         timeout,
		transcriptParam: transcriptParam,
		summaryParam:    summaryParam,
	}
}

func (c *EmbeddingGenerate) Execute(context cor.Context) {
	videoID := context.Get(c.GetInputParam()).(string)
	transcript := context.Get(c.transcriptParam).(*TranscriptPayload)
	summary := context.Get(c.summaryParam).(*SummaryPayload)

	// The short summary is what gets embedded alongside the transcript; it
	// is also the text the search script embeds queries against.
	req := embeddingRequest{
		VideoID:            videoID,
		Title:              transcript.Title,
		TranscriptText:     transcript.Text(),
		TranscriptSegments: transcript.Segments,
		Summary:            summary.Short,
	}

	res := c.runner.Run(context.GetContext(), pybridge.ScriptEmbeddings,
		[]string{"store"}, req, c.timeout)
	if !res.OK() {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		slog.Warn("embedding storage failed, continuing without semantic search coverage",
			"video_id", videoID,
			"detail", res.FailureDetail())
		return
	}

	var out embeddingResponse
	if err := json.Unmarshal(res.Data, &out); err != nil || !out.Success {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		slog.Warn("embedding storage reported failure, continuing",
			"video_id", videoID,
			"error", out.Error)
		return
	}

	slog.Debug("embeddings stored", "video_id", videoID, "count", out.Stored)
	c.GetSuccessCounter().Add(context.GetContext(), 1)
}
