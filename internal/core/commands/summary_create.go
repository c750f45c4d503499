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
	verr "github.com/nishitbohra/vidsense/internal/errors"
	"github.com/nishitbohra/vidsense/internal/pybridge"
)

// SummaryPayload is the summary stage's output.
type SummaryPayload struct {
	Short    string
	Detailed string
	Topics   []string
}

// summaryRequest is the payload file handed to the summarizer script.
type summaryRequest struct {
	TranscriptText string `json:"transcript_text"`
}

// summaryResponse is the summarizer script's stdout schema.
type summaryResponse struct {
	Success         bool     `json:"success"`
	Error           string   `json:"error"`
	SummaryShort    string   `json:"summary_short"`
	SummaryDetailed string   `json:"summary_detailed"`
	Topics          []string `json:"topics"`
}

// SummaryCreate feeds the concatenated transcript text to the summarizer.
// The transcript can exceed command-line limits by orders of magnitude, so
// it always travels by payload file.
type SummaryCreate struct {
	cor.BaseCommand
	runner  pybridge.Runner
	timeout time.Duration
}

func NewSummaryCreate(name string, runner pybridge.Runner, timeout time.Duration) *SummaryCreate {
	return &SummaryCreate{BaseCommand: *cor.NewBaseCommand(name), runner: runner, timeout: timeout}
}

func (c *SummaryCreate) Execute(context cor.Context) {
	transcript := context.Get(c.GetInputParam()).(*TranscriptPayload)

	res := c.runner.Run(context.GetContext(), pybridge.ScriptSummarizer, nil,
		summaryRequest{TranscriptText: transcript.Text()}, c.timeout)
	if !res.OK() {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), verr.NewStageFailure(verr.StageSummary,
			"could not generate summary", res.FailureDetail(), nil))
		return
	}

	var out summaryResponse
	if err := json.Unmarshal(res.Data, &out); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), verr.NewStageFailure(verr.StageSummary,
			"summarizer returned malformed output", err.Error(), err))
		return
	}
	if !out.Success {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), verr.NewStageFailure(verr.StageSummary,
			"could not generate summary", out.Error, nil))
		return
	}
	if out.SummaryShort == "" || out.SummaryDetailed == "" {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), verr.NewStageFailure(verr.StageSummary,
			"summarizer returned an empty summary", "", nil))
		return
	}

	topics := out.Topics
	if len(topics) > model.MaxTopics {
		slog.Warn("summarizer exceeded topic bound, truncating",
			"count", len(topics), "max", model.MaxTopics)
		topics = model.BoundTopics(topics)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), &SummaryPayload{
		Short:    out.SummaryShort,
		Detailed: out.SummaryDetailed,
		Topics:   topics,
	})
}
