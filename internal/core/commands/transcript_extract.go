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

// Package commands provides the concrete pipeline stage implementations.
// Each command wraps one Python script invocation through the bridge runner,
// validates the script's JSON against the expected schema, and records a
// typed stage failure on the workflow context when anything is off. The
// persist command at the end of the chain is the only one that touches the
// store.
package commands

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/nishitbohra/vidsense/internal/core/cor"
	"github.com/nishitbohra/vidsense/internal/core/model"
	verr "github.com/nishitbohra/vidsense/internal/errors"
	"github.com/nishitbohra/vidsense/internal/pybridge"
)

// TranscriptPayload is the transcript stage's output, consumed by every
// later stage.
type TranscriptPayload struct {
	Title    string
	Segments []model.TranscriptSegment
}

// Text joins all segment texts into the flat transcript the summarizer and
// embedding scripts expect.
func (p *TranscriptPayload) Text() string {
	texts := make([]string, 0, len(p.Segments))
	for _, s := range p.Segments {
		texts = append(texts, s.Text)
	}
	return strings.Join(texts, " ")
}

// transcriptResponse is the extractor script's stdout schema.
type transcriptResponse struct {
	Success    bool                      `json:"success"`
	Error      string                    `json:"error"`
	Title      string                    `json:"title"`
	Transcript []model.TranscriptSegment `json:"transcript"`
}

// TranscriptExtract runs the transcript extractor for a video ID. A failure
// here is a hard failure: without a transcript nothing downstream can run.
type TranscriptExtract struct {
	cor.BaseCommand
	runner  pybridge.Runner
	timeout time.Duration
}

func NewTranscriptExtract(name string, runner pybridge.Runner, timeout time.Duration) *TranscriptExtract {
	return &TranscriptExtract{BaseCommand: *cor.NewBaseCommand(name), runner: runner, timeout: timeout}
}

func (c *TranscriptExtract) Execute(context cor.Context) {
	videoID := context.Get(c.GetInputParam()).(string)

	res := c.runner.Run(context.GetContext(), pybridge.ScriptTranscript, []string{videoID}, nil, c.timeout)
	if !res.OK() {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), verr.NewStageFailure(verr.StageTranscript,
			"could not extract transcript from video", res.FailureDetail(), nil))
		return
	}

	var out transcriptResponse
	if err := json.Unmarshal(res.Data, &out); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), verr.NewStageFailure(verr.StageTranscript,
			"transcript extractor returned malformed output", err.Error(), err))
		return
	}
	if !out.Success {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), verr.NewStageFailure(verr.StageTranscript,
			"could not extract transcript from video", out.Error, nil))
		return
	}
	if len(out.Transcript) == 0 {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), verr.NewStageFailure(verr.StageTranscript,
			"video has no transcript segments", "", nil))
		return
	}
	if err := model.ValidateTranscript(out.Transcript); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), verr.NewStageFailure(verr.StageTranscript,
			"transcript segments violate ordering", err.Error(), err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), &TranscriptPayload{Title: out.Title, Segments: out.Transcript})
}
