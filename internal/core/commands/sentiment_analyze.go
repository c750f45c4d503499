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
	"sort"
	"time"

	"github.com/nishitbohra/vidsense/internal/core/cor"
	"github.com/nishitbohra/vidsense/internal/core/model"
	verr "github.com/nishitbohra/vidsense/internal/errors"
	"github.com/nishitbohra/vidsense/internal/pybridge"
)

// sentimentEntry mirrors one element of the analyzer script's output.
type sentimentEntry struct {
	Timestamp   float64 `json:"timestamp"`
	Label       string  `json:"sentiment_label"`
	Score       float64 `json:"sentiment_score"`
	TextSegment string  `json:"text_segment"`
}

// sentimentResponse is the analyzer script's stdout schema.
type sentimentResponse struct {
	Success    bool             `json:"success"`
	Error      string           `json:"error"`
	Sentiments []sentimentEntry `json:"sentiments"`
}

// SentimentAnalyze runs the sentiment analyzer over the per-segment
// transcript. The analyzer's labels are advisory only: each stored record's
// label is re-derived from its score under the fixed threshold rule, so the
// label/score invariant holds no matter what the script emits.
type SentimentAnalyze struct {
	cor.BaseCommand
	runner  pybridge.Runner
	timeout time.Duration
}

func NewSentimentAnalyze(name string, runner pybridge.Runner, timeout time.Duration) *SentimentAnalyze {
	return &SentimentAnalyze{BaseCommand: *cor.NewBaseCommand(name), runner: runner, timeout: timeout}
}

func (c *SentimentAnalyze) Execute(context cor.Context) {
	transcript := context.Get(c.GetInputParam()).(*TranscriptPayload)

	res := c.runner.Run(context.GetContext(), pybridge.ScriptSentiment, nil,
		transcript.Segments, c.timeout)
	if !res.OK() {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), verr.NewStageFailure(verr.StageSentiment,
			"could not analyze sentiment", res.FailureDetail(), nil))
		return
	}

	var out sentimentResponse
	if err := json.Unmarshal(res.Data, &out); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), verr.NewStageFailure(verr.StageSentiment,
			"sentiment analyzer returned malformed output", err.Error(), err))
		return
	}
	if !out.Success {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), verr.NewStageFailure(verr.StageSentiment,
			"could not analyze sentiment", out.Error, nil))
		return
	}

	sentiments := make([]model.Sentiment, 0, len(out.Sentiments))
	for _, e := range out.Sentiments {
		s := model.Sentiment{
			Timestamp:   e.Timestamp,
			Score:       e.Score,
			TextSegment: e.TextSegment,
		}
		s.Normalize()
		sentiments = append(sentiments, s)
	}
	sort.Slice(sentiments, func(i, j int) bool {
		return sentiments[i].Timestamp < sentiments[j].Timestamp
	})

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), sentiments)
}
