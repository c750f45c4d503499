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
	"time"

	"github.com/google/uuid"

	"github.com/nishitbohra/vidsense/internal/core/cor"
	"github.com/nishitbohra/vidsense/internal/core/model"
	verr "github.com/nishitbohra/vidsense/internal/errors"
	"github.com/nishitbohra/vidsense/internal/store"
)

// AnalysisPersist assembles the stage outputs into the stored records,
// replaces whatever the store held for the video, and emits the assembled
// result. It is the chain's terminal command.
type AnalysisPersist struct {
	cor.BaseCommand
	store           store.Store
	sourceURLParam  string
	transcriptParam string
	summaryParam    string
	sentimentsParam string
}

func NewAnalysisPersist(name string, st store.Store, sourceURLParam, transcriptParam, summaryParam, sentimentsParam string) *AnalysisPersist {
	return &AnalysisPersist{
		BaseCommand:     *cor.NewBaseCommand(name),
		store:           st,
		sourceURLParam:  sourceURLParam,
		transcriptParam: transcriptParam,
		summaryParam:    summaryParam,
		sentimentsParam: sentimentsParam,
	}
}

func (c *AnalysisPersist) Execute(context cor.Context) {
	videoID := context.Get(c.GetInputParam()).(string)
	sourceURL := context.Get(c.sourceURLParam).(string)
	transcript := context.Get(c.transcriptParam).(*TranscriptPayload)
	summary := context.Get(c.summaryParam).(*SummaryPayload)
	sentiments := context.Get(c.sentimentsParam).([]model.Sentiment)

	now := time.Now().UTC()

	video := &model.Video{
		VideoID:    videoID,
		Title:      transcript.Title,
		URL:        sourceURL,
		Transcript: transcript.Segments,
		CreatedAt:  now,
	}
	summaryRec := &model.Summary{
		SummaryID:       uuid.NewString(),
		VideoID:         videoID,
		SummaryShort:    summary.Short,
		SummaryDetailed: summary.Detailed,
		Topics:          model.BoundTopics(summary.Topics),
		CreatedAt:       now,
	}
	for i := range sentiments {
		sentiments[i].SegmentID = uuid.NewString()
		sentiments[i].VideoID = videoID
		sentiments[i].CreatedAt = now
	}

	if err := c.store.ReplaceAnalysis(context.GetContext(), video, summaryRec, sentiments); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), verr.NewPersistence("could not store analysis results", err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), &model.AnalysisResult{
		VideoID:           videoID,
		Title:             video.Title,
		SummaryShort:      summaryRec.SummaryShort,
		SummaryDetailed:   summaryRec.SummaryDetailed,
		Topics:            summaryRec.Topics,
		SentimentTimeline: model.TimelinePoints(sentiments),
		CreatedAt:         now,
		Cached:            false,
	})
}
