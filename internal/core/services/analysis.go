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

// Package services holds the request-facing orchestration: the analyze
// path (cache check, pipeline run, error mapping), the status reporter,
// and search.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nishitbohra/vidsense/internal/config"
	"github.com/nishitbohra/vidsense/internal/core/cor"
	"github.com/nishitbohra/vidsense/internal/core/model"
	"github.com/nishitbohra/vidsense/internal/core/workflow"
	verr "github.com/nishitbohra/vidsense/internal/errors"
	"github.com/nishitbohra/vidsense/internal/pybridge"
	"github.com/nishitbohra/vidsense/internal/store"
)

// AnalysisService drives the analysis pipeline for one video at a time per
// identifier: concurrent requests for the same video queue on a keyed lock,
// so the second waiter finds the first run's records and returns them as a
// cache hit instead of re-running the scripts.
type AnalysisService struct {
	store store.Store
	chain cor.Chain
	locks *keyedMutex
}

func NewAnalysisService(runner pybridge.Runner, st store.Store, timeouts *config.StageTimeouts) *AnalysisService {
	return &AnalysisService{
		store: st,
		chain: workflow.NewAnalysisChain(runner, st, timeouts),
		locks: newKeyedMutex(),
	}
}

// Analyze resolves the URL to a video ID, returns the stored analysis when
// one exists, and otherwise runs the full pipeline.
func (s *AnalysisService) Analyze(ctx context.Context, rawURL string) (*model.AnalysisResult, error) {
	videoID, err := model.ExtractVideoID(rawURL)
	if err != nil {
		return nil, verr.NewInvalidURL(err.Error())
	}

	unlock := s.locks.Lock(videoID)
	defer unlock()

	if stored, err := s.store.FindAnalysis(ctx, videoID); err == nil {
		slog.Info("analysis cache hit", "video_id", videoID)
		return cachedResult(stored), nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, verr.NewPersistence("could not look up stored analysis", err)
	}

	slog.Info("starting analysis pipeline", "video_id", videoID)
	start := time.Now()

	workCtx := cor.NewBaseContext()
	defer workCtx.Close()
	workCtx.SetContext(ctx)
	workCtx.Add(workflow.ParamVideoID, videoID)
	workCtx.Add(workflow.ParamSourceURL, rawURL)

	s.chain.Execute(workCtx)

	if workCtx.HasErrors() {
		return nil, pipelineError(workCtx)
	}

	result, ok := workCtx.Get(workflow.ParamResult).(*model.AnalysisResult)
	if !ok {
		return nil, verr.NewInternal("pipeline finished without a result", nil)
	}

	slog.Info("analysis pipeline finished",
		"video_id", videoID,
		"duration", time.Since(start),
		"segments", len(result.SentimentTimeline))
	return result, nil
}

// Status classifies a video by which records exist for it.
func (s *AnalysisService) Status(ctx context.Context, videoID string) (*model.StatusReport, error) {
	if !model.ValidVideoID(videoID) {
		return nil, verr.NewValidation("invalid video ID format")
	}

	video, err := s.store.GetVideo(ctx, videoID)
	if errors.Is(err, store.ErrNotFound) {
		return &model.StatusReport{
			Status:  model.StatusNotFound,
			Message: "video has not been analyzed",
		}, nil
	}
	if err != nil {
		return nil, verr.NewPersistence("could not look up video", err)
	}

	hasSummary := true
	if _, err := s.store.GetSummary(ctx, videoID); errors.Is(err, store.ErrNotFound) {
		hasSummary = false
	} else if err != nil {
		return nil, verr.NewPersistence("could not look up summary", err)
	}

	sentiments, err := s.store.SentimentsFor(ctx, videoID)
	if err != nil {
		return nil, verr.NewPersistence("could not look up sentiments", err)
	}

	created := video.CreatedAt
	return &model.StatusReport{
		Status:        model.InferStatus(true, hasSummary),
		VideoID:       video.VideoID,
		Title:         video.Title,
		HasSummary:    hasSummary,
		HasSentiments: len(sentiments) > 0,
		CreatedAt:     &created,
	}, nil
}

func cachedResult(stored *store.StoredAnalysis) *model.AnalysisResult {
	return &model.AnalysisResult{
		VideoID:           stored.Video.VideoID,
		Title:             stored.Video.Title,
		SummaryShort:      stored.Summary.SummaryShort,
		SummaryDetailed:   stored.Summary.SummaryDetailed,
		Topics:            stored.Summary.Topics,
		SentimentTimeline: model.TimelinePoints(stored.Sentiments),
		CreatedAt:         stored.Video.CreatedAt,
		Cached:            true,
	}
}

// pipelineError surfaces the first typed error a stage recorded; anything
// untyped becomes an internal error.
func pipelineError(workCtx cor.Context) error {
	for name, err := range workCtx.GetErrors() {
		var appErr *verr.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		slog.Error("pipeline stage failed with untyped error", "command", name, "error", err)
	}
	return verr.NewInternal("analysis pipeline failed", nil)
}
