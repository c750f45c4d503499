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

package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/nishitbohra/vidsense/internal/core/model"
	verr "github.com/nishitbohra/vidsense/internal/errors"
	"github.com/nishitbohra/vidsense/internal/pybridge"
	"github.com/nishitbohra/vidsense/internal/store"
)

// Search modes reported alongside results, so callers know whether scores
// are cosine similarities or Mongo text scores.
const (
	SearchModeSemantic = "semantic"
	SearchModeText     = "text"
)

// searchResponse is the semantic search script's stdout schema.
type searchResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Results []struct {
		VideoID         string   `json:"video_id"`
		Title           string   `json:"title"`
		SimilarityScore float64  `json:"similarity_score"`
		SummaryShort    string   `json:"summary_short"`
		Topics          []string `json:"topics"`
	} `json:"results"`
}

// SearchService answers queries against stored analyses. The primary path
// is the semantic search script over the embedding store; when that fails
// for any reason the service degrades to Mongo text search rather than
// returning an error.
type SearchService struct {
	store   store.Store
	runner  pybridge.Runner
	timeout time.Duration
}

func NewSearchService(runner pybridge.Runner, st store.Store, timeout time.Duration) *SearchService {
	return &SearchService{store: st, runner: runner, timeout: timeout}
}

// Search returns up to limit results for a free-text query, plus the mode
// that produced them.
func (s *SearchService) Search(ctx context.Context, query string, limit int64) ([]model.SearchResult, string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, "", verr.NewValidation("query must not be empty")
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}

	if results, ok := s.semantic(ctx, query, limit, ""); ok {
		return results, SearchModeSemantic, nil
	}

	results, err := s.store.SearchText(ctx, query, limit)
	if err != nil {
		return nil, "", verr.NewPersistence("search failed", err)
	}
	return results, SearchModeText, nil
}

// Similar finds videos close to an already analyzed one, using its stored
// short summary as the query and excluding the video itself from the hits.
func (s *SearchService) Similar(ctx context.Context, videoID string, limit int64) ([]model.SearchResult, string, error) {
	if !model.ValidVideoID(videoID) {
		return nil, "", verr.NewValidation("invalid video ID format")
	}
	if limit < 1 || limit > 50 {
		limit = 5
	}

	summary, err := s.store.GetSummary(ctx, videoID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", verr.NewNotFound(videoID)
	}
	if err != nil {
		return nil, "", verr.NewPersistence("could not look up summary", err)
	}

	// Ask for one extra result since the video itself is usually the
	// closest match.
	if results, ok := s.semantic(ctx, summary.SummaryShort, limit+1, videoID); ok {
		if int64(len(results)) > limit {
			results = results[:limit]
		}
		return results, SearchModeSemantic, nil
	}

	results, err := s.store.SearchText(ctx, summary.SummaryShort, limit+1)
	if err != nil {
		return nil, "", verr.NewPersistence("search failed", err)
	}
	results = excludeVideo(results, videoID)
	if int64(len(results)) > limit {
		results = results[:limit]
	}
	return results, SearchModeText, nil
}

// semantic runs the search script and reports whether its results are
// usable. Any failure is logged and treated as a miss so the caller can
// fall back.
func (s *SearchService) semantic(ctx context.Context, query string, limit int64, excludeID string) ([]model.SearchResult, bool) {
	res := s.runner.Run(ctx, pybridge.ScriptSearch,
		[]string{query, strconv.FormatInt(limit, 10)}, nil, s.timeout)
	if !res.OK() {
		slog.Warn("semantic search unavailable, falling back to text search",
			"detail", res.FailureDetail())
		return nil, false
	}

	var out searchResponse
	if err := json.Unmarshal(res.Data, &out); err != nil || !out.Success {
		slog.Warn("semantic search returned unusable output, falling back to text search",
			"error", out.Error)
		return nil, false
	}

	results := make([]model.SearchResult, 0, len(out.Results))
	for _, hit := range out.Results {
		if hit.VideoID == excludeID {
			continue
		}
		result := model.SearchResult{
			VideoID:         hit.VideoID,
			Title:           hit.Title,
			SimilarityScore: hit.SimilarityScore,
			SummaryShort:    hit.SummaryShort,
			Topics:          hit.Topics,
		}
		// The embedding store only carries what was embedded; round out
		// each hit from the primary records when they are still present.
		if video, err := s.store.GetVideo(ctx, hit.VideoID); err == nil {
			result.URL = video.URL
			result.CreatedAt = video.CreatedAt
			if result.Title == "" {
				result.Title = video.Title
			}
		}
		results = append(results, result)
	}
	return results, true
}

func excludeVideo(results []model.SearchResult, videoID string) []model.SearchResult {
	out := results[:0]
	for _, r := range results {
		if r.VideoID != videoID {
			out = append(out, r)
		}
	}
	return out
}
