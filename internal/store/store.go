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

// Package store persists analysis results in MongoDB across three
// collections: videos, summaries, and sentiments, all keyed by the eleven
// character video identifier. The store is also the pipeline's result
// cache: a completed analysis is simply one whose records already exist.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nishitbohra/vidsense/internal/core/model"
)

// ErrNotFound is returned by lookups when no record matches.
var ErrNotFound = errors.New("store: not found")

// StoredAnalysis bundles every record for one video.
type StoredAnalysis struct {
	Video      model.Video
	Summary    model.Summary
	Sentiments []model.Sentiment
}

// VideoListItem is one row of a paged video listing.
type VideoListItem struct {
	VideoID      string    `json:"video_id" bson:"video_id"`
	Title        string    `json:"title" bson:"title"`
	URL          string    `json:"url" bson:"url"`
	SegmentCount int       `json:"segment_count" bson:"-"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// Stats is the aggregate overview of stored analysis data.
type Stats struct {
	TotalVideos     int64                          `json:"total_videos"`
	TotalSummaries  int64                          `json:"total_summaries"`
	TotalSentiments int64                          `json:"total_sentiments"`
	SentimentCounts map[model.SentimentLabel]int64 `json:"sentiment_counts"`
}

// Store is the persistence boundary for analysis results. Implementations
// must treat a video's records as one logical unit: ReplaceAnalysis and
// DeleteAnalysis cover all three collections.
type Store interface {
	// Ping verifies the backing database is reachable.
	Ping(ctx context.Context) error

	// EnsureIndexes creates the indexes the store's queries depend on.
	// Safe to call on every startup.
	EnsureIndexes(ctx context.Context) error

	// FindAnalysis returns a video's complete analysis, or ErrNotFound
	// when the video has no summary yet (a partial analysis is not a
	// cache hit).
	FindAnalysis(ctx context.Context, videoID string) (*StoredAnalysis, error)

	// ReplaceAnalysis atomically swaps a video's records for the given
	// set, whether or not records already exist.
	ReplaceAnalysis(ctx context.Context, video *model.Video, summary *model.Summary, sentiments []model.Sentiment) error

	// GetVideo returns the video record alone, or ErrNotFound.
	GetVideo(ctx context.Context, videoID string) (*model.Video, error)

	// GetSummary returns the summary for a video, or ErrNotFound.
	GetSummary(ctx context.Context, videoID string) (*model.Summary, error)

	// SentimentsFor returns a video's sentiment records ordered by
	// timestamp. A video with no sentiments yields an empty slice,
	// not an error.
	SentimentsFor(ctx context.Context, videoID string) ([]model.Sentiment, error)

	// ListVideos returns one page of videos, newest first, plus the
	// total count.
	ListVideos(ctx context.Context, page, limit int64) ([]VideoListItem, int64, error)

	// DeleteAnalysis removes a video and everything attached to it.
	// Returns ErrNotFound when the video does not exist.
	DeleteAnalysis(ctx context.Context, videoID string) error

	// SearchText runs a Mongo text search over stored summaries and
	// titles, used when the semantic search script is unavailable.
	SearchText(ctx context.Context, query string, limit int64) ([]model.SearchResult, error)

	// Stats aggregates counts across all collections.
	Stats(ctx context.Context) (*Stats, error)

	// Close releases the underlying connections.
	Close(ctx context.Context) error
}
