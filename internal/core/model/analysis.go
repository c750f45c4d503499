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

package model

import "time"

// AnalysisStatus is the inferred state of a video's pipeline run, derived
// from which records exist in the store rather than from any in-process
// bookkeeping: no video means not_found, a video without a summary means
// processing, video plus summary means completed.
type AnalysisStatus string

const (
	StatusNotFound   AnalysisStatus = "not_found"
	StatusProcessing AnalysisStatus = "processing"
	StatusCompleted  AnalysisStatus = "completed"
)

// InferStatus applies the presence-based classification.
func InferStatus(hasVideo, hasSummary bool) AnalysisStatus {
	switch {
	case !hasVideo:
		return StatusNotFound
	case !hasSummary:
		return StatusProcessing
	default:
		return StatusCompleted
	}
}

// SentimentPoint is one entry of the sentiment timeline in API responses.
type SentimentPoint struct {
	Timestamp   float64        `json:"timestamp"`
	Label       SentimentLabel `json:"sentiment_label"`
	Score       float64        `json:"sentiment_score"`
	TextSegment string         `json:"text_segment"`
}

// AnalysisResult is the assembled response for a completed analysis.
type AnalysisResult struct {
	VideoID           string           `json:"video_id"`
	Title             string           `json:"title"`
	SummaryShort      string           `json:"summary_short"`
	SummaryDetailed   string           `json:"summary_detailed"`
	Topics            []string         `json:"topics"`
	SentimentTimeline []SentimentPoint `json:"sentiment_timeline"`
	CreatedAt         time.Time        `json:"created_at"`
	Cached            bool             `json:"cached"`
}

// StatusReport is the response for a status lookup.
type StatusReport struct {
	Status        AnalysisStatus `json:"status"`
	Message       string         `json:"message,omitempty"`
	VideoID       string         `json:"video_id,omitempty"`
	Title         string         `json:"title,omitempty"`
	HasSummary    bool           `json:"has_summary,omitempty"`
	HasSentiments bool           `json:"has_sentiments,omitempty"`
	CreatedAt     *time.Time     `json:"created_at,omitempty"`
}

// SearchResult is one hit of a semantic or text search.
type SearchResult struct {
	VideoID         string    `json:"video_id"`
	Title           string    `json:"title"`
	SimilarityScore float64   `json:"similarity_score"`
	URL             string    `json:"url"`
	SummaryShort    string    `json:"summary_short"`
	Topics          []string  `json:"topics"`
	CreatedAt       time.Time `json:"created_at"`
}

// TimelinePoints converts stored sentiments to response form.
func TimelinePoints(sentiments []Sentiment) []SentimentPoint {
	out := make([]SentimentPoint, 0, len(sentiments))
	for _, s := range sentiments {
		out = append(out, SentimentPoint{
			Timestamp:   s.Timestamp,
			Label:       s.Label,
			Score:       s.Score,
			TextSegment: s.TextSegment,
		})
	}
	return out
}
