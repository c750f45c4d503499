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

// SentimentLabel classifies a transcript segment's tone.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// Label/score threshold rule. A label is derived from the score, never
// trusted from the analyzer's output, so stored labels and scores can not
// disagree.
const (
	PositiveThreshold = 0.1
	NegativeThreshold = -0.1
)

// Sentiment is one point on a video's sentiment timeline.
type Sentiment struct {
	SegmentID   string         `json:"segment_id" bson:"segment_id"`
	VideoID     string         `json:"video_id" bson:"video_id"`
	Timestamp   float64        `json:"timestamp" bson:"timestamp"` // Seconds from the start of the video.
	Label       SentimentLabel `json:"sentiment_label" bson:"sentiment_label"`
	Score       float64        `json:"sentiment_score" bson:"sentiment_score"` // Normalized to [-1, 1].
	TextSegment string         `json:"text_segment" bson:"text_segment"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at"`
}

// LabelForScore applies the threshold rule: score > 0.1 is positive,
// score < -0.1 is negative, everything between is neutral.
func LabelForScore(score float64) SentimentLabel {
	switch {
	case score > PositiveThreshold:
		return SentimentPositive
	case score < NegativeThreshold:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// ClampScore constrains a score to [-1, 1].
func ClampScore(score float64) float64 {
	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}
	return score
}

// Normalize clamps the score and re-derives the label from it, enforcing the
// threshold invariant at ingestion.
func (s *Sentiment) Normalize() {
	s.Score = ClampScore(s.Score)
	s.Label = LabelForScore(s.Score)
}
