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

// MaxTopics bounds the topic list stored with a summary.
const MaxTopics = 20

// Summary is the generated summary for a video, one per video. Reanalysis
// overwrites it rather than appending.
type Summary struct {
	SummaryID       string    `json:"summary_id" bson:"summary_id"`
	VideoID         string    `json:"video_id" bson:"video_id"`
	SummaryShort    string    `json:"summary_short" bson:"summary_short"`
	SummaryDetailed string    `json:"summary_detailed" bson:"summary_detailed"`
	Topics          []string  `json:"topics" bson:"topics"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}

// BoundTopics returns topics capped at MaxTopics.
func BoundTopics(topics []string) []string {
	if len(topics) > MaxTopics {
		return topics[:MaxTopics]
	}
	return topics
}
