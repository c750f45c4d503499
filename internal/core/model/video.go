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

// Package model defines the persisted and transient data structures for
// video analysis: the source video with its transcript, the generated
// summary, the sentiment timeline, and the envelopes assembled for API
// responses.
package model

import (
	"fmt"
	"strings"
	"time"
)

// TranscriptSegment is one timed piece of a video transcript.
type TranscriptSegment struct {
	Text     string  `json:"text" bson:"text"`
	Start    float64 `json:"start" bson:"start"`       // Offset from the beginning of the video, in seconds.
	Duration float64 `json:"duration" bson:"duration"` // Length of the segment, in seconds.
}

// Video is the unit of work: a YouTube video identified by its 11-character
// ID, together with the transcript extracted for it. The transcript is
// written atomically with the rest of the analysis, never partially.
type Video struct {
	VideoID    string              `json:"video_id" bson:"video_id"`
	Title      string              `json:"title" bson:"title"`
	URL        string              `json:"url" bson:"url"`
	Transcript []TranscriptSegment `json:"transcript" bson:"transcript"`
	CreatedAt  time.Time           `json:"created_at" bson:"created_at"`
}

// TranscriptText joins the segment texts into the single string fed to the
// summarizer.
func (v *Video) TranscriptText() string {
	parts := make([]string, 0, len(v.Transcript))
	for _, s := range v.Transcript {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, " ")
}

// TotalDuration returns the summed duration of all transcript segments, in
// seconds.
func (v *Video) TotalDuration() float64 {
	var total float64
	for _, s := range v.Transcript {
		total += s.Duration
	}
	return total
}

// ValidateTranscript checks the transcript ordering invariant: segments must
// be monotonically non-decreasing in start offset with non-negative
// durations. The extractor script guarantees this for well-formed captions;
// anything else is treated as malformed script output, not silently
// reordered. Overlap with the previous segment's span is allowed: YouTube
// auto-captions regularly hold a caption on screen past the next one's
// start, so only the start offsets are ordered.
func ValidateTranscript(segments []TranscriptSegment) error {
	prevStart := -1.0
	for i, s := range segments {
		if s.Start < 0 || s.Duration < 0 {
			return fmt.Errorf("segment %d has negative timing (start=%.3f duration=%.3f)", i, s.Start, s.Duration)
		}
		if s.Start < prevStart {
			return fmt.Errorf("segment %d out of order (start=%.3f after %.3f)", i, s.Start, prevStart)
		}
		prevStart = s.Start
	}
	return nil
}
