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

package model_test

import (
	"testing"

	"github.com/nishitbohra/vidsense/internal/core/model"
	"github.com/stretchr/testify/assert"
)

func segments(starts ...float64) []model.TranscriptSegment {
	out := make([]model.TranscriptSegment, 0, len(starts))
	for _, s := range starts {
		out = append(out, model.TranscriptSegment{Text: "x", Start: s, Duration: 1.0})
	}
	return out
}

func TestValidateTranscript(t *testing.T) {
	assert.NoError(t, model.ValidateTranscript(nil))
	assert.NoError(t, model.ValidateTranscript(segments(0, 1.5, 3)))
	// Equal starts are allowed: non-decreasing, not strictly increasing.
	assert.NoError(t, model.ValidateTranscript(segments(0, 2, 2, 4)))
	// Auto-captions hold a caption past the next one's start; spans may
	// overlap as long as the starts stay ordered.
	assert.NoError(t, model.ValidateTranscript([]model.TranscriptSegment{
		{Text: "x", Start: 0, Duration: 4},
		{Text: "y", Start: 2, Duration: 4},
	}))

	assert.Error(t, model.ValidateTranscript(segments(0, 3, 1.5)))
	assert.Error(t, model.ValidateTranscript(segments(-0.5, 1)))
	assert.Error(t, model.ValidateTranscript([]model.TranscriptSegment{
		{Text: "x", Start: 0, Duration: -1},
	}))
}

func TestVideoDerivedFields(t *testing.T) {
	v := model.Video{
		Transcript: []model.TranscriptSegment{
			{Text: "hello", Start: 0, Duration: 2},
			{Text: "world", Start: 2, Duration: 3.5},
		},
	}
	assert.Equal(t, "hello world", v.TranscriptText())
	assert.Equal(t, 5.5, v.TotalDuration())
}

func TestBoundTopics(t *testing.T) {
	short := []string{"a", "b"}
	assert.Equal(t, short, model.BoundTopics(short))

	long := make([]string, model.MaxTopics+5)
	assert.Len(t, model.BoundTopics(long), model.MaxTopics)
}

func TestInferStatus(t *testing.T) {
	assert.Equal(t, model.StatusNotFound, model.InferStatus(false, false))
	assert.Equal(t, model.StatusProcessing, model.InferStatus(true, false))
	assert.Equal(t, model.StatusCompleted, model.InferStatus(true, true))
}
