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

func TestLabelForScore(t *testing.T) {
	tests := []struct {
		score float64
		want  model.SentimentLabel
	}{
		{0.5, model.SentimentPositive},
		{0.11, model.SentimentPositive},
		{0.1, model.SentimentNeutral}, // boundary is exclusive
		{0.05, model.SentimentNeutral},
		{0.0, model.SentimentNeutral},
		{-0.1, model.SentimentNeutral}, // boundary is exclusive
		{-0.11, model.SentimentNegative},
		{-0.3, model.SentimentNegative},
		{1.0, model.SentimentPositive},
		{-1.0, model.SentimentNegative},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, model.LabelForScore(tc.score), "score %v", tc.score)
	}
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 1.0, model.ClampScore(3.7))
	assert.Equal(t, -1.0, model.ClampScore(-2.0))
	assert.Equal(t, 0.42, model.ClampScore(0.42))
}

// A sentiment whose label disagrees with its score must come out of
// Normalize with the label re-derived from the clamped score.
func TestNormalizeOverridesAnalyzerLabel(t *testing.T) {
	s := model.Sentiment{Label: model.SentimentPositive, Score: 0.05}
	s.Normalize()
	assert.Equal(t, model.SentimentNeutral, s.Label)
	assert.Equal(t, 0.05, s.Score)

	s = model.Sentiment{Label: model.SentimentNeutral, Score: 5.0}
	s.Normalize()
	assert.Equal(t, model.SentimentPositive, s.Label)
	assert.Equal(t, 1.0, s.Score)
}
