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

package commands_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/nishitbohra/vidsense/internal/core/commands"
	"github.com/nishitbohra/vidsense/internal/core/cor"
	"github.com/nishitbohra/vidsense/internal/core/model"
	verr "github.com/nishitbohra/vidsense/internal/errors"
	"github.com/nishitbohra/vidsense/internal/pybridge"
	"github.com/nishitbohra/vidsense/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

func newCommandContext() cor.Context {
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	return ctx
}

func transcriptInput() *commands.TranscriptPayload {
	return &commands.TranscriptPayload{
		Title: "Go Concurrency Patterns",
		Segments: []model.TranscriptSegment{
			{Text: "Welcome back to the channel.", Start: 0, Duration: 2.5},
			{Text: "Today we are talking about goroutines.", Start: 2.5, Duration: 3.1},
		},
	}
}

func stageError(t *testing.T, ctx cor.Context, name string) *verr.AppError {
	t.Helper()
	require.True(t, ctx.HasErrors())
	err, ok := ctx.GetErrors()[name]
	require.True(t, ok, "no error recorded for %s", name)
	var appErr *verr.AppError
	require.True(t, errors.As(err, &appErr))
	return appErr
}

func TestTranscriptExtract(t *testing.T) {
	runner := testutil.NewStubRunner().
		Respond(pybridge.ScriptTranscript, testutil.TranscriptResponseText())
	cmd := commands.NewTranscriptExtract("transcript_extract", runner, testTimeout)
	cmd.InputParamName = "video_id"
	cmd.OutputParamName = "transcript"

	ctx := newCommandContext()
	defer ctx.Close()
	ctx.Add("video_id", "dQw4w9WgXcQ")
	cmd.Execute(ctx)

	require.False(t, ctx.HasErrors())
	out := ctx.Get("transcript").(*commands.TranscriptPayload)
	assert.Equal(t, "Go Concurrency Patterns", out.Title)
	require.Len(t, out.Segments, 3)
	assert.Equal(t, 2.5, out.Segments[1].Start)

	// The video ID travels as a plain argument, not a payload file.
	calls := runner.CallsTo(pybridge.ScriptTranscript)
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"dQw4w9WgXcQ"}, calls[0].Args)
	assert.Nil(t, calls[0].Payload)
}

// A transcript failure maps to a 400: missing captions are the caller's
// input problem, not a server fault.
func TestTranscriptExtractFailureIsBadRequest(t *testing.T) {
	runner := testutil.NewStubRunner().
		Respond(pybridge.ScriptTranscript, testutil.FailureResponseText("no captions available"))
	cmd := commands.NewTranscriptExtract("transcript_extract", runner, testTimeout)
	cmd.InputParamName = "video_id"

	ctx := newCommandContext()
	defer ctx.Close()
	ctx.Add("video_id", "dQw4w9WgXcQ")
	cmd.Execute(ctx)

	appErr := stageError(t, ctx, "transcript_extract")
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, verr.StageTranscript, appErr.Stage)
	assert.Contains(t, appErr.Details, "no captions available")
}

func TestTranscriptExtractRejectsOutOfOrderSegments(t *testing.T) {
	runner := testutil.NewStubRunner().Respond(pybridge.ScriptTranscript, `{
		"success": true,
		"title": "bad",
		"transcript": [
			{ "text": "b", "start": 5.0, "duration": 1.0 },
			{ "text": "a", "start": 1.0, "duration": 1.0 }
		]
	}`)
	cmd := commands.NewTranscriptExtract("transcript_extract", runner, testTimeout)
	cmd.InputParamName = "video_id"

	ctx := newCommandContext()
	defer ctx.Close()
	ctx.Add("video_id", "dQw4w9WgXcQ")
	cmd.Execute(ctx)

	appErr := stageError(t, ctx, "transcript_extract")
	assert.Equal(t, verr.StageTranscript, appErr.Stage)
}

func TestSummaryCreate(t *testing.T) {
	runner := testutil.NewStubRunner().
		Respond(pybridge.ScriptSummarizer, testutil.SummaryResponseText())
	cmd := commands.NewSummaryCreate("summary_create", runner, testTimeout)
	cmd.InputParamName = "transcript"
	cmd.OutputParamName = "summary"

	ctx := newCommandContext()
	defer ctx.Close()
	ctx.Add("transcript", transcriptInput())
	cmd.Execute(ctx)

	require.False(t, ctx.HasErrors())
	out := ctx.Get("summary").(*commands.SummaryPayload)
	assert.Contains(t, out.Short, "goroutines")
	assert.Equal(t, []string{"go", "concurrency", "goroutines"}, out.Topics)

	// The joined transcript goes to the script as a payload file body.
	calls := runner.CallsTo(pybridge.ScriptSummarizer)
	require.Len(t, calls, 1)
	payload, err := json.Marshal(calls[0].Payload)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "Welcome back to the channel. Today we are talking about goroutines.")
}

func TestSummaryCreateTruncatesTopics(t *testing.T) {
	topics := make([]string, 0, model.MaxTopics+10)
	for i := 0; i < model.MaxTopics+10; i++ {
		topics = append(topics, fmt.Sprintf("topic-%d", i))
	}
	body, err := json.Marshal(map[string]any{
		"success":          true,
		"summary_short":    "s",
		"summary_detailed": "d",
		"topics":           topics,
	})
	require.NoError(t, err)

	runner := testutil.NewStubRunner().Respond(pybridge.ScriptSummarizer, string(body))
	cmd := commands.NewSummaryCreate("summary_create", runner, testTimeout)
	cmd.InputParamName = "transcript"
	cmd.OutputParamName = "summary"

	ctx := newCommandContext()
	defer ctx.Close()
	ctx.Add("transcript", transcriptInput())
	cmd.Execute(ctx)

	require.False(t, ctx.HasErrors())
	out := ctx.Get("summary").(*commands.SummaryPayload)
	assert.Len(t, out.Topics, model.MaxTopics)
}

func TestSummaryCreateTimeoutIsServerError(t *testing.T) {
	runner := testutil.NewStubRunner().
		Fail(pybridge.ScriptSummarizer, pybridge.Result{Kind: pybridge.KindTimeout})
	cmd := commands.NewSummaryCreate("summary_create", runner, testTimeout)
	cmd.InputParamName = "transcript"

	ctx := newCommandContext()
	defer ctx.Close()
	ctx.Add("transcript", transcriptInput())
	cmd.Execute(ctx)

	appErr := stageError(t, ctx, "summary_create")
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Contains(t, appErr.Details, "timed out")
}

func TestSentimentAnalyze(t *testing.T) {
	runner := testutil.NewStubRunner().
		Respond(pybridge.ScriptSentiment, testutil.SentimentResponseText())
	cmd := commands.NewSentimentAnalyze("sentiment_analyze", runner, testTimeout)
	cmd.InputParamName = "transcript"
	cmd.OutputParamName = "sentiments"

	ctx := newCommandContext()
	defer ctx.Close()
	ctx.Add("transcript", transcriptInput())
	cmd.Execute(ctx)

	require.False(t, ctx.HasErrors())
	out := ctx.Get("sentiments").([]model.Sentiment)
	require.Len(t, out, 3)

	// The fixture's middle entry claims "positive" at score 0.05; the
	// threshold rule relabels it neutral.
	assert.Equal(t, model.SentimentPositive, out[0].Label)
	assert.Equal(t, model.SentimentNeutral, out[1].Label)
	assert.Equal(t, model.SentimentNegative, out[2].Label)

	// Ordered by timestamp.
	assert.True(t, out[0].Timestamp <= out[1].Timestamp)
	assert.True(t, out[1].Timestamp <= out[2].Timestamp)
}

func TestSentimentAnalyzeFailure(t *testing.T) {
	runner := testutil.NewStubRunner().
		Fail(pybridge.ScriptSentiment, pybridge.Result{Kind: pybridge.KindExecError, ExitCode: 1, Stderr: "model load failed"})
	cmd := commands.NewSentimentAnalyze("sentiment_analyze", runner, testTimeout)
	cmd.InputParamName = "transcript"

	ctx := newCommandContext()
	defer ctx.Close()
	ctx.Add("transcript", transcriptInput())
	cmd.Execute(ctx)

	appErr := stageError(t, ctx, "sentiment_analyze")
	assert.Equal(t, verr.StageSentiment, appErr.Stage)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Contains(t, appErr.Details, "model load failed")
}

// The embedding stage never records a chain error, whatever the script does.
func TestEmbeddingGenerateFailureIsSoft(t *testing.T) {
	runner := testutil.NewStubRunner().
		Fail(pybridge.ScriptEmbeddings, pybridge.Result{Kind: pybridge.KindExecError, ExitCode: 1, Stderr: "vector store down"})
	cmd := commands.NewEmbeddingGenerate("embedding_generate", runner, testTimeout, "transcript", "summary")
	cmd.InputParamName = "video_id"

	ctx := newCommandContext()
	defer ctx.Close()
	ctx.Add("video_id", "dQw4w9WgXcQ")
	ctx.Add("transcript", transcriptInput())
	ctx.Add("summary", &commands.SummaryPayload{Short: "s", Detailed: "d"})
	cmd.Execute(ctx)

	assert.False(t, ctx.HasErrors())
}

func TestEmbeddingGeneratePayload(t *testing.T) {
	runner := testutil.NewStubRunner().
		Respond(pybridge.ScriptEmbeddings, testutil.EmbeddingResponseText())
	cmd := commands.NewEmbeddingGenerate("embedding_generate", runner, testTimeout, "transcript", "summary")
	cmd.InputParamName = "video_id"

	ctx := newCommandContext()
	defer ctx.Close()
	ctx.Add("video_id", "dQw4w9WgXcQ")
	ctx.Add("transcript", transcriptInput())
	ctx.Add("summary", &commands.SummaryPayload{Short: "the short summary", Detailed: "the detailed summary"})
	cmd.Execute(ctx)

	require.False(t, ctx.HasErrors())
	calls := runner.CallsTo(pybridge.ScriptEmbeddings)
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"store"}, calls[0].Args)

	payload, err := json.Marshal(calls[0].Payload)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"video_id":"dQw4w9WgXcQ"`)
	// The short summary is the embedded text, matching what queries are
	// compared against.
	assert.Contains(t, string(payload), `"summary":"the short summary"`)
	assert.NotContains(t, string(payload), "the detailed summary")
}

func TestAnalysisPersist(t *testing.T) {
	st := testutil.NewMemStore()
	cmd := commands.NewAnalysisPersist("analysis_persist", st,
		"source_url", "transcript", "summary", "sentiments")
	cmd.InputParamName = "video_id"
	cmd.OutputParamName = "result"

	sentiments := []model.Sentiment{
		{Timestamp: 0, Score: 0.6, Label: model.SentimentPositive, TextSegment: "a"},
		{Timestamp: 2.5, Score: -0.4, Label: model.SentimentNegative, TextSegment: "b"},
	}

	ctx := newCommandContext()
	defer ctx.Close()
	ctx.Add("video_id", "dQw4w9WgXcQ")
	ctx.Add("source_url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	ctx.Add("transcript", transcriptInput())
	ctx.Add("summary", &commands.SummaryPayload{Short: "s", Detailed: "d", Topics: []string{"go"}})
	ctx.Add("sentiments", sentiments)
	cmd.Execute(ctx)

	require.False(t, ctx.HasErrors())
	result := ctx.Get("result").(*model.AnalysisResult)
	assert.Equal(t, "dQw4w9WgXcQ", result.VideoID)
	assert.False(t, result.Cached)
	assert.Len(t, result.SentimentTimeline, 2)

	stored, err := st.FindAnalysis(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", stored.Video.URL)
	assert.NotEmpty(t, stored.Summary.SummaryID)
	require.Len(t, stored.Sentiments, 2)
	assert.NotEmpty(t, stored.Sentiments[0].SegmentID)
	assert.Equal(t, "dQw4w9WgXcQ", stored.Sentiments[0].VideoID)
}

func TestAnalysisPersistStoreFailure(t *testing.T) {
	st := testutil.NewMemStore()
	st.FailNext = errors.New("write concern failed")
	cmd := commands.NewAnalysisPersist("analysis_persist", st,
		"source_url", "transcript", "summary", "sentiments")
	cmd.InputParamName = "video_id"

	ctx := newCommandContext()
	defer ctx.Close()
	ctx.Add("video_id", "dQw4w9WgXcQ")
	ctx.Add("source_url", "https://youtu.be/dQw4w9WgXcQ")
	ctx.Add("transcript", transcriptInput())
	ctx.Add("summary", &commands.SummaryPayload{Short: "s", Detailed: "d"})
	ctx.Add("sentiments", []model.Sentiment{})
	cmd.Execute(ctx)

	appErr := stageError(t, ctx, "analysis_persist")
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
}
