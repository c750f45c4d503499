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

package workflow_test

import (
	"context"
	"testing"

	"github.com/nishitbohra/vidsense/internal/core/cor"
	"github.com/nishitbohra/vidsense/internal/core/model"
	"github.com/nishitbohra/vidsense/internal/core/workflow"
	"github.com/nishitbohra/vidsense/internal/pybridge"
	"github.com/nishitbohra/vidsense/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeChain(t *testing.T, runner *testutil.StubRunner, st *testutil.MemStore) cor.Context {
	t.Helper()
	timeouts := testutil.GetConfig().Timeouts
	chain := workflow.NewAnalysisChain(runner, st, &timeouts)

	ctx := cor.NewBaseContext()
	t.Cleanup(ctx.Close)
	ctx.SetContext(context.Background())
	ctx.Add(workflow.ParamVideoID, "dQw4w9WgXcQ")
	ctx.Add(workflow.ParamSourceURL, "https://youtu.be/dQw4w9WgXcQ")
	chain.Execute(ctx)
	return ctx
}

func TestAnalysisChainProducesResult(t *testing.T) {
	runner := testutil.NewStubRunner().
		Respond(pybridge.ScriptTranscript, testutil.TranscriptResponseText()).
		Respond(pybridge.ScriptSummarizer, testutil.SummaryResponseText()).
		Respond(pybridge.ScriptSentiment, testutil.SentimentResponseText()).
		Respond(pybridge.ScriptEmbeddings, testutil.EmbeddingResponseText())
	st := testutil.NewMemStore()

	ctx := executeChain(t, runner, st)

	require.False(t, ctx.HasErrors(), "chain errors: %v", ctx.GetErrors())
	result, ok := ctx.Get(workflow.ParamResult).(*model.AnalysisResult)
	require.True(t, ok)
	assert.Equal(t, "dQw4w9WgXcQ", result.VideoID)
	assert.Equal(t, 1, st.ReplaceCalls())
}

// A summary failure stops the chain: sentiment, embeddings, and persistence
// never run.
func TestAnalysisChainStopsAfterSummaryFailure(t *testing.T) {
	runner := testutil.NewStubRunner().
		Respond(pybridge.ScriptTranscript, testutil.TranscriptResponseText()).
		Respond(pybridge.ScriptSummarizer, testutil.FailureResponseText("model unavailable"))
	st := testutil.NewMemStore()

	ctx := executeChain(t, runner, st)

	require.True(t, ctx.HasErrors())
	assert.Contains(t, ctx.GetErrors(), "summary_create")
	assert.Empty(t, runner.CallsTo(pybridge.ScriptSentiment))
	assert.Empty(t, runner.CallsTo(pybridge.ScriptEmbeddings))
	assert.Equal(t, 0, st.ReplaceCalls())
	assert.Nil(t, ctx.Get(workflow.ParamResult))
}
