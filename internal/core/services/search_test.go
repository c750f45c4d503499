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

package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nishitbohra/vidsense/internal/core/model"
	"github.com/nishitbohra/vidsense/internal/core/services"
	verr "github.com/nishitbohra/vidsense/internal/errors"
	"github.com/nishitbohra/vidsense/internal/pybridge"
	"github.com/nishitbohra/vidsense/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T) *testutil.MemStore {
	t.Helper()
	st := testutil.NewMemStore()
	require.NoError(t, st.ReplaceAnalysis(context.Background(),
		&model.Video{VideoID: testVideoID, Title: "Go Concurrency Patterns", URL: testURL},
		&model.Summary{VideoID: testVideoID, SummaryShort: "An introduction to goroutines.", Topics: []string{"go"}},
		nil))
	require.NoError(t, st.ReplaceAnalysis(context.Background(),
		&model.Video{VideoID: "abcdefghijk", Title: "Channels Deep Dive", URL: "https://youtu.be/abcdefghijk"},
		&model.Summary{VideoID: "abcdefghijk", SummaryShort: "Everything about channels and goroutines."},
		nil))
	return st
}

func TestSearchSemantic(t *testing.T) {
	runner := testutil.NewStubRunner().
		Respond(pybridge.ScriptSearch, testutil.SearchResponseText())
	svc := services.NewSearchService(runner, seededStore(t), time.Minute)

	results, mode, err := svc.Search(context.Background(), "goroutines", 10)
	require.NoError(t, err)
	assert.Equal(t, services.SearchModeSemantic, mode)
	require.Len(t, results, 2)
	assert.Equal(t, testVideoID, results[0].VideoID)
	// Hits are rounded out from the primary records.
	assert.Equal(t, testURL, results[0].URL)

	calls := runner.CallsTo(pybridge.ScriptSearch)
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"goroutines", "10"}, calls[0].Args)
}

// A broken search script degrades to text search instead of failing the
// request.
func TestSearchFallsBackToText(t *testing.T) {
	runner := testutil.NewStubRunner().
		Fail(pybridge.ScriptSearch, pybridge.Result{Kind: pybridge.KindExecError, ExitCode: 1, Stderr: "chromadb unreachable"})
	svc := services.NewSearchService(runner, seededStore(t), time.Minute)

	results, mode, err := svc.Search(context.Background(), "goroutines", 10)
	require.NoError(t, err)
	assert.Equal(t, services.SearchModeText, mode)
	assert.NotEmpty(t, results)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	svc := services.NewSearchService(testutil.NewStubRunner(), testutil.NewMemStore(), time.Minute)

	_, _, err := svc.Search(context.Background(), "   ", 10)
	var appErr *verr.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, verr.CodeValidation, appErr.Code)
}

func TestSimilarExcludesSourceVideo(t *testing.T) {
	runner := testutil.NewStubRunner().
		Respond(pybridge.ScriptSearch, testutil.SearchResponseText())
	svc := services.NewSearchService(runner, seededStore(t), time.Minute)

	results, mode, err := svc.Similar(context.Background(), testVideoID, 5)
	require.NoError(t, err)
	assert.Equal(t, services.SearchModeSemantic, mode)
	for _, r := range results {
		assert.NotEqual(t, testVideoID, r.VideoID)
	}
	require.Len(t, results, 1)
	assert.Equal(t, "abcdefghijk", results[0].VideoID)
}

func TestSimilarUnknownVideo(t *testing.T) {
	svc := services.NewSearchService(testutil.NewStubRunner(), testutil.NewMemStore(), time.Minute)

	_, _, err := svc.Similar(context.Background(), "AAAAAAAAAAA", 5)
	var appErr *verr.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, verr.CodeNotFound, appErr.Code)
}
