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

package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/nishitbohra/vidsense/internal/core/model"
	"github.com/nishitbohra/vidsense/internal/store"
)

// MemStore is a map-backed store.Store for tests. Search is a naive
// substring match over summaries rather than a real text index.
type MemStore struct {
	mu         sync.Mutex
	videos     map[string]model.Video
	summaries  map[string]model.Summary
	sentiments map[string][]model.Sentiment

	// FailNext, when set, makes the next ReplaceAnalysis return this error.
	FailNext error

	replaceCalls int
}

func NewMemStore() *MemStore {
	return &MemStore{
		videos:     make(map[string]model.Video),
		summaries:  make(map[string]model.Summary),
		sentiments: make(map[string][]model.Sentiment),
	}
}

func (m *MemStore) Ping(context.Context) error          { return nil }
func (m *MemStore) EnsureIndexes(context.Context) error { return nil }
func (m *MemStore) Close(context.Context) error         { return nil }

// ReplaceCalls reports how many times ReplaceAnalysis ran.
func (m *MemStore) ReplaceCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaceCalls
}

func (m *MemStore) FindAnalysis(_ context.Context, videoID string) (*store.StoredAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	video, ok := m.videos[videoID]
	if !ok {
		return nil, store.ErrNotFound
	}
	summary, ok := m.summaries[videoID]
	if !ok {
		return nil, store.ErrNotFound
	}
	sentiments := append([]model.Sentiment{}, m.sentiments[videoID]...)
	return &store.StoredAnalysis{Video: video, Summary: summary, Sentiments: sentiments}, nil
}

func (m *MemStore) ReplaceAnalysis(_ context.Context, video *model.Video, summary *model.Summary, sentiments []model.Sentiment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceCalls++
	if m.FailNext != nil {
		err := m.FailNext
		m.FailNext = nil
		return err
	}
	m.videos[video.VideoID] = *video
	m.summaries[video.VideoID] = *summary
	m.sentiments[video.VideoID] = append([]model.Sentiment{}, sentiments...)
	return nil
}

// PutVideo inserts a video record alone, for staging the partial states a
// crashed or in-flight run leaves behind.
func (m *MemStore) PutVideo(video model.Video) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videos[video.VideoID] = video
}

func (m *MemStore) GetVideo(_ context.Context, videoID string) (*model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	video, ok := m.videos[videoID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &video, nil
}

func (m *MemStore) GetSummary(_ context.Context, videoID string) (*model.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary, ok := m.summaries[videoID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &summary, nil
}

func (m *MemStore) SentimentsFor(_ context.Context, videoID string) ([]model.Sentiment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]model.Sentiment{}, m.sentiments[videoID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

func (m *MemStore) ListVideos(_ context.Context, page, limit int64) ([]store.VideoListItem, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]store.VideoListItem, 0, len(m.videos))
	for _, v := range m.videos {
		items = append(items, store.VideoListItem{
			VideoID:      v.VideoID,
			Title:        v.Title,
			URL:          v.URL,
			SegmentCount: len(v.Transcript),
			CreatedAt:    v.CreatedAt,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	total := int64(len(items))
	start := (page - 1) * limit
	if start >= total {
		return []store.VideoListItem{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return items[start:end], total, nil
}

func (m *MemStore) DeleteAnalysis(_ context.Context, videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.videos[videoID]; !ok {
		return store.ErrNotFound
	}
	delete(m.videos, videoID)
	delete(m.summaries, videoID)
	delete(m.sentiments, videoID)
	return nil
}

func (m *MemStore) SearchText(_ context.Context, query string, limit int64) ([]model.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	query = strings.ToLower(query)
	results := []model.SearchResult{}
	for videoID, summary := range m.summaries {
		text := strings.ToLower(summary.SummaryShort + " " + summary.SummaryDetailed)
		if !strings.Contains(text, query) {
			continue
		}
		result := model.SearchResult{
			VideoID:      videoID,
			SummaryShort: summary.SummaryShort,
			Topics:       summary.Topics,
			CreatedAt:    summary.CreatedAt,
		}
		if video, ok := m.videos[videoID]; ok {
			result.Title = video.Title
			result.URL = video.URL
		}
		results = append(results, result)
		if int64(len(results)) >= limit {
			break
		}
	}
	return results, nil
}

func (m *MemStore) Stats(context.Context) (*store.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &store.Stats{
		TotalVideos:     int64(len(m.videos)),
		TotalSummaries:  int64(len(m.summaries)),
		SentimentCounts: map[model.SentimentLabel]int64{},
	}
	for _, sentiments := range m.sentiments {
		stats.TotalSentiments += int64(len(sentiments))
		for _, s := range sentiments {
			stats.SentimentCounts[s.Label]++
		}
	}
	return stats, nil
}
