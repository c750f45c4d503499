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

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nishitbohra/vidsense/internal/core/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collVideos     = "videos"
	collSummaries  = "summaries"
	collSentiments = "sentiments"
)

// MongoStore implements Store on the official MongoDB driver.
type MongoStore struct {
	client     *mongo.Client
	database   *mongo.Database
	videos     *mongo.Collection
	summaries  *mongo.Collection
	sentiments *mongo.Collection
}

// NewMongoStore connects to MongoDB, retrying with exponential backoff so a
// service start can ride out a database that is still coming up. The context
// bounds the whole connect attempt, retries included.
func NewMongoStore(ctx context.Context, uri, databaseName string) (*MongoStore, error) {
	var client *mongo.Client

	operation := func() error {
		c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			return err
		}
		if err := c.Ping(ctx, nil); err != nil {
			_ = c.Disconnect(ctx)
			return err
		}
		client = c
		return nil
	}

	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	if err := backoff.RetryNotify(operation, policy, func(err error, next time.Duration) {
		slog.Warn("mongo connect failed, retrying", "error", err, "next_attempt_in", next)
	}); err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	database := client.Database(databaseName)
	return &MongoStore{
		client:     client,
		database:   database,
		videos:     database.Collection(collVideos),
		summaries:  database.Collection(collSummaries),
		sentiments: database.Collection(collSentiments),
	}, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the lookup, ordering, and text-search indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.videos.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "video_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "title", Value: "text"}},
		},
	})
	if err != nil {
		return fmt.Errorf("creating video indexes: %w", err)
	}

	_, err = s.summaries.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "video_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "summary_short", Value: "text"},
				{Key: "summary_detailed", Value: "text"},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating summary indexes: %w", err)
	}

	_, err = s.sentiments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "video_id", Value: 1},
			{Key: "timestamp", Value: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("creating sentiment indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) FindAnalysis(ctx context.Context, videoID string) (*StoredAnalysis, error) {
	video, err := s.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	summary, err := s.GetSummary(ctx, videoID)
	if err != nil {
		// A video without a summary is an in-flight or failed run,
		// never a cache hit.
		return nil, err
	}
	sentiments, err := s.SentimentsFor(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return &StoredAnalysis{Video: *video, Summary: *summary, Sentiments: sentiments}, nil
}

// ReplaceAnalysis swaps a video's records for the given set inside a server
// transaction so readers never observe a half-written analysis. Standalone
// deployments refuse transactions; those fall back to delete-then-insert,
// which leaves the same end state with a brief window where the records are
// absent.
func (s *MongoStore) ReplaceAnalysis(ctx context.Context, video *model.Video, summary *model.Summary, sentiments []model.Sentiment) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("starting mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, s.replaceAll(sc, video, summary, sentiments)
	})
	if err == nil {
		return nil
	}
	if !transactionsUnsupported(err) {
		return fmt.Errorf("replacing analysis for %s: %w", video.VideoID, err)
	}

	slog.Debug("transactions unsupported by deployment, using delete-then-insert",
		"video_id", video.VideoID)
	if err := s.replaceAll(ctx, video, summary, sentiments); err != nil {
		return fmt.Errorf("replacing analysis for %s: %w", video.VideoID, err)
	}
	return nil
}

func (s *MongoStore) replaceAll(ctx context.Context, video *model.Video, summary *model.Summary, sentiments []model.Sentiment) error {
	filter := bson.M{"video_id": video.VideoID}

	if _, err := s.sentiments.DeleteMany(ctx, filter); err != nil {
		return err
	}
	if _, err := s.summaries.DeleteOne(ctx, filter); err != nil {
		return err
	}
	if _, err := s.videos.DeleteOne(ctx, filter); err != nil {
		return err
	}

	if _, err := s.videos.InsertOne(ctx, video); err != nil {
		return err
	}
	if _, err := s.summaries.InsertOne(ctx, summary); err != nil {
		return err
	}
	if len(sentiments) > 0 {
		docs := make([]interface{}, 0, len(sentiments))
		for i := range sentiments {
			docs = append(docs, sentiments[i])
		}
		if _, err := s.sentiments.InsertMany(ctx, docs); err != nil {
			return err
		}
	}
	return nil
}

// transactionsUnsupported reports whether the error is the server telling us
// it cannot run multi-document transactions (standalone topology, code 20).
func transactionsUnsupported(err error) bool {
	var cmdErr mongo.CommandError
	return errors.As(err, &cmdErr) && cmdErr.Code == 20
}

func (s *MongoStore) GetVideo(ctx context.Context, videoID string) (*model.Video, error) {
	var video model.Video
	err := s.videos.FindOne(ctx, bson.M{"video_id": videoID}).Decode(&video)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching video %s: %w", videoID, err)
	}
	return &video, nil
}

func (s *MongoStore) GetSummary(ctx context.Context, videoID string) (*model.Summary, error) {
	var summary model.Summary
	err := s.summaries.FindOne(ctx, bson.M{"video_id": videoID}).Decode(&summary)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching summary for %s: %w", videoID, err)
	}
	return &summary, nil
}

func (s *MongoStore) SentimentsFor(ctx context.Context, videoID string) ([]model.Sentiment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := s.sentiments.Find(ctx, bson.M{"video_id": videoID}, opts)
	if err != nil {
		return nil, fmt.Errorf("fetching sentiments for %s: %w", videoID, err)
	}
	defer cursor.Close(ctx)

	sentiments := []model.Sentiment{}
	if err := cursor.All(ctx, &sentiments); err != nil {
		return nil, fmt.Errorf("decoding sentiments for %s: %w", videoID, err)
	}
	return sentiments, nil
}

func (s *MongoStore) ListVideos(ctx context.Context, page, limit int64) ([]VideoListItem, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	total, err := s.videos.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("counting videos: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cursor, err := s.videos.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("listing videos: %w", err)
	}
	defer cursor.Close(ctx)

	items := []VideoListItem{}
	for cursor.Next(ctx) {
		var video model.Video
		if err := cursor.Decode(&video); err != nil {
			return nil, 0, fmt.Errorf("decoding video: %w", err)
		}
		items = append(items, VideoListItem{
			VideoID:      video.VideoID,
			Title:        video.Title,
			URL:          video.URL,
			SegmentCount: len(video.Transcript),
			CreatedAt:    video.CreatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("listing videos: %w", err)
	}
	return items, total, nil
}

func (s *MongoStore) DeleteAnalysis(ctx context.Context, videoID string) error {
	filter := bson.M{"video_id": videoID}

	res, err := s.videos.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("deleting video %s: %w", videoID, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	if _, err := s.summaries.DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("deleting summary for %s: %w", videoID, err)
	}
	if _, err := s.sentiments.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("deleting sentiments for %s: %w", videoID, err)
	}
	return nil
}

// SearchText is the fallback search path: a Mongo $text query over summary
// bodies, joined back to the video for its title and URL. Scores come from
// textScore, so they are not comparable with the semantic path's cosine
// similarities.
func (s *MongoStore) SearchText(ctx context.Context, query string, limit int64) ([]model.SearchResult, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}

	opts := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetLimit(limit)
	cursor, err := s.summaries.Find(ctx, bson.M{"$text": bson.M{"$search": query}}, opts)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	defer cursor.Close(ctx)

	type scoredSummary struct {
		model.Summary `bson:",inline"`
		Score         float64 `bson:"score"`
	}

	results := []model.SearchResult{}
	for cursor.Next(ctx) {
		var hit scoredSummary
		if err := cursor.Decode(&hit); err != nil {
			return nil, fmt.Errorf("decoding search hit: %w", err)
		}

		result := model.SearchResult{
			VideoID:         hit.VideoID,
			SimilarityScore: hit.Score,
			SummaryShort:    hit.SummaryShort,
			Topics:          hit.Topics,
			CreatedAt:       hit.CreatedAt,
		}
		if video, err := s.GetVideo(ctx, hit.VideoID); err == nil {
			result.Title = video.Title
			result.URL = video.URL
		}
		results = append(results, result)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	return results, nil
}

func (s *MongoStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{SentimentCounts: map[model.SentimentLabel]int64{}}

	var err error
	if stats.TotalVideos, err = s.videos.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, fmt.Errorf("counting videos: %w", err)
	}
	if stats.TotalSummaries, err = s.summaries.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, fmt.Errorf("counting summaries: %w", err)
	}
	if stats.TotalSentiments, err = s.sentiments.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, fmt.Errorf("counting sentiments: %w", err)
	}

	cursor, err := s.sentiments.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$sentiment_label",
			"count": bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("aggregating sentiment counts: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row struct {
			Label model.SentimentLabel `bson:"_id"`
			Count int64                `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("decoding sentiment counts: %w", err)
		}
		stats.SentimentCounts[row.Label] = row.Count
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("aggregating sentiment counts: %w", err)
	}
	return stats, nil
}
