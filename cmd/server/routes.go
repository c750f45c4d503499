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

package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nishitbohra/vidsense/internal/core/model"
	verr "github.com/nishitbohra/vidsense/internal/errors"
	"github.com/nishitbohra/vidsense/internal/store"
)

// writeError renders the error envelope. Typed errors carry their own HTTP
// status; anything else is a 500 with no internals leaked.
func writeError(c *gin.Context, err error) {
	var appErr *verr.AppError
	if errors.As(err, &appErr) {
		body := gin.H{"error": string(appErr.Code), "message": appErr.Message}
		if appErr.Details != "" {
			body["details"] = appErr.Details
		}
		c.JSON(appErr.Status, body)
		return
	}
	slog.Error("unhandled error in request", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Internal Error",
		"message": "an unexpected error occurred",
	})
}

// AnalysisRouter sets up the analyze and status routes.
func AnalysisRouter(r *gin.RouterGroup) {
	analyze := r.Group("/analyze")
	{
		analyze.POST("", func(c *gin.Context) {
			var req struct {
				YoutubeURL string `json:"youtube_url" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				writeError(c, verr.NewValidation("youtube_url is required"))
				return
			}
			result, err := state.analysisService.Analyze(c.Request.Context(), req.YoutubeURL)
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, result)
		})

		analyze.GET("/status/:videoId", func(c *gin.Context) {
			report, err := state.analysisService.Status(c.Request.Context(), c.Param("videoId"))
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, report)
		})
	}
}

// SearchRouter sets up free-text and similar-video search.
func SearchRouter(r *gin.RouterGroup) {
	search := r.Group("/search")
	{
		search.POST("", func(c *gin.Context) {
			var req struct {
				Query string `json:"query" binding:"required"`
				Limit int64  `json:"limit"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				writeError(c, verr.NewValidation("query is required"))
				return
			}
			results, mode, err := state.searchService.Search(c.Request.Context(), req.Query, req.Limit)
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"results": results,
				"mode":    mode,
				"count":   len(results),
			})
		})

		search.GET("/similar/:videoId", func(c *gin.Context) {
			limit, err := strconv.ParseInt(c.DefaultQuery("limit", "5"), 10, 64)
			if err != nil {
				limit = 5
			}
			results, mode, err := state.searchService.Similar(c.Request.Context(), c.Param("videoId"), limit)
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"results": results,
				"mode":    mode,
				"count":   len(results),
			})
		})
	}
}

// VideoRouter sets up retrieval, listing, deletion, and stats over stored
// analysis data.
func VideoRouter(r *gin.RouterGroup) {
	videos := r.Group("/videos")
	{
		videos.GET("", func(c *gin.Context) {
			page, err := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
			if err != nil {
				page = 1
			}
			limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
			if err != nil {
				limit = 20
			}
			items, total, err := state.store.ListVideos(c.Request.Context(), page, limit)
			if err != nil {
				writeError(c, verr.NewPersistence("could not list videos", err))
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"videos": items,
				"total":  total,
				"page":   page,
				"limit":  limit,
			})
		})

		// The stats route is registered before the parameterized routes so
		// "stats" is never treated as a video ID.
		videos.GET("/stats/overview", func(c *gin.Context) {
			stats, err := state.store.Stats(c.Request.Context())
			if err != nil {
				writeError(c, verr.NewPersistence("could not aggregate stats", err))
				return
			}
			c.JSON(http.StatusOK, stats)
		})

		videos.GET("/:videoId", func(c *gin.Context) {
			videoID := c.Param("videoId")
			if !model.ValidVideoID(videoID) {
				writeError(c, verr.NewValidation("invalid video ID format"))
				return
			}
			video, err := state.store.GetVideo(c.Request.Context(), videoID)
			if errors.Is(err, store.ErrNotFound) {
				writeError(c, verr.NewNotFound(videoID))
				return
			}
			if err != nil {
				writeError(c, verr.NewPersistence("could not fetch video", err))
				return
			}
			c.JSON(http.StatusOK, video)
		})

		videos.GET("/:videoId/transcript", func(c *gin.Context) {
			videoID := c.Param("videoId")
			if !model.ValidVideoID(videoID) {
				writeError(c, verr.NewValidation("invalid video ID format"))
				return
			}
			video, err := state.store.GetVideo(c.Request.Context(), videoID)
			if errors.Is(err, store.ErrNotFound) {
				writeError(c, verr.NewNotFound(videoID))
				return
			}
			if err != nil {
				writeError(c, verr.NewPersistence("could not fetch video", err))
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"video_id":       video.VideoID,
				"title":          video.Title,
				"transcript":     video.Transcript,
				"total_duration": video.TotalDuration(),
			})
		})

		videos.GET("/:videoId/sentiment", func(c *gin.Context) {
			videoID := c.Param("videoId")
			if !model.ValidVideoID(videoID) {
				writeError(c, verr.NewValidation("invalid video ID format"))
				return
			}
			if _, err := state.store.GetVideo(c.Request.Context(), videoID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeError(c, verr.NewNotFound(videoID))
				} else {
					writeError(c, verr.NewPersistence("could not fetch video", err))
				}
				return
			}
			sentiments, err := state.store.SentimentsFor(c.Request.Context(), videoID)
			if err != nil {
				writeError(c, verr.NewPersistence("could not fetch sentiments", err))
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"video_id":           videoID,
				"sentiment_timeline": model.TimelinePoints(sentiments),
				"count":              len(sentiments),
			})
		})

		videos.DELETE("/:videoId", func(c *gin.Context) {
			videoID := c.Param("videoId")
			if !model.ValidVideoID(videoID) {
				writeError(c, verr.NewValidation("invalid video ID format"))
				return
			}
			err := state.store.DeleteAnalysis(c.Request.Context(), videoID)
			if errors.Is(err, store.ErrNotFound) {
				writeError(c, verr.NewNotFound(videoID))
				return
			}
			if err != nil {
				writeError(c, verr.NewPersistence("could not delete analysis", err))
				return
			}
			c.JSON(http.StatusOK, gin.H{"deleted": true, "video_id": videoID})
		})
	}
}

// HealthRouter sets up the liveness endpoint: the process is up, the store
// answers a ping, and the Python interpreter is runnable.
func HealthRouter(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		overall := "healthy"
		mongoStatus := "ok"
		if err := state.store.Ping(c.Request.Context()); err != nil {
			mongoStatus = "unreachable"
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}
		pythonStatus := "ok"
		if err := state.runner.CheckEnvironment(c.Request.Context()); err != nil {
			pythonStatus = "unavailable"
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}
		c.JSON(status, gin.H{
			"status": overall,
			"mongo":  mongoStatus,
			"python": pythonStatus,
		})
	})
}
