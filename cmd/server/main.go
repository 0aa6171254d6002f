// Copyright 2025 TubeNote Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main is the entry point for the video note-taking backend.
//
// The server exposes a REST API over Gin: a signed-in user submits a video
// link, the caption track is fetched and summarized by a generative model,
// follow-up questions are answered from the transcript, and question-answer
// pairs can be saved as personal notes. The server is instrumented with
// OpenTelemetry for logging, tracing and metrics.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tubenote/tubenote/internal/core/model"
	"github.com/tubenote/tubenote/internal/core/services"
	"github.com/tubenote/tubenote/internal/core/transcript"
	"github.com/tubenote/tubenote/internal/core/workflow"
	"github.com/tubenote/tubenote/internal/telemetry"
	"github.com/tubenote/tubenote/internal/youtube"
)

func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()
	r.Use(otelgin.Middleware(config.Application.Name))
	r.Use(cors.Default())

	StatusRouter(r)

	apiV1 := r.Group("/api/v1")
	apiV1.Use(RequireUser())
	{
		VideoRouter(apiV1)
		NoteRouter(apiV1)
	}

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(config.Application.Port),
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 5 * time.Minute, // summarization of a long transcript is slow
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen", "error", err)
		}
	}()
	slog.Info("Server ready", "port", config.Application.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed", "error", err)
	}
	if err := shutdownTelemetry(context.Background()); err != nil {
		slog.Error("Telemetry Shutdown Failed", "error", err)
	}
	state.cloud.Close()

	log.Println("Server exiting")
}

// userIDKey is the gin context key the authenticated user id is stored
// under by RequireUser.
const userIDKey = "userID"

// RequireUser rejects any request without an X-User-ID header. Identity is
// asserted by the fronting auth proxy; this server only scopes data by it.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-ID header"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// statusForError maps the domain error taxonomy onto HTTP status codes.
// Anything unrecognized is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, youtube.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, youtube.ErrNotFound),
		errors.Is(err, services.ErrVideoNotFound),
		errors.Is(err, services.ErrNoteNotFound):
		return http.StatusNotFound
	case errors.Is(err, youtube.ErrLiveStream),
		errors.Is(err, youtube.ErrTooLong),
		errors.Is(err, youtube.ErrNoTranscript),
		errors.Is(err, workflow.ErrEmptyTranscript):
		return http.StatusUnprocessableEntity
	case errors.Is(err, workflow.ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrDuplicateNote):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes the mapped status and a JSON error body.
func abortWithError(c *gin.Context, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// pipelineStatus distinguishes caller mistakes from a failing model
// backend: validation errors keep their mapped status, everything else from
// a pipeline run is a bad gateway.
func pipelineStatus(err error) int {
	if errors.Is(err, workflow.ErrEmptyTranscript) || errors.Is(err, workflow.ErrEmptyQuestion) {
		return statusForError(err)
	}
	return http.StatusBadGateway
}

// VideoRouter sets up the routes for registering videos, reading them back,
// summarizing their transcripts and asking questions about them.
func VideoRouter(r *gin.RouterGroup) {
	videos := r.Group("/videos")
	{
		// POST /videos registers a video: the link is resolved, the caption
		// track fetched, and both are persisted. Re-posting a known video
		// refreshes its metadata but never rewrites the stored transcript.
		videos.POST("", func(c *gin.Context) {
			var req struct {
				URL string `json:"url" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
				return
			}

			video, err := state.youtubeClient.GetVideo(c.Request.Context(), req.URL)
			if err != nil {
				abortWithError(c, err)
				return
			}
			if err := state.videoService.Upsert(c.Request.Context(), video); err != nil {
				abortWithError(c, err)
				return
			}

			stored, err := state.videoService.Get(c.Request.Context(), video.VideoID)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusCreated, stored)
		})

		// GET /videos?count=<n> lists the most recently added videos.
		videos.GET("", func(c *gin.Context) {
			count, err := strconv.Atoi(c.DefaultQuery("count", "20"))
			if err != nil {
				count = 20
			}
			out, err := state.videoService.List(c.Request.Context(), count)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		// GET /videos/:id returns one video with its transcript and summary.
		videos.GET("/:id", func(c *gin.Context) {
			out, err := state.videoService.Get(c.Request.Context(), c.Param("id"))
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		// POST /videos/:id/summary runs the summarization pipeline over the
		// stored transcript and persists the result. Summarizing again
		// overwrites the previous summary.
		videos.POST("/:id/summary", func(c *gin.Context) {
			video, err := state.videoService.Get(c.Request.Context(), c.Param("id"))
			if err != nil {
				abortWithError(c, err)
				return
			}
			if !video.HasTranscript() {
				abortWithError(c, workflow.ErrEmptyTranscript)
				return
			}

			summary, err := state.summaryWorkflow.Summarize(c.Request.Context(), video.Transcript)
			if err != nil {
				c.AbortWithStatusJSON(pipelineStatus(err), gin.H{"error": err.Error()})
				return
			}
			if err := state.videoService.UpdateSummary(c.Request.Context(), video.VideoID, summary); err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"video_id": video.VideoID, "summary": summary})
		})

		// POST /videos/:id/answers answers a free-form question from the
		// stored transcript. Answers are not persisted; saving one is an
		// explicit note operation.
		videos.POST("/:id/answers", func(c *gin.Context) {
			var req struct {
				Question string `json:"question" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
				return
			}

			video, err := state.videoService.Get(c.Request.Context(), c.Param("id"))
			if err != nil {
				abortWithError(c, err)
				return
			}
			if !video.HasTranscript() {
				abortWithError(c, workflow.ErrEmptyTranscript)
				return
			}

			answer, err := state.answerWorkflow.Answer(c.Request.Context(), video.Transcript, req.Question)
			if err != nil {
				c.AbortWithStatusJSON(pipelineStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"video_id": video.VideoID,
				"question": req.Question,
				"answer":   answer,
			})
		})
	}

	// POST /summaries summarizes pasted transcript text directly, without
	// touching the video store. The text may be a raw timestamped dump; it
	// is normalized to prose first.
	r.POST("/summaries", func(c *gin.Context) {
		var req struct {
			Text string `json:"text" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
			return
		}

		text := transcript.NormalizeDump(req.Text)
		summary, err := state.summaryWorkflow.Summarize(c.Request.Context(),
			[]model.TranscriptSegment{{Text: text}})
		if err != nil {
			c.AbortWithStatusJSON(pipelineStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"summary": summary})
	})
}

// NoteRouter sets up the routes for the per-user, per-video note lists.
func NoteRouter(r *gin.RouterGroup) {
	notes := r.Group("/videos/:id/notes")
	{
		// GET lists the user's notes for the video in saved order.
		notes.GET("", func(c *gin.Context) {
			out, err := state.noteService.List(c.Request.Context(), c.GetString(userIDKey), c.Param("id"))
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		// POST appends a question-answer pair to the user's notes.
		notes.POST("", func(c *gin.Context) {
			var req struct {
				Question string `json:"question" binding:"required"`
				Answer   string `json:"answer" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "question and answer are required"})
				return
			}

			// Notes only attach to registered videos.
			if _, err := state.videoService.Get(c.Request.Context(), c.Param("id")); err != nil {
				abortWithError(c, err)
				return
			}

			note, err := state.noteService.Add(c.Request.Context(), c.GetString(userIDKey), c.Param("id"),
				model.QnA{Question: req.Question, Answer: req.Answer})
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusCreated, note)
		})

		// DELETE removes the note at the given position; later notes shift
		// down to keep positions dense.
		notes.DELETE("/:index", func(c *gin.Context) {
			index, err := strconv.Atoi(c.Param("index"))
			if err != nil || index < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "index must be a non-negative integer"})
				return
			}
			if err := state.noteService.RemoveAt(c.Request.Context(), c.GetString(userIDKey), c.Param("id"), index); err != nil {
				abortWithError(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		})
	}
}
