// Copyright 2025 TubeNote Authors
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

// Package youtube fetches video metadata and caption transcripts. It speaks
// to the public innertube player endpoint directly over HTTP and parses the
// JSON3 caption format, so it needs no API key.
//
// The client refuses, with distinct errors, anything the transcript
// pipelines cannot work with: live streams, videos over the configured
// duration cap, and videos without captions.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/tubenote/tubenote/internal/cloud"
	"github.com/tubenote/tubenote/internal/core/model"
)

// Distinct fetch failures. Handlers map these onto specific user-facing
// messages; everything else is a generic upstream error.
var (
	ErrInvalidURL   = errors.New("youtube: could not extract a video id from the url")
	ErrNotFound     = errors.New("youtube: video not found or not playable")
	ErrLiveStream   = errors.New("youtube: live streams are not supported")
	ErrTooLong      = errors.New("youtube: video exceeds the duration cap")
	ErrNoTranscript = errors.New("youtube: video has no captions")
)

const (
	defaultBaseURL     = "https://www.youtube.com"
	defaultMaxDuration = time.Hour
	defaultTimeout     = 15 * time.Second

	// The android innertube client returns plain caption URLs without
	// throttling tokens.
	innertubeClientName    = "ANDROID"
	innertubeClientVersion = "19.09.37"
)

// Client fetches video metadata and transcripts.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxDuration time.Duration
}

// NewClient builds a Client from configuration. Zero values fall back to a
// one hour duration cap and a 15 second request timeout.
func NewClient(config *cloud.YouTubeConfig) *Client {
	maxDuration := defaultMaxDuration
	if config != nil && config.MaxDurationSeconds > 0 {
		maxDuration = time.Duration(config.MaxDurationSeconds) * time.Second
	}
	timeout := defaultTimeout
	if config != nil && config.TimeoutSeconds > 0 {
		timeout = time.Duration(config.TimeoutSeconds) * time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     defaultBaseURL,
		maxDuration: maxDuration,
	}
}

// GetVideo resolves idOrURL to a video id, fetches the player metadata, and
// downloads the caption track. The returned record carries title, thumbnail,
// duration, chapters parsed from the description, and the ordered transcript
// segments.
func (c *Client) GetVideo(ctx context.Context, idOrURL string) (*model.Video, error) {
	videoID, err := ExtractVideoID(idOrURL)
	if err != nil {
		return nil, err
	}

	player, err := c.fetchPlayerResponse(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if player.PlayabilityStatus.Status != "OK" {
		if player.PlayabilityStatus.Status == "LIVE_STREAM_OFFLINE" {
			return nil, ErrLiveStream
		}
		return nil, fmt.Errorf("%w: playability status %s", ErrNotFound, player.PlayabilityStatus.Status)
	}
	details := player.VideoDetails
	if details.IsLive || details.IsLiveContent {
		return nil, ErrLiveStream
	}

	lengthSeconds, _ := strconv.Atoi(details.LengthSeconds)
	if time.Duration(lengthSeconds)*time.Second > c.maxDuration {
		return nil, fmt.Errorf("%w: %ds > %s", ErrTooLong, lengthSeconds, c.maxDuration)
	}

	track := player.preferredCaptionTrack()
	if track == nil {
		return nil, ErrNoTranscript
	}
	segments, err := c.fetchTranscript(ctx, track.BaseURL)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, ErrNoTranscript
	}

	video := &model.Video{
		VideoID:         details.VideoID,
		URL:             fmt.Sprintf("https://www.youtube.com/watch?v=%s", details.VideoID),
		Title:           details.Title,
		ChannelID:       details.ChannelID,
		DurationSeconds: lengthSeconds,
		UploadDate:      player.Microformat.PlayerMicroformatRenderer.UploadDate,
		Chapters:        ParseChapters(details.ShortDescription),
		Transcript:      segments,
	}
	// The largest thumbnail is listed last.
	if thumbs := details.Thumbnail.Thumbnails; len(thumbs) > 0 {
		video.Thumbnail = thumbs[len(thumbs)-1].URL
	}
	return video, nil
}

// fetchPlayerResponse posts an innertube player request for the video id.
func (c *Client) fetchPlayerResponse(ctx context.Context, videoID string) (*playerResponse, error) {
	body, err := json.Marshal(map[string]interface{}{
		"context": map[string]interface{}{
			"client": map[string]interface{}{
				"clientName":        innertubeClientName,
				"clientVersion":     innertubeClientVersion,
				"androidSdkVersion": 30,
				"hl":                "en",
			},
		},
		"videoId": videoID,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/youtubei/v1/player", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube: player request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube: player request returned status %d", resp.StatusCode)
	}

	var player playerResponse
	if err := json.NewDecoder(resp.Body).Decode(&player); err != nil {
		return nil, fmt.Errorf("youtube: failed to decode player response: %w", err)
	}
	return &player, nil
}
