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

package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubenote/tubenote/internal/cloud"
)

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/live/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://example.com/watch?v=dQw4w9WgXcQ", "", true},
		{"https://www.youtube.com/watch", "", true},
		{"not a url at all", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ExtractVideoID(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseChapters(t *testing.T) {
	description := "A tour of the whole stack.\n" +
		"0:00 Intro\n" +
		"2:30 - The middle part\n" +
		"1:02:03 The deep dive\n" +
		"no timestamp on this line\n"

	chapters := ParseChapters(description)
	require.Len(t, chapters, 3)
	assert.Equal(t, "Intro", chapters[0].Title)
	assert.Equal(t, int64(0), chapters[0].Offset)
	assert.Equal(t, "The middle part", chapters[1].Title)
	assert.Equal(t, int64(150_000), chapters[1].Offset)
	assert.Equal(t, "The deep dive", chapters[2].Title)
	assert.Equal(t, int64(3_723_000), chapters[2].Offset)

	assert.Empty(t, ParseChapters("just prose, no markers"))
}

// newFakeYouTube stands up a test server that answers the player endpoint
// with the supplied payload and serves a fixed JSON3 caption track.
func newFakeYouTube(t *testing.T, player map[string]interface{}) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/youtubei/v1/player", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewEncoder(w).Encode(player))
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{
			"events": [
				{"tStartMs": 0, "dDurationMs": 500, "segs": [{"utf8": "Hello"}]},
				{"tStartMs": 250, "dDurationMs": 0},
				{"tStartMs": 500, "dDurationMs": 500, "segs": [{"utf8": "world"}]}
			]
		}`)
	})

	client := NewClient(&cloud.YouTubeConfig{MaxDurationSeconds: 3600, TimeoutSeconds: 5})
	client.baseURL = server.URL
	return server, client
}

func playablePayload(serverURL string) map[string]interface{} {
	return map[string]interface{}{
		"playabilityStatus": map[string]interface{}{"status": "OK"},
		"videoDetails": map[string]interface{}{
			"videoId":       "dQw4w9WgXcQ",
			"title":         "A test video",
			"lengthSeconds": "212",
			"channelId":     "UCtest",
			"shortDescription": "0:00 Intro\n1:30 Outro",
			"thumbnail": map[string]interface{}{
				"thumbnails": []map[string]interface{}{
					{"url": "https://i.ytimg.com/small.jpg", "width": 120, "height": 90},
					{"url": "https://i.ytimg.com/large.jpg", "width": 1280, "height": 720},
				},
			},
		},
		"microformat": map[string]interface{}{
			"playerMicroformatRenderer": map[string]interface{}{"uploadDate": "2024-06-01"},
		},
		"captions": map[string]interface{}{
			"playerCaptionsTracklistRenderer": map[string]interface{}{
				"captionTracks": []map[string]interface{}{
					{"baseUrl": serverURL + "/api/timedtext?v=dQw4w9WgXcQ", "languageCode": "en"},
				},
			},
		},
	}
}

func TestGetVideo(t *testing.T) {
	// The payload needs the server URL for the caption track, so wire the
	// handler up after the server exists.
	var payload map[string]interface{}
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	payload = playablePayload(server.URL)
	mux.HandleFunc("/youtubei/v1/player", func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(payload))
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"events": [
			{"tStartMs": 0, "dDurationMs": 500, "segs": [{"utf8": "Hello"}]},
			{"tStartMs": 500, "dDurationMs": 500, "segs": [{"utf8": "world"}]}
		]}`)
	})

	client := NewClient(&cloud.YouTubeConfig{MaxDurationSeconds: 3600, TimeoutSeconds: 5})
	client.baseURL = server.URL

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	video, err := client.GetVideo(ctx, "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)

	assert.Equal(t, "dQw4w9WgXcQ", video.VideoID)
	assert.Equal(t, "A test video", video.Title)
	assert.Equal(t, "https://i.ytimg.com/large.jpg", video.Thumbnail)
	assert.Equal(t, 212, video.DurationSeconds)
	assert.Equal(t, "2024-06-01", video.UploadDate)
	assert.Len(t, video.Chapters, 2)
	require.Len(t, video.Transcript, 2)
	assert.Equal(t, "Hello", video.Transcript[0].Text)
	assert.Equal(t, int64(500), video.Transcript[1].Offset)
}

func TestGetVideoRejectsLiveStream(t *testing.T) {
	payload := map[string]interface{}{
		"playabilityStatus": map[string]interface{}{"status": "OK"},
		"videoDetails": map[string]interface{}{
			"videoId":       "dQw4w9WgXcQ",
			"title":         "live now",
			"lengthSeconds": "0",
			"isLive":        true,
		},
	}
	_, client := newFakeYouTube(t, payload)

	_, err := client.GetVideo(context.Background(), "dQw4w9WgXcQ")
	assert.ErrorIs(t, err, ErrLiveStream)
}

func TestGetVideoRejectsOverDurationCap(t *testing.T) {
	payload := map[string]interface{}{
		"playabilityStatus": map[string]interface{}{"status": "OK"},
		"videoDetails": map[string]interface{}{
			"videoId":       "dQw4w9WgXcQ",
			"title":         "a very long lecture",
			"lengthSeconds": "7200",
		},
	}
	_, client := newFakeYouTube(t, payload)

	_, err := client.GetVideo(context.Background(), "dQw4w9WgXcQ")
	assert.ErrorIs(t, err, ErrTooLong)
}

func TestGetVideoRejectsMissingCaptions(t *testing.T) {
	payload := map[string]interface{}{
		"playabilityStatus": map[string]interface{}{"status": "OK"},
		"videoDetails": map[string]interface{}{
			"videoId":       "dQw4w9WgXcQ",
			"title":         "no captions here",
			"lengthSeconds": "100",
		},
	}
	_, client := newFakeYouTube(t, payload)

	_, err := client.GetVideo(context.Background(), "dQw4w9WgXcQ")
	assert.ErrorIs(t, err, ErrNoTranscript)
}

func TestGetVideoNotFound(t *testing.T) {
	payload := map[string]interface{}{
		"playabilityStatus": map[string]interface{}{"status": "ERROR", "reason": "Video unavailable"},
	}
	_, client := newFakeYouTube(t, payload)

	_, err := client.GetVideo(context.Background(), "dQw4w9WgXcQ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPreferredCaptionTrackSkipsAutoGenerated(t *testing.T) {
	var player playerResponse
	player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks = []captionTrack{
		{BaseURL: "asr-track", LanguageCode: "en", Kind: "asr"},
		{BaseURL: "manual-track", LanguageCode: "en"},
	}
	track := player.preferredCaptionTrack()
	require.NotNil(t, track)
	assert.Equal(t, "manual-track", track.BaseURL)
}
