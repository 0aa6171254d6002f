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
	"regexp"
	"strconv"
	"strings"

	"github.com/tubenote/tubenote/internal/core/model"
)

// playerResponse is the subset of the innertube player payload this client
// reads.
type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails struct {
		VideoID          string `json:"videoId"`
		Title            string `json:"title"`
		LengthSeconds    string `json:"lengthSeconds"`
		ChannelID        string `json:"channelId"`
		ShortDescription string `json:"shortDescription"`
		IsLiveContent    bool   `json:"isLiveContent"`
		IsLive           bool   `json:"isLive"`
		Thumbnail        struct {
			Thumbnails []struct {
				URL    string `json:"url"`
				Width  int    `json:"width"`
				Height int    `json:"height"`
			} `json:"thumbnails"`
		} `json:"thumbnail"`
	} `json:"videoDetails"`
	Microformat struct {
		PlayerMicroformatRenderer struct {
			UploadDate string `json:"uploadDate"`
		} `json:"playerMicroformatRenderer"`
	} `json:"microformat"`
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" for auto-generated tracks
}

// preferredCaptionTrack picks a manually authored track over an
// auto-generated one, and the first track otherwise. Nil when the video has
// no captions at all.
func (p *playerResponse) preferredCaptionTrack() *captionTrack {
	tracks := p.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil
	}
	for i := range tracks {
		if tracks[i].Kind != "asr" {
			return &tracks[i]
		}
	}
	return &tracks[0]
}

// timedTextResponse is the JSON3 caption payload: a list of timed events,
// each carrying one or more text runs.
type timedTextResponse struct {
	Events []struct {
		StartMs    int64 `json:"tStartMs"`
		DurationMs int64 `json:"dDurationMs"`
		Segs       []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// fetchTranscript downloads and parses a caption track in JSON3 format.
// Events without text (style markers, window definitions) are skipped;
// everything else becomes one TranscriptSegment in event order.
func (c *Client) fetchTranscript(ctx context.Context, baseURL string) ([]model.TranscriptSegment, error) {
	url := baseURL
	if !strings.Contains(url, "fmt=") {
		url += "&fmt=json3"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube: caption request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube: caption request returned status %d", resp.StatusCode)
	}

	var timedText timedTextResponse
	if err := json.NewDecoder(resp.Body).Decode(&timedText); err != nil {
		return nil, fmt.Errorf("youtube: failed to decode captions: %w", err)
	}

	segments := make([]model.TranscriptSegment, 0, len(timedText.Events))
	for _, event := range timedText.Events {
		if len(event.Segs) == 0 {
			continue
		}
		var b strings.Builder
		for _, seg := range event.Segs {
			b.WriteString(seg.UTF8)
		}
		text := strings.TrimSpace(strings.ReplaceAll(b.String(), "\n", " "))
		if text == "" {
			continue
		}
		segments = append(segments, model.TranscriptSegment{
			Text:     text,
			Offset:   event.StartMs,
			Duration: event.DurationMs,
		})
	}
	return segments, nil
}

// chapterLine matches description lines like "0:00 Intro" or
// "1:02:03 The deep dive".
var chapterLine = regexp.MustCompile(`^\s*(?:(\d{1,2}):)?(\d{1,2}):(\d{2})\s+[-–]?\s*(.+?)\s*$`)

// ParseChapters extracts uploader-defined chapters from a video
// description. A line qualifies when it starts with a timestamp followed by
// a title. Descriptions without such lines yield no chapters, which is the
// common case.
func ParseChapters(description string) []model.Chapter {
	var chapters []model.Chapter
	for _, line := range strings.Split(description, "\n") {
		m := chapterLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		var hours int
		if m[1] != "" {
			hours, _ = strconv.Atoi(m[1])
		}
		minutes, _ := strconv.Atoi(m[2])
		seconds, _ := strconv.Atoi(m[3])
		chapters = append(chapters, model.Chapter{
			Title:  m[4],
			Offset: int64(hours*3600+minutes*60+seconds) * 1000,
		})
	}
	return chapters
}
