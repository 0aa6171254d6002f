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
	"net/url"
	"regexp"
	"strings"
)

// videoIDPattern is the canonical shape of a YouTube video id.
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ExtractVideoID resolves any of the common YouTube URL shapes (watch,
// youtu.be, embed, shorts, live) or a bare 11-character id to the video id.
// Anything else fails with ErrInvalidURL.
func ExtractVideoID(idOrURL string) (string, error) {
	in := strings.TrimSpace(idOrURL)
	if videoIDPattern.MatchString(in) {
		return in, nil
	}

	u, err := url.Parse(in)
	if err != nil {
		return "", ErrInvalidURL
	}

	var candidate string
	switch {
	case strings.HasSuffix(u.Host, "youtu.be"):
		candidate = strings.TrimPrefix(u.Path, "/")
	case strings.HasSuffix(u.Host, "youtube.com"), strings.HasSuffix(u.Host, "youtube-nocookie.com"):
		switch {
		case u.Path == "/watch":
			candidate = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/embed/"),
			strings.HasPrefix(u.Path, "/shorts/"),
			strings.HasPrefix(u.Path, "/live/"),
			strings.HasPrefix(u.Path, "/v/"):
			parts := strings.Split(strings.Trim(u.Path, "/"), "/")
			candidate = parts[len(parts)-1]
		}
	}

	if videoIDPattern.MatchString(candidate) {
		return candidate, nil
	}
	return "", ErrInvalidURL
}
