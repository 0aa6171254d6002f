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

// This file defines the structs that map to database rows. The services
// package reads and writes these; everything else treats them as values.
package model

import "time"

// Video is the persistent record for a single video, keyed by VideoID.
// It is created on the first fetch of a given video id. The transcript,
// once saved, is immutable truth for all subsequent chunking, summarization
// and question answering against that id. The summary field is mutated in
// place when a summary is computed and may be overwritten on request.
type Video struct {
	VideoID         string              `json:"video_id"`
	URL             string              `json:"url"`
	Title           string              `json:"title"`
	Thumbnail       string              `json:"thumbnail"`
	ChannelID       string              `json:"channel_id,omitempty"`
	DurationSeconds int                 `json:"duration_seconds"`
	UploadDate      string              `json:"upload_date,omitempty"`
	Chapters        []Chapter           `json:"chapters,omitempty"`
	Transcript      []TranscriptSegment `json:"transcript"`
	Summary         string              `json:"summary,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

// HasTranscript reports whether the record carries at least one caption
// segment with text.
func (v *Video) HasTranscript() bool {
	for _, s := range v.Transcript {
		if s.Text != "" {
			return true
		}
	}
	return false
}

// Note is a persisted question/answer pair a user chose to keep for a
// specific video. No note exists outside its (UserID, VideoID) pairing.
// Position is the zero-based index the note occupies in the user's list for
// that video; removal compacts the positions of the notes that follow.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	VideoID   string    `json:"video_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}
