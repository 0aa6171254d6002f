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

// Package model defines the core data structures for the application.
// This file contains struct definitions for data that only lives in memory
// while a workflow executes. These objects are intermediate containers for
// transcript text as it is normalized, chunked, and passed between commands
// in a chain of responsibility; they are never written to the database in
// this form.
package model

// TranscriptSegment is one timed unit of spoken-text transcription as
// returned by the caption service. Segments arrive ordered, and insertion
// order is chronological order. Once fetched for a video they are treated
// as immutable.
type TranscriptSegment struct {
	// Text is the caption text spoken during this segment.
	Text string `json:"text"`
	// Offset is the start of the segment in milliseconds from the beginning
	// of the video.
	Offset int64 `json:"offset"`
	// Duration is the length of the segment in milliseconds.
	Duration int64 `json:"duration"`
}

// Chapter is a named position in a video, parsed from the uploader's
// description when present.
type Chapter struct {
	Title  string `json:"title"`
	Offset int64  `json:"offset"` // milliseconds from the start of the video
}

// QnA is a question and the answer the model produced for it. A QnA is
// transient until the user explicitly adds it to their notes, at which point
// it is persisted as a Note scoped to the (user, video) pair.
type QnA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
