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

// Package services implements the persistence layer over sqlite: video
// records keyed by video id, and per-(user, video) notes. Writers race
// under last-write-wins semantics; there is no optimistic locking, matching
// the behavior of the managed store this replaces.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Shared persistence errors.
var (
	ErrVideoNotFound = errors.New("services: video not found")
	ErrNoteNotFound  = errors.New("services: note not found")
	ErrDuplicateNote = errors.New("services: note already saved")
)

// schema is applied at startup. Chapters and transcript are stored as JSON
// blobs: they are only ever read and written whole, never queried into.
const schema = `
CREATE TABLE IF NOT EXISTS videos (
	video_id         TEXT PRIMARY KEY,
	url              TEXT NOT NULL,
	title            TEXT NOT NULL DEFAULT '',
	thumbnail        TEXT NOT NULL DEFAULT '',
	channel_id       TEXT NOT NULL DEFAULT '',
	duration_seconds INTEGER NOT NULL DEFAULT 0,
	upload_date      TEXT NOT NULL DEFAULT '',
	chapters         TEXT NOT NULL DEFAULT '[]',
	transcript       TEXT NOT NULL DEFAULT '[]',
	summary          TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS notes (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	video_id   TEXT NOT NULL,
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL,
	position   INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notes_user_video ON notes (user_id, video_id, position);
`

// InitSchema creates the tables when they do not exist yet. It is safe to
// call on every startup.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
