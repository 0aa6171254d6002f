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

package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tubenote/tubenote/internal/core/model"
)

// VideoService persists video records. Upserts are keyed by video id; the
// transcript column, once non-empty, is never overwritten so that every
// later summarization and question run works against the same text.
type VideoService struct {
	DB *sql.DB
}

// Upsert inserts or refreshes the record for video.VideoID. Metadata fields
// always take the new values; the stored transcript wins over the incoming
// one once it has content; the summary column is left untouched (it is
// owned by UpdateSummary).
func (s *VideoService) Upsert(ctx context.Context, video *model.Video) error {
	chapters, err := json.Marshal(video.Chapters)
	if err != nil {
		return fmt.Errorf("failed to encode chapters: %w", err)
	}
	transcript, err := json.Marshal(video.Transcript)
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO videos (video_id, url, title, thumbnail, channel_id, duration_seconds, upload_date, chapters, transcript)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (video_id) DO UPDATE SET
			url              = excluded.url,
			title            = excluded.title,
			thumbnail        = excluded.thumbnail,
			channel_id       = excluded.channel_id,
			duration_seconds = excluded.duration_seconds,
			upload_date      = excluded.upload_date,
			chapters         = excluded.chapters,
			transcript       = CASE WHEN length(videos.transcript) > 2
			                        THEN videos.transcript
			                        ELSE excluded.transcript END`,
		video.VideoID, video.URL, video.Title, video.Thumbnail, video.ChannelID,
		video.DurationSeconds, video.UploadDate, string(chapters), string(transcript))
	if err != nil {
		return fmt.Errorf("failed to upsert video %s: %w", video.VideoID, err)
	}
	return nil
}

// Get returns the record for videoID, or ErrVideoNotFound.
func (s *VideoService) Get(ctx context.Context, videoID string) (*model.Video, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT video_id, url, title, thumbnail, channel_id, duration_seconds,
		       upload_date, chapters, transcript, summary, created_at
		FROM videos WHERE video_id = ?`, videoID)
	return scanVideo(row)
}

// List returns the most recently added records, newest first.
func (s *VideoService) List(ctx context.Context, limit int) ([]*model.Video, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT video_id, url, title, thumbnail, channel_id, duration_seconds,
		       upload_date, chapters, transcript, summary, created_at
		FROM videos ORDER BY created_at DESC, video_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var videos []*model.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

// UpdateSummary overwrites the summary for an existing record. Recomputing
// a summary is allowed; the last writer wins.
func (s *VideoService) UpdateSummary(ctx context.Context, videoID, summary string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE videos SET summary = ? WHERE video_id = ?`, summary, videoID)
	if err != nil {
		return fmt.Errorf("failed to update summary for %s: %w", videoID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrVideoNotFound
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVideo(row rowScanner) (*model.Video, error) {
	var video model.Video
	var chapters, transcript string
	err := row.Scan(&video.VideoID, &video.URL, &video.Title, &video.Thumbnail,
		&video.ChannelID, &video.DurationSeconds, &video.UploadDate,
		&chapters, &transcript, &video.Summary, &video.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan video: %w", err)
	}
	if err := json.Unmarshal([]byte(chapters), &video.Chapters); err != nil {
		return nil, fmt.Errorf("failed to decode chapters: %w", err)
	}
	if err := json.Unmarshal([]byte(transcript), &video.Transcript); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %w", err)
	}
	return &video, nil
}
