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
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tubenote/tubenote/internal/core/model"
)

// NoteService persists the question/answer pairs a user keeps for a video.
// Notes live in an ordered list per (user, video): adds append at the end,
// removal by index compacts the positions that follow, so the stored order
// always matches what the user sees.
type NoteService struct {
	DB *sql.DB
	// RejectDuplicates refuses an add when the identical (question, answer)
	// pair already exists for the same user and video. Earlier builds of
	// the product allowed duplicates, so the policy stays configurable.
	RejectDuplicates bool
}

// Add appends a note for the (user, video) pair and returns the stored
// note. With RejectDuplicates set, an identical existing pair fails with
// ErrDuplicateNote.
func (s *NoteService) Add(ctx context.Context, userID, videoID string, qna model.QnA) (*model.Note, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if s.RejectDuplicates {
		var existing int
		err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM notes
			WHERE user_id = ? AND video_id = ? AND question = ? AND answer = ?`,
			userID, videoID, qna.Question, qna.Answer).Scan(&existing)
		if err != nil {
			return nil, fmt.Errorf("failed to check for duplicate note: %w", err)
		}
		if existing > 0 {
			return nil, ErrDuplicateNote
		}
	}

	var position int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notes WHERE user_id = ? AND video_id = ?`,
		userID, videoID).Scan(&position); err != nil {
		return nil, fmt.Errorf("failed to count notes: %w", err)
	}

	note := &model.Note{
		ID:        uuid.NewString(),
		UserID:    userID,
		VideoID:   videoID,
		Question:  qna.Question,
		Answer:    qna.Answer,
		Position:  position,
		CreatedAt: time.Now().UTC(),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO notes (id, user_id, video_id, question, answer, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		note.ID, note.UserID, note.VideoID, note.Question, note.Answer, note.Position, note.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert note: %w", err)
	}
	return note, tx.Commit()
}

// RemoveAt deletes the note at the given zero-based index in the user's
// list for the video and shifts the following notes down by one.
func (s *NoteService) RemoveAt(ctx context.Context, userID, videoID string, index int) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM notes WHERE user_id = ? AND video_id = ? AND position = ?`,
		userID, videoID, index)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNoteNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE notes SET position = position - 1
		WHERE user_id = ? AND video_id = ? AND position > ?`,
		userID, videoID, index); err != nil {
		return fmt.Errorf("failed to compact note positions: %w", err)
	}
	return tx.Commit()
}

// Remove deletes the note matching the exact (question, answer) pair. When
// duplicates exist (permissive policy), the earliest one goes.
func (s *NoteService) Remove(ctx context.Context, userID, videoID string, qna model.QnA) error {
	var position int
	err := s.DB.QueryRowContext(ctx, `
		SELECT position FROM notes
		WHERE user_id = ? AND video_id = ? AND question = ? AND answer = ?
		ORDER BY position LIMIT 1`,
		userID, videoID, qna.Question, qna.Answer).Scan(&position)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoteNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to locate note: %w", err)
	}
	return s.RemoveAt(ctx, userID, videoID, position)
}

// List returns the user's notes for the video in list order. An empty list
// is data, not an error.
func (s *NoteService) List(ctx context.Context, userID, videoID string) ([]*model.Note, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, user_id, video_id, question, answer, position, created_at
		FROM notes WHERE user_id = ? AND video_id = ? ORDER BY position`,
		userID, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	notes := make([]*model.Note, 0)
	for rows.Next() {
		var note model.Note
		if err := rows.Scan(&note.ID, &note.UserID, &note.VideoID,
			&note.Question, &note.Answer, &note.Position, &note.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, &note)
	}
	return notes, rows.Err()
}
