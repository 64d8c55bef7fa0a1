package store

import (
	"context"
	"fmt"
)

// Note is a free-text scratchpad entry.
type Note struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ListNotes returns notes, most recently edited first.
func (s *Store) ListNotes(ctx context.Context) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, created_at, updated_at
		FROM notes
		ORDER BY updated_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	notes := make([]Note, 0)
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}

	return notes, nil
}

// CreateNote inserts a note and returns its id.
func (s *Store) CreateNote(ctx context.Context, title, content string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `INSERT INTO notes (title, content) VALUES (?, ?)`, title, content)
	if err != nil {
		return 0, fmt.Errorf("insert note: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read note id: %w", err)
	}
	return id, nil
}

// UpdateNote replaces the title and content of a note.
func (s *Store) UpdateNote(ctx context.Context, id int64, title, content string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notes
		SET title = ?, content = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, title, content, id)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	return requireAffected(result)
}

// DeleteNote removes a note.
func (s *Store) DeleteNote(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return requireAffected(result)
}
