package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/notes-app/internal/lib/apperr"
	"github.com/magabrotheeeer/notes-app/internal/models"
)

const noteColumns = `id, user_id, title, content, is_favorite, created_at, updated_at`

func scanNote(row rowScanner) (*models.Note, error) {
	n := &models.Note{}
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.IsFavorite, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return n, nil
}

// CreateNote сохраняет заметку и возвращает её вместе с серверными полями.
func (s *Storage) CreateNote(ctx context.Context, note models.Note) (*models.Note, error) {
	const op = "storage.CreateNote"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO notes (user_id, title, content, is_favorite)
			  VALUES ($1, $2, $3, $4)
			  RETURNING ` + noteColumns
	n, err := scanNote(s.DB.QueryRowContext(ctx, query, note.UserID, note.Title, note.Content, note.IsFavorite))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return n, nil
}

// GetNote возвращает заметку по идентификатору без проверки владельца.
func (s *Storage) GetNote(ctx context.Context, noteID string) (*models.Note, error) {
	const op = "storage.GetNote"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1`
	n, err := scanNote(s.DB.QueryRowContext(ctx, query, noteID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return n, nil
}

// ListNotes возвращает заметки пользователя, последние измененные первыми.
func (s *Storage) ListNotes(ctx context.Context, userID string, filter models.NoteFilter) ([]*models.Note, error) {
	const op = "storage.ListNotes"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var sb strings.Builder
	sb.WriteString(`SELECT ` + noteColumns + ` FROM notes WHERE user_id = $1`)
	args := []any{userID}
	if filter.Search != "" {
		args = append(args, likePattern(filter.Search))
		fmt.Fprintf(&sb, ` AND (title ILIKE $%d OR content ILIKE $%d)`, len(args), len(args))
	}
	if filter.FavoriteOnly {
		sb.WriteString(` AND is_favorite`)
	}
	sb.WriteString(` ORDER BY updated_at DESC, id`)

	rows, err := s.DB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, mapError(err))
		}
		result = append(result, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return result, nil
}

// UpdateNote применяет патч к заметке владельца и обновляет updated_at.
// Чужая или отсутствующая заметка: apperr.ErrNotFound.
func (s *Storage) UpdateNote(ctx context.Context, userID, noteID string, patch models.NotePatch) (*models.Note, error) {
	const op = "storage.UpdateNote"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `UPDATE notes
			  SET title = COALESCE($3, title),
			      content = COALESCE($4, content),
			      is_favorite = COALESCE($5, is_favorite),
			      updated_at = clock_timestamp()
			  WHERE id = $1 AND user_id = $2
			  RETURNING ` + noteColumns
	n, err := scanNote(s.DB.QueryRowContext(ctx, query, noteID, userID, patch.Title, patch.Content, patch.IsFavorite))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return n, nil
}

// DeleteNote удаляет заметку владельца. Повторное удаление: apperr.ErrNotFound.
func (s *Storage) DeleteNote(ctx context.Context, userID, noteID string) error {
	const op = "storage.DeleteNote"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.DB.ExecContext(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, noteID, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return nil
}
