// Package services реализует операции над заметками пользователя.
// Все операции ограничены заметками вызывающего пользователя.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/notes-app/internal/access"
	"github.com/magabrotheeeer/notes-app/internal/cache"
	"github.com/magabrotheeeer/notes-app/internal/lib/apperr"
	"github.com/magabrotheeeer/notes-app/internal/lib/sl"
	"github.com/magabrotheeeer/notes-app/internal/models"
)

// NoteRepository хранилище заметок.
type NoteRepository interface {
	CreateNote(ctx context.Context, note models.Note) (*models.Note, error)
	GetNote(ctx context.Context, noteID string) (*models.Note, error)
	ListNotes(ctx context.Context, userID string, filter models.NoteFilter) ([]*models.Note, error)
	UpdateNote(ctx context.Context, userID, noteID string, patch models.NotePatch) (*models.Note, error)
	DeleteNote(ctx context.Context, userID, noteID string) error
}

// NoteCache кэш отдельных заметок. Заполнение условное: запись пропускается,
// если заметку или заметки владельца инвалидировали после снимка версий.
type NoteCache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Versions(ctx context.Context, keys ...string) (cache.Snapshot, error)
	SetIfUnchanged(ctx context.Context, key string, value any, expiration time.Duration, seen cache.Snapshot, groups ...string) (bool, error)
	Invalidate(ctx context.Context, keys ...string) error
}

// OwnerAuthorizer проверяет владельца ресурса.
type OwnerAuthorizer interface {
	AuthorizeOwner(id access.Identity, ownerID string) error
}

// NotesService сервис заметок.
type NotesService struct {
	repo  NoteRepository
	cache NoteCache
	gate  OwnerAuthorizer
	ttl   time.Duration
	log   *slog.Logger
}

// NewNotesService создает NotesService.
func NewNotesService(log *slog.Logger, repo NoteRepository, cache NoteCache, gate OwnerAuthorizer, ttl time.Duration) *NotesService {
	return &NotesService{
		repo:  repo,
		cache: cache,
		gate:  gate,
		ttl:   ttl,
		log:   log,
	}
}

// List возвращает заметки пользователя, новые изменения первыми.
func (s *NotesService) List(ctx context.Context, userID string, filter models.NoteFilter) ([]*models.Note, error) {
	const op = "services.notes.List"
	filter.Search = strings.TrimSpace(filter.Search)
	notes, err := s.repo.ListNotes(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return notes, nil
}

// Get возвращает заметку, если она принадлежит пользователю.
// Чужая и несуществующая заметка дают одинаковый apperr.ErrNotFound.
func (s *NotesService) Get(ctx context.Context, id access.Identity, noteID string) (*models.Note, error) {
	const op = "services.notes.Get"
	if err := validateID(noteID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log := s.log.With(slog.String("op", op), sl.UserID(id.UserID))

	var note models.Note
	found, err := s.cache.Get(ctx, cache.NoteKey(noteID), &note)
	if err != nil {
		log.Warn("note cache read failed", sl.Err(err))
	}
	if found {
		if err := s.gate.AuthorizeOwner(id, note.UserID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &note, nil
	}

	group := cache.OwnerNotesGroup(id.UserID)
	seen, verErr := s.cache.Versions(ctx, cache.NoteKey(noteID), group)
	if verErr != nil {
		log.Warn("note cache versions read failed", sl.Err(verErr))
	}
	stored, err := s.repo.GetNote(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.gate.AuthorizeOwner(id, stored.UserID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if verErr == nil {
		if _, err := s.cache.SetIfUnchanged(ctx, cache.NoteKey(noteID), stored, s.ttl, seen, group); err != nil {
			log.Warn("note cache write failed", sl.Err(err))
		}
	}
	return stored, nil
}

// Create создает заметку. Заголовок из одних пробелов недопустим.
func (s *NotesService) Create(ctx context.Context, userID, title, content string) (*models.Note, error) {
	const op = "services.notes.Create"
	if err := validateTitle(title); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	note, err := s.repo.CreateNote(ctx, models.Note{
		UserID:  userID,
		Title:   title,
		Content: content,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return note, nil
}

// Update частично обновляет заметку, updated_at меняется всегда.
func (s *NotesService) Update(ctx context.Context, userID, noteID string, patch models.NotePatch) (*models.Note, error) {
	const op = "services.notes.Update"
	if err := validateID(noteID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	note, err := s.repo.UpdateNote(ctx, userID, noteID, patch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, op, noteID)
	return note, nil
}

// Delete удаляет заметку. Повторное удаление дает apperr.ErrNotFound.
func (s *NotesService) Delete(ctx context.Context, userID, noteID string) error {
	const op = "services.notes.Delete"
	if err := validateID(noteID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.DeleteNote(ctx, userID, noteID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, op, noteID)
	return nil
}

func (s *NotesService) invalidate(ctx context.Context, op, noteID string) {
	if err := s.cache.Invalidate(ctx, cache.NoteKey(noteID)); err != nil {
		s.log.Warn("note cache invalidation failed",
			slog.String("op", op), slog.String("note_id", noteID), sl.Err(err))
	}
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", apperr.ErrValidation)
	}
	return nil
}

// некорректный идентификатор неотличим от отсутствующей заметки
func validateID(noteID string) error {
	if _, err := uuid.Parse(noteID); err != nil {
		return fmt.Errorf("%w: malformed note id", apperr.ErrNotFound)
	}
	return nil
}
