// Package services реализует операции администратора над пользователями.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/notes-app/internal/cache"
	"github.com/magabrotheeeer/notes-app/internal/lib/apperr"
	"github.com/magabrotheeeer/notes-app/internal/lib/sl"
	"github.com/magabrotheeeer/notes-app/internal/models"
)

// UserRepository хранилище пользователей для администрирования.
type UserRepository interface {
	ListUsersWithStats(ctx context.Context) ([]*models.UserStats, error)
	// SetUserRole меняет роль, снятие последнего администратора дает apperr.ErrConflict.
	SetUserRole(ctx context.Context, userID, role string) (*models.User, error)
	DeleteUser(ctx context.Context, userID string) error
}

// UserCache кэш ролей и заметок пользователя. Роль сбрасывается при смене,
// заметки удаленного пользователя сбрасываются всей группой.
type UserCache interface {
	Invalidate(ctx context.Context, keys ...string) error
	InvalidateGroup(ctx context.Context, group string) error
}

// AdminService сервис администратора.
type AdminService struct {
	repo  UserRepository
	cache UserCache
	log   *slog.Logger
}

// NewAdminService создает AdminService.
func NewAdminService(log *slog.Logger, repo UserRepository, userCache UserCache) *AdminService {
	return &AdminService{
		repo:  repo,
		cache: userCache,
		log:   log,
	}
}

// ListUsersWithStats возвращает всех пользователей со статусом подписки и числом заметок.
func (s *AdminService) ListUsersWithStats(ctx context.Context) ([]*models.UserStats, error) {
	const op = "services.admin.ListUsersWithStats"
	stats, err := s.repo.ListUsersWithStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}

// SetRole меняет роль пользователя.
func (s *AdminService) SetRole(ctx context.Context, adminID, targetID, role string) (*models.User, error) {
	const op = "services.admin.SetRole"
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("%s: %w: unknown role %q", op, apperr.ErrValidation, role)
	}
	if _, err := uuid.Parse(targetID); err != nil {
		return nil, fmt.Errorf("%s: %w: malformed user id", op, apperr.ErrNotFound)
	}

	user, err := s.repo.SetUserRole(ctx, targetID, role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.dropRole(ctx, op, targetID)
	s.log.Info("user role changed",
		slog.String("op", op), slog.String("admin_id", adminID), sl.UserID(targetID), slog.String("role", role))
	return user, nil
}

// DeleteUser удаляет пользователя вместе с его заметками и подписками.
// Удалить себя нельзя.
func (s *AdminService) DeleteUser(ctx context.Context, adminID, targetID string) error {
	const op = "services.admin.DeleteUser"
	if adminID == targetID {
		return fmt.Errorf("%s: %w: cannot delete yourself", op, apperr.ErrValidation)
	}
	if _, err := uuid.Parse(targetID); err != nil {
		return fmt.Errorf("%s: %w: malformed user id", op, apperr.ErrNotFound)
	}

	if err := s.repo.DeleteUser(ctx, targetID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.dropRole(ctx, op, targetID)
	if err := s.cache.InvalidateGroup(ctx, cache.OwnerNotesGroup(targetID)); err != nil {
		s.log.Warn("notes cache invalidation failed", slog.String("op", op), sl.UserID(targetID), sl.Err(err))
	}
	s.log.Info("user deleted", slog.String("op", op), slog.String("admin_id", adminID), sl.UserID(targetID))
	return nil
}

func (s *AdminService) dropRole(ctx context.Context, op, userID string) {
	if err := s.cache.Invalidate(ctx, cache.RoleKey(userID)); err != nil {
		s.log.Warn("role cache invalidation failed", slog.String("op", op), sl.UserID(userID), sl.Err(err))
	}
}
