// Package services содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/notes-app/internal/cache"
	"github.com/magabrotheeeer/notes-app/internal/lib/apperr"
	"github.com/magabrotheeeer/notes-app/internal/lib/jwt"
	"github.com/magabrotheeeer/notes-app/internal/lib/password"
	"github.com/magabrotheeeer/notes-app/internal/lib/sl"
	"github.com/magabrotheeeer/notes-app/internal/models"
)

// bcrypt не принимает пароли длиннее 72 байт
const maxPasswordBytes = 72

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя, занятый email дает apperr.ErrConflict.
	CreateUser(ctx context.Context, user models.User) (*models.User, error)

	// GetUserByEmail ищет пользователя по email без учета регистра.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserRole возвращает текущую роль пользователя.
	GetUserRole(ctx context.Context, userID string) (string, error)
}

// RoleCache кэш ролей. Заполнение пропускается, если роль сменили после снимка версий.
type RoleCache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Versions(ctx context.Context, keys ...string) (cache.Snapshot, error)
	SetIfUnchanged(ctx context.Context, key string, value any, expiration time.Duration, seen cache.Snapshot, groups ...string) (bool, error)
}

// Notifier публикует уведомления пользователю.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

// AuthService отвечает за регистрацию, вход и проверку сессий.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	roles    RoleCache
	roleTTL  time.Duration
	notifier Notifier
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(log *slog.Logger, users UserRepository, jwtMaker jwt.Maker, roles RoleCache,
	roleTTL time.Duration, notifier Notifier) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		roles:    roles,
		roleTTL:  roleTTL,
		notifier: notifier,
		log:      log,
	}
}

// Register создает пользователя с ролью "user" и отправляет приветственное письмо.
func (s *AuthService) Register(ctx context.Context, name, email, rawPassword string) (*models.User, error) {
	const op = "services.auth.Register"
	email = strings.TrimSpace(email)
	if email == "" || rawPassword == "" {
		return nil, fmt.Errorf("%s: %w: email and password are required", op, apperr.ErrValidation)
	}
	if len(rawPassword) > maxPasswordBytes {
		return nil, fmt.Errorf("%s: %w: password is too long", op, apperr.ErrValidation)
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.users.CreateUser(ctx, models.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hashed,
		Role:         models.RoleUser,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.notifier.Notify(ctx, models.Notification{
		Kind:  models.NotificationWelcome,
		Email: user.Email,
		Name:  user.Name,
	})
	return user, nil
}

// Login проверяет пароль и выдает токен сессии.
// Неизвестный email и неверный пароль неразличимы для вызывающего.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	const op = "services.auth.Login"
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return "", nil, fmt.Errorf("%s: %w: invalid credentials", op, apperr.ErrUnauthenticated)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, fmt.Errorf("%s: %w: invalid credentials", op, apperr.ErrUnauthenticated)
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

// ParseToken проверяет токен сессии.
func (s *AuthService) ParseToken(token string) (*jwt.CustomClaims, error) {
	return s.jwtMaker.ParseToken(token)
}

// CurrentRole возвращает роль пользователя из хранилища. Роль в токене
// может устареть, поэтому admin-маршруты проверяют ее здесь.
// Значение кэшируется на roleTTL, ошибки кэша не прерывают запрос.
func (s *AuthService) CurrentRole(ctx context.Context, userID string) (string, error) {
	const op = "services.auth.CurrentRole"
	log := s.log.With(slog.String("op", op), sl.UserID(userID))

	var role string
	found, err := s.roles.Get(ctx, cache.RoleKey(userID), &role)
	if err != nil {
		log.Warn("role cache read failed", sl.Err(err))
	}
	if found {
		return role, nil
	}

	seen, verErr := s.roles.Versions(ctx, cache.RoleKey(userID))
	if verErr != nil {
		log.Warn("role cache versions read failed", sl.Err(verErr))
	}
	role, err = s.users.GetUserRole(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if verErr == nil {
		if _, err := s.roles.SetIfUnchanged(ctx, cache.RoleKey(userID), role, s.roleTTL, seen); err != nil {
			log.Warn("role cache write failed", sl.Err(err))
		}
	}
	return role, nil
}
