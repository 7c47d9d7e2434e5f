// Package repository реализует хранилище PostgreSQL для пользователей,
// заметок и подписок. Все запросы выполняются с таймаутом из конфига,
// ошибки драйвера приводятся к классам из apperr.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/notes-app/internal/config"
	"github.com/magabrotheeeer/notes-app/internal/lib/apperr"
)

// Storage инкапсулирует пул соединений с PostgreSQL.
type Storage struct {
	DB           *sql.DB
	queryTimeout time.Duration
}

// New открывает пул соединений и проверяет доступность базы.
func New(ctx context.Context, cfg config.Storage) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB:           db,
		queryTimeout: cfg.QueryTimeout,
	}, nil
}

// Ping проверяет соединение с базой.
func (s *Storage) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.DB.PingContext(ctx)
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

func (s *Storage) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

// mapError переводит ошибки database/sql и pgx в классы apperr.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %s", apperr.ErrConflict, pgErr.ConstraintName)
		case pgerrcode.InvalidTextRepresentation, pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%w: %s", apperr.ErrNotFound, pgErr.Message)
		case pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
			return fmt.Errorf("%w: %s", apperr.ErrValidation, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%w: %w", apperr.ErrUpstream, err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern строит шаблон ILIKE для поиска подстроки, экранируя спецсимволы.
func likePattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
