package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/notes-app/internal/lib/apperr"
	"github.com/magabrotheeeer/notes-app/internal/models"
)

const userColumns = `id, email, COALESCE(name, ''), password_hash, role, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser сохраняет нового пользователя. Занятый email (без учета регистра): apperr.ErrConflict.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO users (email, name, password_hash, role)
			  VALUES ($1, NULLIF($2, ''), $3, $4)
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, user.Email, user.Name, user.PasswordHash, user.Role))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// GetUserByEmail ищет пользователя по email без учета регистра.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	const op = "storage.GetUserByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// GetUserRole возвращает текущую роль пользователя.
func (s *Storage) GetUserRole(ctx context.Context, userID string) (string, error) {
	const op = "storage.GetUserRole"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var role string
	if err := s.DB.QueryRowContext(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role); err != nil {
		return "", fmt.Errorf("%s: %w", op, mapError(err))
	}
	return role, nil
}

// SetUserRole меняет роль пользователя. Понижение последнего администратора
// запрещено (apperr.ErrConflict): строки администраторов блокируются на время транзакции.
func (s *Storage) SetUserRole(ctx context.Context, userID, role string) (*models.User, error) {
	const op = "storage.SetUserRole"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var updated *models.User
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := guardLastAdmin(ctx, tx, userID, role == models.RoleAdmin); err != nil {
			return err
		}
		query := `UPDATE users SET role = $2, updated_at = now()
				  WHERE id = $1
				  RETURNING ` + userColumns
		u, err := scanUser(tx.QueryRowContext(ctx, query, userID, role))
		if err != nil {
			return mapError(err)
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// DeleteUser удаляет пользователя вместе с его заметками и подписками.
func (s *Storage) DeleteUser(ctx context.Context, userID string) error {
	const op = "storage.DeleteUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := guardLastAdmin(ctx, tx, userID, false); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
		if err != nil {
			return mapError(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return mapError(err)
		}
		if n == 0 {
			return apperr.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// guardLastAdmin блокирует строки администраторов и запрещает оставить систему без них.
// staysAdmin: останется ли userID администратором после операции.
func guardLastAdmin(ctx context.Context, tx *sql.Tx, userID string, staysAdmin bool) error {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM users WHERE role = 'admin' ORDER BY id FOR UPDATE`)
	if err != nil {
		return mapError(err)
	}
	defer func() {
		_ = rows.Close()
	}()

	admins := 0
	targetIsAdmin := false
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return mapError(err)
		}
		admins++
		if id == userID {
			targetIsAdmin = true
		}
	}
	if err = rows.Err(); err != nil {
		return mapError(err)
	}

	if targetIsAdmin && !staysAdmin && admins == 1 {
		return fmt.Errorf("%w: last admin cannot be removed", apperr.ErrConflict)
	}
	return nil
}

func (s *Storage) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err)
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return mapError(err)
	}
	return nil
}
