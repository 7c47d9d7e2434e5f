package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/notes-app/internal/models"
)

// ListUsersWithStats возвращает всех пользователей с последней подпиской
// и количеством заметок, новые пользователи первыми.
func (s *Storage) ListUsersWithStats(ctx context.Context) ([]*models.UserStats, error) {
	const op = "storage.ListUsersWithStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT u.id, u.email, COALESCE(u.name, ''), u.role, u.created_at, u.updated_at,
			      sub.status, sub.current_period_end,
			      (SELECT COUNT(*) FROM notes n WHERE n.user_id = u.id) AS note_count
			  FROM users u
			  LEFT JOIN LATERAL (
			      SELECT s.status, s.current_period_end
			      FROM subscriptions s
			      WHERE s.user_id = u.id
			      ORDER BY s.updated_at DESC
			      LIMIT 1
			  ) sub ON true
			  ORDER BY u.created_at DESC, u.id`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.UserStats, 0)
	for rows.Next() {
		st := &models.UserStats{}
		var status sql.NullString
		var periodEnd sql.NullTime
		if err = rows.Scan(&st.ID, &st.Email, &st.Name, &st.Role, &st.CreatedAt, &st.UpdatedAt,
			&status, &periodEnd, &st.NoteCount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, mapError(err))
		}
		if status.Valid {
			st.SubscriptionStatus = &status.String
		}
		st.CurrentPeriodEnd = nullTime(periodEnd)
		result = append(result, st)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return result, nil
}
