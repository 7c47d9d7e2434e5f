package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/notes-app/internal/models"
)

const subscriptionColumns = `id, user_id, stripe_subscription_id, stripe_customer_id, status, price_id,
	current_period_start, current_period_end, activation_notified, created_at, updated_at`

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	sub := &models.Subscription{}
	var start, end sql.NullTime
	if err := row.Scan(&sub.ID, &sub.UserID, &sub.StripeSubscriptionID, &sub.StripeCustomerID,
		&sub.Status, &sub.PriceID, &start, &end, &sub.ActivationNotified,
		&sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	sub.CurrentPeriodStart = nullTime(start)
	sub.CurrentPeriodEnd = nullTime(end)
	return sub, nil
}

// UpsertSubscription создает или обновляет подписку по stripe_subscription_id.
// Владелец существующей строки не меняется. Отмененная подписка не выходит из
// состояния canceled: в этом случае возвращается строка без изменений.
func (s *Storage) UpsertSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.UpsertSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO subscriptions (user_id, stripe_subscription_id, stripe_customer_id, status,
			      price_id, current_period_start, current_period_end)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  ON CONFLICT (stripe_subscription_id) DO UPDATE SET
			      stripe_customer_id = EXCLUDED.stripe_customer_id,
			      status = EXCLUDED.status,
			      price_id = COALESCE(NULLIF(EXCLUDED.price_id, ''), subscriptions.price_id),
			      current_period_start = COALESCE(EXCLUDED.current_period_start, subscriptions.current_period_start),
			      current_period_end = COALESCE(EXCLUDED.current_period_end, subscriptions.current_period_end),
			      updated_at = now()
			  WHERE subscriptions.status <> 'canceled'
			  RETURNING ` + subscriptionColumns
	saved, err := scanSubscription(s.DB.QueryRowContext(ctx, query,
		sub.UserID, sub.StripeSubscriptionID, sub.StripeCustomerID, sub.Status,
		sub.PriceID, sub.CurrentPeriodStart, sub.CurrentPeriodEnd))
	if errors.Is(err, sql.ErrNoRows) {
		// конфликт со строкой в конечном состоянии
		saved, err = scanSubscription(s.DB.QueryRowContext(ctx,
			`SELECT `+subscriptionColumns+` FROM subscriptions WHERE stripe_subscription_id = $1`,
			sub.StripeSubscriptionID))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return saved, nil
}

// GetSubscriptionByStripeID возвращает подписку по идентификатору процессора.
func (s *Storage) GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error) {
	const op = "storage.GetSubscriptionByStripeID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE stripe_subscription_id = $1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, stripeSubscriptionID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return sub, nil
}

// GetLatestSubscription возвращает последнюю измененную подписку пользователя.
func (s *Storage) GetLatestSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	const op = "storage.GetLatestSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
			  WHERE user_id = $1
			  ORDER BY updated_at DESC
			  LIMIT 1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return sub, nil
}

// FindUserIDByCustomerID ищет владельца любой подписки с этим покупателем процессора.
func (s *Storage) FindUserIDByCustomerID(ctx context.Context, customerID string) (string, error) {
	const op = "storage.FindUserIDByCustomerID"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var userID string
	err := s.DB.QueryRowContext(ctx, `SELECT user_id FROM subscriptions
			  WHERE stripe_customer_id = $1
			  ORDER BY updated_at DESC
			  LIMIT 1`, customerID).Scan(&userID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapError(err))
	}
	return userID, nil
}

// ClaimActivationNotice атомарно отмечает, что письмо об активации отправлено.
// true получает ровно один вызывающий для активной подписки.
func (s *Storage) ClaimActivationNotice(ctx context.Context, subscriptionID string) (bool, error) {
	const op = "storage.ClaimActivationNotice"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.DB.ExecContext(ctx, `UPDATE subscriptions
			  SET activation_notified = true
			  WHERE id = $1 AND status = 'active' AND NOT activation_notified`, subscriptionID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return n == 1, nil
}
