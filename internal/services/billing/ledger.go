// Package services ведет реестр платных подписок по событиям процессора
// и создает сессии оплаты.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/notes-app/internal/lib/apperr"
	"github.com/magabrotheeeer/notes-app/internal/lib/sl"
	"github.com/magabrotheeeer/notes-app/internal/models"
	"github.com/magabrotheeeer/notes-app/internal/paymentprovider"
)

// SubscriptionRepository хранилище подписок и пользователей для реестра.
type SubscriptionRepository interface {
	UpsertSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error)
	GetLatestSubscription(ctx context.Context, userID string) (*models.Subscription, error)
	FindUserIDByCustomerID(ctx context.Context, customerID string) (string, error)
	ClaimActivationNotice(ctx context.Context, subscriptionID string) (bool, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// Provider чтение состояния из процессора платежей.
type Provider interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*paymentprovider.Subscription, error)
	GetCustomerEmail(ctx context.Context, customerID string) (string, error)
}

// Notifier публикует уведомления пользователю.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

// Ledger применяет проверенные события процессора к таблице subscriptions.
// Повторная доставка события приводит к тому же состоянию.
type Ledger struct {
	repo     SubscriptionRepository
	provider Provider
	notifier Notifier
	log      *slog.Logger
}

// NewLedger создает Ledger.
func NewLedger(log *slog.Logger, repo SubscriptionRepository, provider Provider, notifier Notifier) *Ledger {
	return &Ledger{
		repo:     repo,
		provider: provider,
		notifier: notifier,
		log:      log,
	}
}

// HandleEvent применяет событие. nil означает, что событие можно подтвердить,
// в том числе когда оно проигнорировано. Ошибка означает, что процессор должен повторить доставку.
func (l *Ledger) HandleEvent(ctx context.Context, ev *paymentprovider.Event) error {
	const op = "services.billing.HandleEvent"
	log := l.log.With(slog.String("op", op), slog.String("event_id", ev.ID), slog.String("event_type", ev.Type))

	var err error
	switch ev.Type {
	case paymentprovider.EventCheckoutCompleted:
		if ev.Checkout == nil {
			log.Warn("checkout event without payload")
			return nil
		}
		err = l.handleCheckout(ctx, log, ev.Checkout)
	case paymentprovider.EventSubscriptionUpdated, paymentprovider.EventSubscriptionDeleted:
		if ev.Subscription == nil {
			log.Warn("subscription event without payload")
			return nil
		}
		err = l.handleSubscriptionChange(ctx, log, ev.Subscription, ev.Type == paymentprovider.EventSubscriptionDeleted)
	default:
		log.Debug("event type ignored")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CurrentSubscription последняя подписка пользователя, nil если подписок нет.
func (l *Ledger) CurrentSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	const op = "services.billing.CurrentSubscription"
	sub, err := l.repo.GetLatestSubscription(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

func (l *Ledger) handleCheckout(ctx context.Context, log *slog.Logger, c *paymentprovider.CheckoutSession) error {
	if c.Mode != "subscription" {
		log.Debug("checkout is not a subscription, ignored", slog.String("mode", c.Mode))
		return nil
	}
	if c.SubscriptionID == "" {
		log.Warn("subscription checkout without subscription id", slog.String("session_id", c.ID))
		return nil
	}

	userID, err := l.resolveCheckoutUser(ctx, c)
	if err != nil {
		return err
	}
	if userID == "" {
		log.Warn("checkout user not found, event dropped", slog.String("session_id", c.ID))
		return nil
	}

	sub, err := l.provider.GetSubscription(ctx, c.SubscriptionID)
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrUpstream, err)
	}
	status, ok := MapStatus(sub.Status)
	if !ok {
		log.Warn("unknown subscription status, event dropped", slog.String("status", sub.Status))
		return nil
	}
	if sub.CustomerID == "" {
		sub.CustomerID = c.CustomerID
	}
	existing, err := l.lookup(ctx, sub.ID)
	if err != nil {
		return err
	}
	return l.apply(ctx, log, userID, existing, sub, status)
}

func (l *Ledger) handleSubscriptionChange(ctx context.Context, log *slog.Logger, s *paymentprovider.Subscription, deleted bool) error {
	status, ok := MapStatus(s.Status)
	if deleted {
		status, ok = models.StatusCanceled, true
	}
	if !ok {
		log.Warn("unknown subscription status, event dropped", slog.String("status", s.Status))
		return nil
	}

	existing, err := l.lookup(ctx, s.ID)
	if err != nil {
		return err
	}
	var userID string
	if existing != nil {
		userID = existing.UserID
	} else {
		userID, err = l.resolveCustomerUser(ctx, s.CustomerID)
		if err != nil {
			return err
		}
	}
	if userID == "" {
		log.Warn("subscription owner not found, event dropped",
			slog.String("subscription_id", s.ID), slog.String("customer_id", s.CustomerID))
		return nil
	}
	return l.apply(ctx, log, userID, existing, s, status)
}

// apply сохраняет состояние подписки и один раз отправляет письмо об активации.
// existing текущая строка реестра или nil.
func (l *Ledger) apply(ctx context.Context, log *slog.Logger, userID string, existing *models.Subscription,
	s *paymentprovider.Subscription, status models.SubscriptionStatus) error {
	log = log.With(sl.UserID(userID), slog.String("subscription_id", s.ID))

	if existing != nil && existing.Status == models.StatusCanceled && status != models.StatusCanceled {
		log.Info("subscription is canceled, transition refused", slog.String("status", string(status)))
		return nil
	}

	saved, err := l.repo.UpsertSubscription(ctx, models.Subscription{
		UserID:               userID,
		StripeSubscriptionID: s.ID,
		StripeCustomerID:     s.CustomerID,
		Status:               status,
		PriceID:              s.PriceID,
		CurrentPeriodStart:   s.CurrentPeriodStart,
		CurrentPeriodEnd:     s.CurrentPeriodEnd,
	})
	if err != nil {
		return err
	}
	log.Info("subscription saved", slog.String("status", string(saved.Status)))

	if saved.Status != models.StatusActive || saved.ActivationNotified {
		return nil
	}
	user, err := l.repo.GetUserByID(ctx, saved.UserID)
	if err != nil {
		return err
	}
	claimed, err := l.repo.ClaimActivationNotice(ctx, saved.ID)
	if err != nil {
		return err
	}
	if claimed {
		l.notifier.Notify(ctx, models.Notification{
			Kind:  models.NotificationProUpgrade,
			Email: user.Email,
			Name:  user.Name,
		})
	}
	return nil
}

func (l *Ledger) lookup(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error) {
	sub, err := l.repo.GetSubscriptionByStripeID(ctx, stripeSubscriptionID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	return sub, err
}

// resolveCheckoutUser ищет пользователя по email сессии, затем по client_reference_id.
// Пустая строка без ошибки, если пользователь не найден.
func (l *Ledger) resolveCheckoutUser(ctx context.Context, c *paymentprovider.CheckoutSession) (string, error) {
	if email := strings.TrimSpace(c.CustomerEmail); email != "" {
		user, err := l.repo.GetUserByEmail(ctx, email)
		if err == nil {
			return user.ID, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return "", err
		}
	}

	if _, err := uuid.Parse(c.ClientReferenceID); err != nil {
		return "", nil
	}
	user, err := l.repo.GetUserByID(ctx, c.ClientReferenceID)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// resolveCustomerUser ищет владельца по другим подпискам покупателя,
// затем по email покупателя в процессоре.
func (l *Ledger) resolveCustomerUser(ctx context.Context, customerID string) (string, error) {
	if customerID == "" {
		return "", nil
	}
	userID, err := l.repo.FindUserIDByCustomerID(ctx, customerID)
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return "", err
	}

	email, err := l.provider.GetCustomerEmail(ctx, customerID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperr.ErrUpstream, err)
	}
	if email == "" {
		return "", nil
	}
	user, err := l.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return user.ID, nil
}
