package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/notes-app/internal/access"
	"github.com/magabrotheeeer/notes-app/internal/lib/apperr"
	"github.com/magabrotheeeer/notes-app/internal/lib/sl"
	"github.com/magabrotheeeer/notes-app/internal/models"
	"github.com/magabrotheeeer/notes-app/internal/paymentprovider"
)

// CheckoutProvider создает сессии оплаты в процессоре.
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, p paymentprovider.CheckoutParams) (*paymentprovider.CheckoutResult, error)
}

// UserLookup чтение профиля пользователя.
type UserLookup interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// CheckoutService начинает оплату подписки для текущего пользователя.
type CheckoutService struct {
	provider       CheckoutProvider
	users          UserLookup
	defaultPriceID string
	successURL     string
	cancelURL      string
	log            *slog.Logger
}

// NewCheckoutService создает CheckoutService.
func NewCheckoutService(log *slog.Logger, provider CheckoutProvider, users UserLookup,
	defaultPriceID, successURL, cancelURL string) *CheckoutService {
	return &CheckoutService{
		provider:       provider,
		users:          users,
		defaultPriceID: defaultPriceID,
		successURL:     successURL,
		cancelURL:      cancelURL,
		log:            log,
	}
}

// Start создает сессию оплаты. Email пользователя и его id передаются
// процессору, по ним реестр найдет пользователя после оплаты.
func (s *CheckoutService) Start(ctx context.Context, id access.Identity, priceID string) (*paymentprovider.CheckoutResult, error) {
	const op = "services.billing.Start"
	priceID = strings.TrimSpace(priceID)
	if priceID == "" {
		priceID = s.defaultPriceID
	}
	if priceID == "" {
		return nil, fmt.Errorf("%s: %w: price_id is required", op, apperr.ErrValidation)
	}

	user, err := s.users.GetUserByID(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res, err := s.provider.CreateCheckoutSession(ctx, paymentprovider.CheckoutParams{
		CustomerEmail:     user.Email,
		ClientReferenceID: user.ID,
		PriceID:           priceID,
		SuccessURL:        s.successURL,
		CancelURL:         s.cancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, apperr.ErrUpstream, err)
	}
	s.log.Info("checkout session created",
		slog.String("op", op), sl.UserID(user.ID), slog.String("session_id", res.SessionID))
	return res, nil
}
