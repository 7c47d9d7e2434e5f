// Package paymentprovider обертка над Stripe: проверка подписи вебхуков,
// чтение подписок и покупателей, создание сессий оплаты.
package paymentprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/magabrotheeeer/notes-app/internal/config"
)

// Client клиент Stripe. Ключ хранится в экземпляре API, а не в глобальном stripe.Key.
type Client struct {
	api           *client.API
	webhookSecret string
}

// NewClient создаёт клиент Stripe. backends нужен тестам, в рабочем коде nil.
func NewClient(cfg config.Stripe, backends *stripe.Backends) *Client {
	return &Client{
		api:           client.New(cfg.SecretKey, backends),
		webhookSecret: cfg.WebhookSecret,
	}
}

// ParseEvent проверяет подпись вебхука и разбирает событие.
func (c *Client) ParseEvent(payload []byte, signature string) (*Event, error) {
	const op = "paymentprovider.ParseEvent"
	ev, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidSignature, err)
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil {
		return nil, fmt.Errorf("%s: %w: empty data", op, ErrMalformedEvent)
	}

	switch out.Type {
	case EventCheckoutCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrMalformedEvent, err)
		}
		out.Checkout = fromCheckoutSession(&session)
	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrMalformedEvent, err)
		}
		out.Subscription = fromSubscription(&sub)
	}
	return out, nil
}

// GetSubscription загружает актуальное состояние подписки.
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	const op = "paymentprovider.GetSubscription"
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := c.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return fromSubscription(sub), nil
}

// GetCustomerEmail возвращает email покупателя, пустую строку для удаленного покупателя.
func (c *Client) GetCustomerEmail(ctx context.Context, customerID string) (string, error) {
	const op = "paymentprovider.GetCustomerEmail"
	params := &stripe.CustomerParams{}
	params.Context = ctx
	cus, err := c.api.Customers.Get(customerID, params)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if cus.Deleted {
		return "", nil
	}
	return cus.Email, nil
}

// CreateCheckoutSession создает сессию оплаты подписки.
func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutResult, error) {
	const op = "paymentprovider.CreateCheckoutSession"
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		CustomerEmail:     stripe.String(p.CustomerEmail),
		ClientReferenceID: stripe.String(p.ClientReferenceID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}
	params.Context = ctx
	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &CheckoutResult{SessionID: s.ID, URL: s.URL}, nil
}

func fromCheckoutSession(s *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:                s.ID,
		Mode:              string(s.Mode),
		CustomerEmail:     s.CustomerEmail,
		ClientReferenceID: s.ClientReferenceID,
	}
	if out.CustomerEmail == "" && s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	if s.Subscription != nil {
		out.SubscriptionID = s.Subscription.ID
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	return out
}

func fromSubscription(s *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:                 s.ID,
		Status:             string(s.Status),
		CurrentPeriodStart: unixTime(s.CurrentPeriodStart),
		CurrentPeriodEnd:   unixTime(s.CurrentPeriodEnd),
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0].Price != nil {
		out.PriceID = s.Items.Data[0].Price.ID
	}
	return out
}

func unixTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
