package models

import "time"

// SubscriptionStatus состояние подписки в нашем реестре.
type SubscriptionStatus string

// Возможные состояния подписки. canceled конечное.
const (
	StatusIncomplete SubscriptionStatus = "incomplete"
	StatusActive     SubscriptionStatus = "active"
	StatusPastDue    SubscriptionStatus = "past_due"
	StatusCanceled   SubscriptionStatus = "canceled"
)

// Subscription запись о платной подписке пользователя,
// ключ идемпотентности StripeSubscriptionID.
type Subscription struct {
	ID                   string             `json:"id"`
	UserID               string             `json:"user_id"`
	StripeSubscriptionID string             `json:"stripe_subscription_id"`
	StripeCustomerID     string             `json:"stripe_customer_id"`
	Status               SubscriptionStatus `json:"status"`
	PriceID              string             `json:"price_id"`
	CurrentPeriodStart   *time.Time         `json:"current_period_start"`
	CurrentPeriodEnd     *time.Time         `json:"current_period_end"`
	ActivationNotified   bool               `json:"-"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}
