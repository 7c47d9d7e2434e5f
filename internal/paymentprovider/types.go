package paymentprovider

import (
	"errors"
	"time"
)

// Типы событий процессора, которые обрабатывает реестр подписок.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

var (
	// ErrInvalidSignature подпись вебхука не прошла проверку.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrMalformedEvent подпись верна, но тело события не разбирается.
	ErrMalformedEvent = errors.New("malformed webhook event")
)

// Event проверенное событие процессора. Заполнено только поле,
// соответствующее типу события.
type Event struct {
	ID           string
	Type         string
	Checkout     *CheckoutSession
	Subscription *Subscription
}

// CheckoutSession завершенная сессия оплаты.
type CheckoutSession struct {
	ID                string
	Mode              string
	SubscriptionID    string
	CustomerID        string
	CustomerEmail     string
	ClientReferenceID string
}

// Subscription состояние подписки на стороне процессора.
// Status: статус процессора без преобразования.
type Subscription struct {
	ID                 string
	CustomerID         string
	Status             string
	PriceID            string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
}

// CheckoutParams параметры новой сессии оплаты.
type CheckoutParams struct {
	CustomerEmail     string
	ClientReferenceID string
	PriceID           string
	SuccessURL        string
	CancelURL         string
}

// CheckoutResult созданная сессия оплаты.
type CheckoutResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}
