// Package models содержит доменные структуры приложения: пользователей,
// заметки, подписки и уведомления. Структуры используются в бизнес‑логике
// и при работе с хранилищем.
package models

import "time"

// Роли пользователей.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"` // admin или user
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin сообщает, является ли пользователь администратором.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ValidRole проверяет, что роль входит в допустимый набор.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// UserStats строка административной выборки: профиль пользователя,
// последняя подписка и количество заметок.
type UserStats struct {
	User
	SubscriptionStatus *string    `json:"subscription_status"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end"`
	NoteCount          int        `json:"note_count"`
}
