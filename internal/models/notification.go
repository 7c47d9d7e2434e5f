package models

// Типы писем, которые отправляет notification-sender.
const (
	NotificationWelcome    = "welcome"
	NotificationProUpgrade = "pro_upgrade"
)

// Notification сообщение в очереди уведомлений.
type Notification struct {
	Kind  string `json:"kind"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
