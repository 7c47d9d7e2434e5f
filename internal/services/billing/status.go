package services

import "github.com/magabrotheeeer/notes-app/internal/models"

// MapStatus переводит статус процессора в статус реестра.
// false для статусов, которые реестр не знает.
func MapStatus(providerStatus string) (models.SubscriptionStatus, bool) {
	switch providerStatus {
	case "active", "trialing":
		return models.StatusActive, true
	case "past_due", "unpaid", "paused":
		return models.StatusPastDue, true
	case "incomplete":
		return models.StatusIncomplete, true
	case "canceled", "incomplete_expired":
		return models.StatusCanceled, true
	default:
		return "", false
	}
}
