package notifications

import "github.com/Lova-clover/DevHistory/internal/models"

// NotificationInterface defines the contract for report-ready delivery.
type NotificationInterface interface {
	ReportReady(user models.User, summary *models.WeeklySummary, report string) error
}
