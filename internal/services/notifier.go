package services

import (
	"context"

	"trusthaven/internal/models"
)

// MultiNotifier fans a notification out to every channel in order.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, userID string, n models.Notification) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(ctx, userID, n)
		}
	}
}
