package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/gladosdev/glados-backend/pkg/logger"
)

const defaultNotificationRetention = 30 * 24 * time.Hour

// notificationPurger is the slice of the notifications service the job needs.
type notificationPurger interface {
	PurgeOld(ctx context.Context, retention time.Duration) (int64, error)
}

type NotificationCleanupJobParams struct {
	Logger        *logger.Logger
	Notifications notificationPurger
	Retention     time.Duration
}

// NewNotificationCleanupJob builds the job that drops sent notification rows
// older than the retention window.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultNotificationRetention
	}
	return &notificationCleanupJob{
		logg:          params.Logger,
		notifications: params.Notifications,
		retention:     retention,
	}, nil
}

type notificationCleanupJob struct {
	logg          *logger.Logger
	notifications notificationPurger
	retention     time.Duration
}

func (j *notificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *notificationCleanupJob) Run(ctx context.Context) error {
	deleted, err := j.notifications.PurgeOld(ctx, j.retention)
	if err != nil {
		return fmt.Errorf("notification cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"retention":    j.retention.String(),
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "notification cleanup complete")
	return nil
}
