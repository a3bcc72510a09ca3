package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gladosdev/glados-backend/pkg/logger"
)

type fakePurger struct {
	retention time.Duration
	rows      int64
	err       error
	calls     int
}

func (f *fakePurger) PurgeOld(_ context.Context, retention time.Duration) (int64, error) {
	f.calls++
	f.retention = retention
	return f.rows, f.err
}

func TestNotificationCleanupJobPurgesWithConfiguredRetention(t *testing.T) {
	purger := &fakePurger{rows: 42}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:        logger.New(logger.Options{ServiceName: "test"}),
		Notifications: purger,
		Retention:     48 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewNotificationCleanupJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if purger.calls != 1 {
		t.Fatalf("expected one purge call, got %d", purger.calls)
	}
	if purger.retention != 48*time.Hour {
		t.Fatalf("unexpected retention %s", purger.retention)
	}
}

func TestNotificationCleanupJobDefaultsRetention(t *testing.T) {
	purger := &fakePurger{}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:        logger.New(logger.Options{ServiceName: "test"}),
		Notifications: purger,
	})
	if err != nil {
		t.Fatalf("NewNotificationCleanupJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if purger.retention != defaultNotificationRetention {
		t.Fatalf("unexpected retention %s", purger.retention)
	}
}

func TestNotificationCleanupJobPropagatesErrors(t *testing.T) {
	purger := &fakePurger{err: errors.New("boom")}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:        logger.New(logger.Options{ServiceName: "test"}),
		Notifications: purger,
	})
	if err != nil {
		t.Fatalf("NewNotificationCleanupJob: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
