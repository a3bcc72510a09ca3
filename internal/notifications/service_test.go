package notifications

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gladosdev/glados-backend/pkg/db/models"
	"github.com/gladosdev/glados-backend/pkg/enums"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := gorm.Open(sqlite.Open("file:notif_"+name+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.EmailNotification{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

func TestEnqueueAndListUnsent(t *testing.T) {
	conn := openTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, svc.Enqueue(ctx, enums.NotificationReasonLate, 1, 10))
	require.NoError(t, svc.Enqueue(ctx, enums.NotificationReasonDelivered, 2, 20))

	pending, err := svc.ListUnsent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, enums.NotificationReasonLate, pending[0].Reason, "oldest first")

	require.NoError(t, svc.MarkSent(ctx, pending[0].ID))
	pending, err = svc.ListUnsent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, enums.NotificationReasonDelivered, pending[0].Reason)
}

func TestEnqueueUnknownReason(t *testing.T) {
	conn := openTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	err = svc.Enqueue(context.Background(), enums.NotificationReason("pigeon"), 1, 10)
	require.Error(t, err)
}

func TestPurgeOld(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	old := time.Now().UTC().Add(-48 * time.Hour)
	recent := time.Now().UTC()
	require.NoError(t, conn.Create(&models.EmailNotification{
		Reason: enums.NotificationReasonLate, ReceiverID: 1, BoughtItemID: 10, SentAt: &old,
	}).Error)
	require.NoError(t, conn.Create(&models.EmailNotification{
		Reason: enums.NotificationReasonLate, ReceiverID: 1, BoughtItemID: 11, SentAt: &recent,
	}).Error)
	require.NoError(t, conn.Create(&models.EmailNotification{
		Reason: enums.NotificationReasonLate, ReceiverID: 1, BoughtItemID: 12,
	}).Error)

	purged, err := svc.PurgeOld(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged, "only old sent rows are purged")

	var count int64
	require.NoError(t, conn.Model(&models.EmailNotification{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}
