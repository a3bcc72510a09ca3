package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/gladosdev/glados-backend/pkg/db/models"
	"github.com/gladosdev/glados-backend/pkg/enums"
	pkgerrors "github.com/gladosdev/glados-backend/pkg/errors"
)

// Service is the notification sink. The item rule engine only enqueues; the
// mailer worker consumes and the cron job purges.
type Service interface {
	Enqueue(ctx context.Context, reason enums.NotificationReason, receiverID, itemID int64) error
	ListUnsent(ctx context.Context, limit int) ([]models.EmailNotification, error)
	MarkSent(ctx context.Context, id int64) error
	PurgeOld(ctx context.Context, retention time.Duration) (int64, error)
}

type service struct {
	repo *Repository
	now  func() time.Time
}

// NewService wires the notification sink.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// Enqueue records a pending email notification.
func (s *service) Enqueue(ctx context.Context, reason enums.NotificationReason, receiverID, itemID int64) error {
	if !reason.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown notification reason %q", reason))
	}
	notification := &models.EmailNotification{
		Reason:       reason,
		ReceiverID:   receiverID,
		BoughtItemID: itemID,
		Created:      s.now().UTC(),
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "enqueue notification")
	}
	return nil
}

// ListUnsent returns the pending notifications, oldest first.
func (s *service) ListUnsent(ctx context.Context, limit int) ([]models.EmailNotification, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.repo.ListUnsent(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list notifications")
	}
	return rows, nil
}

// MarkSent stamps one notification as handed to the mailer.
func (s *service) MarkSent(ctx context.Context, id int64) error {
	if err := s.repo.MarkSent(ctx, id, s.now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark notification sent")
	}
	return nil
}

// PurgeOld drops sent notifications older than the retention window.
func (s *service) PurgeOld(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-retention)
	purged, err := s.repo.PurgeSentBefore(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "purge notifications")
	}
	return purged, nil
}
