package notifications

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/gladosdev/glados-backend/pkg/db/models"
)

// Repository exposes email notification persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a notifications repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts one notification row.
func (r *Repository) Create(ctx context.Context, notification *models.EmailNotification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// ListUnsent returns up to limit pending notifications, oldest first.
func (r *Repository) ListUnsent(ctx context.Context, limit int) ([]models.EmailNotification, error) {
	var rows []models.EmailNotification
	if err := r.db.WithContext(ctx).
		Where("sent_at IS NULL").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkSent stamps the notification as handed to the mailer.
func (r *Repository) MarkSent(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.EmailNotification{}).
		Where("id = ?", id).
		UpdateColumn("sent_at", at).Error
}

// PurgeSentBefore removes sent notifications older than the cutoff and
// reports how many rows were dropped.
func (r *Repository) PurgeSentBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("sent_at IS NOT NULL AND sent_at < ?", cutoff).
		Delete(&models.EmailNotification{})
	return result.RowsAffected, result.Error
}
