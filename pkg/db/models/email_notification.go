package models

import (
	"time"

	"github.com/gladosdev/glados-backend/pkg/enums"
)

// EmailNotification is a pending email, written by the item rule engine and
// consumed asynchronously by the mailer.
type EmailNotification struct {
	ID           int64                    `gorm:"column:id;primaryKey;autoIncrement"`
	Reason       enums.NotificationReason `gorm:"column:reason;not null"`
	ReceiverID   int64                    `gorm:"column:receiver_id;not null"`
	BoughtItemID int64                    `gorm:"column:bought_item_id;not null"`
	Created      time.Time                `gorm:"column:created;autoCreateTime"`
	SentAt       *time.Time               `gorm:"column:sent_at"`

	Receiver   *User       `gorm:"foreignKey:ReceiverID"`
	BoughtItem *BoughtItem `gorm:"foreignKey:BoughtItemID"`
}

// TableName implements gorm's Tabler.
func (EmailNotification) TableName() string {
	return "email_notification_table"
}
