package models

import "time"

// BoughtItemChange is one audit entry of an item's append-only change log.
// Ordering is the autoincrement id; rows are never updated or deleted.
type BoughtItemChange struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	BoughtItemID int64     `gorm:"column:bought_item_id;not null;index"`
	Entry        string    `gorm:"column:entry;not null"`
	Created      time.Time `gorm:"column:created;autoCreateTime"`
}

// TableName implements gorm's Tabler.
func (BoughtItemChange) TableName() string {
	return "bought_item_change_table"
}
