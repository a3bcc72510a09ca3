package models

import "time"

// Project is a container of bought items. Soft-delete keeps the row and
// cascades a soft-delete to every contained item.
type Project struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Created          time.Time `gorm:"column:created;autoCreateTime"`
	Number           string    `gorm:"column:number;not null;uniqueIndex"`
	ProductNumber    *string   `gorm:"column:product_number"`
	Customer         string    `gorm:"column:customer;not null"`
	Description      string    `gorm:"column:description;not null;default:''"`
	DesignatedUserID int64     `gorm:"column:designated_user_id;not null"`
	IsActive         bool      `gorm:"column:is_active;not null;default:true"`
	Deleted          bool      `gorm:"column:deleted;not null;default:false"`

	DesignatedUser *User        `gorm:"foreignKey:DesignatedUserID"`
	BoughtItems    []BoughtItem `gorm:"foreignKey:ProjectID"`
}

// TableName implements gorm's Tabler.
func (Project) TableName() string {
	return "project_table"
}
