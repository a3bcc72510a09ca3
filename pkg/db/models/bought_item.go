package models

import (
	"time"

	"github.com/gladosdev/glados-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// BoughtItem is the central procurement entity. Server-owned columns
// (status, actor references, transition dates, the change log) are only
// ever written by the rule engine; the remaining columns come from clients.
type BoughtItem struct {
	ID               int64                  `gorm:"column:id;primaryKey;autoIncrement"`
	Created          time.Time              `gorm:"column:created;autoCreateTime"`
	Changed          time.Time              `gorm:"column:changed"`
	Deleted          bool                   `gorm:"column:deleted;not null;default:false"`
	Status           enums.BoughtItemStatus `gorm:"column:status;not null;default:open"`
	HighPriority     bool                   `gorm:"column:high_priority;not null;default:false"`
	NotifyOnDelivery bool                   `gorm:"column:notify_on_delivery;not null;default:false"`

	ProjectID    int64           `gorm:"column:project_id;not null"`
	Quantity     decimal.Decimal `gorm:"column:quantity;type:numeric;not null"`
	Unit         enums.Unit      `gorm:"column:unit;not null;default:pcs"`
	Partnumber   string          `gorm:"column:partnumber;not null"`
	OrderNumber  string          `gorm:"column:order_number;not null"`
	Manufacturer string          `gorm:"column:manufacturer;not null"`
	Supplier     string          `gorm:"column:supplier;not null;default:''"`
	Group1       string          `gorm:"column:group_1;not null;default:''"`
	Weblink      string          `gorm:"column:weblink;not null;default:''"`
	NoteGeneral  string          `gorm:"column:note_general;not null;default:''"`
	NoteSupplier string          `gorm:"column:note_supplier;not null;default:''"`
	StoragePlace string          `gorm:"column:storage_place;not null;default:''"`

	DesiredDeliveryDate  *time.Time `gorm:"column:desired_delivery_date"`
	RequestedDate        *time.Time `gorm:"column:requested_date"`
	OrderedDate          *time.Time `gorm:"column:ordered_date"`
	ExpectedDeliveryDate *time.Time `gorm:"column:expected_delivery_date"`
	DeliveryDate         *time.Time `gorm:"column:delivery_date"`

	CreatorID   int64  `gorm:"column:creator_id;not null"`
	RequesterID *int64 `gorm:"column:requester_id"`
	OrdererID   *int64 `gorm:"column:orderer_id"`
	ReceiverID  *int64 `gorm:"column:receiver_id"`

	Project   *Project           `gorm:"foreignKey:ProjectID"`
	Creator   *User              `gorm:"foreignKey:CreatorID"`
	Requester *User              `gorm:"foreignKey:RequesterID"`
	Orderer   *User              `gorm:"foreignKey:OrdererID"`
	Receiver  *User              `gorm:"foreignKey:ReceiverID"`
	Changes   []BoughtItemChange `gorm:"foreignKey:BoughtItemID"`
}

// TableName implements gorm's Tabler.
func (BoughtItem) TableName() string {
	return "bought_item_table"
}

// ChangeEntries flattens the loaded change rows into their display strings,
// in insertion order.
func (b BoughtItem) ChangeEntries() []string {
	entries := make([]string, 0, len(b.Changes))
	for _, change := range b.Changes {
		entries = append(entries, change.Entry)
	}
	return entries
}
