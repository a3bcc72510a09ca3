package items

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gladosdev/glados-backend/pkg/db/models"
	"github.com/gladosdev/glados-backend/pkg/enums"
)

// BoughtItemDTO is the transport shape of an item, including the derived
// read-only views onto its project and the involved users.
type BoughtItemDTO struct {
	ID               int64                  `json:"id"`
	Created          time.Time              `json:"created"`
	Changed          time.Time              `json:"changed"`
	Deleted          bool                   `json:"deleted"`
	Status           enums.BoughtItemStatus `json:"status"`
	HighPriority     bool                   `json:"high_priority"`
	NotifyOnDelivery bool                   `json:"notify_on_delivery"`

	ProjectID            int64           `json:"project_id"`
	ProjectNumber        string          `json:"project_number"`
	ProjectProductNumber *string         `json:"project_product_number,omitempty"`
	ProjectIsActive      bool            `json:"project_is_active"`
	Quantity             decimal.Decimal `json:"quantity"`
	Unit                 enums.Unit      `json:"unit"`
	Partnumber           string          `json:"partnumber"`
	OrderNumber          string          `json:"order_number"`
	Manufacturer         string          `json:"manufacturer"`
	Supplier             string          `json:"supplier"`
	Group1               string          `json:"group_1"`
	Weblink              string          `json:"weblink"`
	NoteGeneral          string          `json:"note_general"`
	NoteSupplier         string          `json:"note_supplier"`
	StoragePlace         string          `json:"storage_place"`

	DesiredDeliveryDate  *time.Time `json:"desired_delivery_date,omitempty"`
	RequestedDate        *time.Time `json:"requested_date,omitempty"`
	OrderedDate          *time.Time `json:"ordered_date,omitempty"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date,omitempty"`
	DeliveryDate         *time.Time `json:"delivery_date,omitempty"`

	CreatorID     int64   `json:"creator_id"`
	CreatorName   string  `json:"creator_name,omitempty"`
	RequesterID   *int64  `json:"requester_id,omitempty"`
	RequesterName *string `json:"requester_name,omitempty"`
	OrdererID     *int64  `json:"orderer_id,omitempty"`
	OrdererName   *string `json:"orderer_name,omitempty"`
	ReceiverID    *int64  `json:"receiver_id,omitempty"`
	ReceiverName  *string `json:"receiver_name,omitempty"`

	Changes []string `json:"changes"`
}

// CreateItemInput holds the validated payload for a new item. The project
// reference arrives as either an id or a number; exactly one must be set.
type CreateItemInput struct {
	ProjectID     *int64
	ProjectNumber *string

	Quantity     decimal.Decimal
	Unit         enums.Unit
	Partnumber   string
	OrderNumber  string
	Manufacturer string
	Supplier     string
	Group1       string
	Weblink      string
	NoteGeneral  string
	NoteSupplier string
	StoragePlace string

	DesiredDeliveryDate  *time.Time
	ExpectedDeliveryDate *time.Time
	HighPriority         bool
	NotifyOnDelivery     bool
}

// UpdateItemFieldsInput is the bulk update of the client-supplied attribute
// set; nil means keep the stored value.
type UpdateItemFieldsInput struct {
	ProjectID     *int64
	ProjectNumber *string

	Quantity     *decimal.Decimal
	Unit         *enums.Unit
	Partnumber   *string
	OrderNumber  *string
	Manufacturer *string
	Supplier     *string
	Group1       *string
	Weblink      *string
	NoteGeneral  *string
	NoteSupplier *string
	StoragePlace *string

	DesiredDeliveryDate  *time.Time
	ExpectedDeliveryDate *time.Time
	HighPriority         *bool
	NotifyOnDelivery     *bool
}

// ListItemsInput is the filtered list contract. All filters combine with
// logical AND; nil disables a filter.
type ListItemsInput struct {
	ID           *int64
	Status       *enums.BoughtItemStatus
	Quantity     *decimal.Decimal
	Unit         *enums.Unit
	CreatorID    *int64
	HighPriority *bool
	RequesterID  *int64
	OrdererID    *int64
	ReceiverID   *int64

	ProjectNumber      *string
	ProjectCustomer    *string
	ProjectDescription *string
	ProductNumber      *string
	Partnumber         *string
	OrderNumber        *string
	Manufacturer       *string
	Supplier           *string
	Group1             *string
	NoteGeneral        *string
	NoteSupplier       *string
	StoragePlace       *string

	CreatedFrom          *time.Time
	CreatedTo            *time.Time
	ChangedFrom          *time.Time
	ChangedTo            *time.Time
	DesiredDeliveryFrom  *time.Time
	DesiredDeliveryTo    *time.Time
	RequestedFrom        *time.Time
	RequestedTo          *time.Time
	OrderedFrom          *time.Time
	OrderedTo            *time.Time
	ExpectedDeliveryFrom *time.Time
	ExpectedDeliveryTo   *time.Time
	DeliveryFrom         *time.Time
	DeliveryTo           *time.Time

	IgnoreDelivered bool
	IgnoreCanceled  bool
	IgnoreLost      bool

	OrderBy []enums.OrderBy
	Limit   int
	Skip    int
}

// FromModel maps an item row with its preloaded associations.
func FromModel(item *models.BoughtItem) *BoughtItemDTO {
	if item == nil {
		return nil
	}
	dto := &BoughtItemDTO{
		ID:                   item.ID,
		Created:              item.Created,
		Changed:              item.Changed,
		Deleted:              item.Deleted,
		Status:               item.Status,
		HighPriority:         item.HighPriority,
		NotifyOnDelivery:     item.NotifyOnDelivery,
		ProjectID:            item.ProjectID,
		Quantity:             item.Quantity,
		Unit:                 item.Unit,
		Partnumber:           item.Partnumber,
		OrderNumber:          item.OrderNumber,
		Manufacturer:         item.Manufacturer,
		Supplier:             item.Supplier,
		Group1:               item.Group1,
		Weblink:              item.Weblink,
		NoteGeneral:          item.NoteGeneral,
		NoteSupplier:         item.NoteSupplier,
		StoragePlace:         item.StoragePlace,
		DesiredDeliveryDate:  item.DesiredDeliveryDate,
		RequestedDate:        item.RequestedDate,
		OrderedDate:          item.OrderedDate,
		ExpectedDeliveryDate: item.ExpectedDeliveryDate,
		DeliveryDate:         item.DeliveryDate,
		CreatorID:            item.CreatorID,
		RequesterID:          item.RequesterID,
		OrdererID:            item.OrdererID,
		ReceiverID:           item.ReceiverID,
		Changes:              item.ChangeEntries(),
	}
	if item.Project != nil {
		dto.ProjectNumber = item.Project.Number
		dto.ProjectProductNumber = item.Project.ProductNumber
		dto.ProjectIsActive = item.Project.IsActive
	}
	if item.Creator != nil {
		dto.CreatorName = item.Creator.FullName
	}
	dto.RequesterName = fullNameOf(item.Requester)
	dto.OrdererName = fullNameOf(item.Orderer)
	dto.ReceiverName = fullNameOf(item.Receiver)
	return dto
}

// FromModels maps a slice of rows.
func FromModels(rows []models.BoughtItem) []BoughtItemDTO {
	out := make([]BoughtItemDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

func fullNameOf(u *models.User) *string {
	if u == nil {
		return nil
	}
	name := u.FullName
	return &name
}
