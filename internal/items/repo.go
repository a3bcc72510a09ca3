package items

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/gladosdev/glados-backend/pkg/db/models"
	"github.com/gladosdev/glados-backend/pkg/enums"
	"github.com/gladosdev/glados-backend/pkg/pagination"
)

// filterFloor is the default lower bound for created/changed range filters.
var filterFloor = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Repository exposes bought item persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an items repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new item and returns the persisted row.
func (r *Repository) Create(ctx context.Context, item *models.BoughtItem) (*models.BoughtItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// Save persists all columns of an existing item row.
func (r *Repository) Save(ctx context.Context, item *models.BoughtItem) (*models.BoughtItem, error) {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// FindByID loads an item by primary key, deleted rows included. Associations
// needed by the derived views are preloaded; change rows arrive in insertion
// order.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.BoughtItem, error) {
	var item models.BoughtItem
	if err := r.db.WithContext(ctx).
		Preload("Project").
		Preload("Creator").
		Preload("Requester").
		Preload("Orderer").
		Preload("Receiver").
		Preload("Changes", func(db *gorm.DB) *gorm.DB {
			return db.Order("bought_item_change_table.id ASC")
		}).
		First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListLiveByProject returns the non-deleted items of a project.
func (r *Repository) ListLiveByProject(ctx context.Context, projectID int64) ([]models.BoughtItem, error) {
	var rows []models.BoughtItem
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND deleted = ?", projectID, false).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AppendChange inserts one change row for the item.
func (r *Repository) AppendChange(ctx context.Context, change *models.BoughtItemChange) error {
	return r.db.WithContext(ctx).Create(change).Error
}

// List applies the combined filter set and returns one page plus the total
// match count. Deleted items are always excluded.
func (r *Repository) List(ctx context.Context, input ListItemsInput) (*pagination.Page[models.BoughtItem], error) {
	limit := pagination.NormalizeLimit(input.Limit)
	skip := pagination.NormalizeSkip(input.Skip)

	needsJoin := substringFilterNeedsJoin(input)
	for _, key := range input.OrderBy {
		if key.RequiresProjectJoin() {
			needsJoin = true
		}
	}

	query := r.db.WithContext(ctx).
		Model(&models.BoughtItem{}).
		Where("bought_item_table.deleted = ?", false)
	if needsJoin {
		query = query.Joins("INNER JOIN project_table ON project_table.id = bought_item_table.project_id")
	}

	query = applyExactFilters(query, input)
	query = applySubstringFilters(query, input)
	query = applyRangeFilters(query, input)
	query = applyIgnoreToggles(query, input)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	for _, key := range input.OrderBy {
		query = query.Order(key.SortExpression())
	}
	// Stable tiebreaker regardless of the requested ordering.
	query = query.Order("bought_item_table.id DESC")

	var rows []models.BoughtItem
	if err := query.
		Preload("Project").
		Preload("Creator").
		Preload("Requester").
		Preload("Orderer").
		Preload("Receiver").
		Limit(limit).
		Offset(skip).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	return &pagination.Page[models.BoughtItem]{Total: total, Items: rows}, nil
}

func applyExactFilters(query *gorm.DB, input ListItemsInput) *gorm.DB {
	if input.ID != nil {
		query = query.Where("bought_item_table.id = ?", *input.ID)
	}
	if input.Status != nil {
		query = query.Where("bought_item_table.status = ?", *input.Status)
	}
	if input.Quantity != nil {
		query = query.Where("bought_item_table.quantity = ?", *input.Quantity)
	}
	if input.Unit != nil {
		query = query.Where("bought_item_table.unit = ?", *input.Unit)
	}
	if input.CreatorID != nil {
		query = query.Where("bought_item_table.creator_id = ?", *input.CreatorID)
	}
	if input.HighPriority != nil {
		query = query.Where("bought_item_table.high_priority = ?", *input.HighPriority)
	}
	if input.RequesterID != nil {
		query = query.Where("bought_item_table.requester_id = ?", *input.RequesterID)
	}
	if input.OrdererID != nil {
		query = query.Where("bought_item_table.orderer_id = ?", *input.OrdererID)
	}
	if input.ReceiverID != nil {
		query = query.Where("bought_item_table.receiver_id = ?", *input.ReceiverID)
	}
	return query
}

func applySubstringFilters(query *gorm.DB, input ListItemsInput) *gorm.DB {
	query = substring(query, "project_table.number", input.ProjectNumber)
	query = substring(query, "project_table.customer", input.ProjectCustomer)
	query = substring(query, "project_table.description", input.ProjectDescription)
	query = substring(query, "project_table.product_number", input.ProductNumber)
	query = substring(query, "bought_item_table.partnumber", input.Partnumber)
	query = substring(query, "bought_item_table.order_number", input.OrderNumber)
	query = substring(query, "bought_item_table.manufacturer", input.Manufacturer)
	query = substring(query, "bought_item_table.supplier", input.Supplier)
	query = substring(query, "bought_item_table.group_1", input.Group1)
	query = substring(query, "bought_item_table.note_general", input.NoteGeneral)
	query = substring(query, "bought_item_table.note_supplier", input.NoteSupplier)
	query = substring(query, "bought_item_table.storage_place", input.StoragePlace)
	return query
}

func applyRangeFilters(query *gorm.DB, input ListItemsInput) *gorm.DB {
	endOfToday := time.Now().UTC().Truncate(24 * time.Hour).Add(24*time.Hour - time.Nanosecond)

	// created and changed always carry a bounded window.
	query = query.Where("bought_item_table.created BETWEEN ? AND ?",
		orDefault(input.CreatedFrom, filterFloor), orDefault(input.CreatedTo, endOfToday))
	query = query.Where("bought_item_table.changed BETWEEN ? AND ?",
		orDefault(input.ChangedFrom, filterFloor), orDefault(input.ChangedTo, endOfToday))

	query = dateRange(query, "bought_item_table.desired_delivery_date", input.DesiredDeliveryFrom, input.DesiredDeliveryTo)
	query = dateRange(query, "bought_item_table.requested_date", input.RequestedFrom, input.RequestedTo)
	query = dateRange(query, "bought_item_table.ordered_date", input.OrderedFrom, input.OrderedTo)
	query = dateRange(query, "bought_item_table.expected_delivery_date", input.ExpectedDeliveryFrom, input.ExpectedDeliveryTo)
	query = dateRange(query, "bought_item_table.delivery_date", input.DeliveryFrom, input.DeliveryTo)
	return query
}

func applyIgnoreToggles(query *gorm.DB, input ListItemsInput) *gorm.DB {
	if input.IgnoreDelivered {
		query = query.Where("bought_item_table.status <> ?", enums.BoughtItemStatusDelivered)
	}
	if input.IgnoreCanceled {
		query = query.Where("bought_item_table.status <> ?", enums.BoughtItemStatusCanceled)
	}
	if input.IgnoreLost {
		query = query.Where("bought_item_table.status <> ?", enums.BoughtItemStatusLost)
	}
	return query
}

func substringFilterNeedsJoin(input ListItemsInput) bool {
	return input.ProjectNumber != nil || input.ProjectCustomer != nil ||
		input.ProjectDescription != nil || input.ProductNumber != nil
}

func substring(query *gorm.DB, column string, value *string) *gorm.DB {
	if value == nil || strings.TrimSpace(*value) == "" {
		return query
	}
	pattern := "%" + strings.ToLower(strings.TrimSpace(*value)) + "%"
	return query.Where("LOWER("+column+") LIKE ?", pattern)
}

func dateRange(query *gorm.DB, column string, from, to *time.Time) *gorm.DB {
	if from != nil {
		query = query.Where(column+" >= ?", *from)
	}
	if to != nil {
		query = query.Where(column+" <= ?", *to)
	}
	return query
}

func orDefault(value *time.Time, fallback time.Time) time.Time {
	if value != nil {
		return *value
	}
	return fallback
}
