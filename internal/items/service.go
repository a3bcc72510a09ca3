package items

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/gladosdev/glados-backend/internal/audit"
	"github.com/gladosdev/glados-backend/internal/principal"
	"github.com/gladosdev/glados-backend/pkg/db"
	"github.com/gladosdev/glados-backend/pkg/db/models"
	"github.com/gladosdev/glados-backend/pkg/enums"
	pkgerrors "github.com/gladosdev/glados-backend/pkg/errors"
	"github.com/gladosdev/glados-backend/pkg/logger"
	"github.com/gladosdev/glados-backend/pkg/pagination"
)

// Service is the rule engine every bought item mutation funnels through.
type Service interface {
	CreateItem(ctx context.Context, acting *models.User, input CreateItemInput) (*BoughtItemDTO, error)
	UpdateFields(ctx context.Context, acting *models.User, itemID int64, input UpdateItemFieldsInput) (*BoughtItemDTO, error)
	UpdateStatus(ctx context.Context, acting *models.User, itemID int64, newStatus enums.BoughtItemStatus) (*BoughtItemDTO, error)
	UpdateProject(ctx context.Context, acting *models.User, itemID int64, projectNumber string) (*BoughtItemDTO, error)
	UpdateField(ctx context.Context, acting *models.User, itemID int64, field enums.ItemField, value string) (*BoughtItemDTO, error)
	UpdateRequiredField(ctx context.Context, acting *models.User, itemID int64, field enums.ItemField, value string) (*BoughtItemDTO, error)
	DeleteItem(ctx context.Context, acting *models.User, itemID int64) error
	GetItem(ctx context.Context, id int64) (*BoughtItemDTO, error)
	ListItems(ctx context.Context, input ListItemsInput) (*pagination.Page[BoughtItemDTO], error)
	CascadeProjectDelete(ctx context.Context, tx *gorm.DB, acting *models.User, projectID int64) error
}

type projectStore interface {
	FindByID(ctx context.Context, id int64) (*models.Project, error)
	FindByNumber(ctx context.Context, number string) (*models.Project, error)
}

// notificationSink enqueues email notification rows. Called strictly after
// the triggering status write has committed.
type notificationSink interface {
	Enqueue(ctx context.Context, reason enums.NotificationReason, receiverID, itemID int64) error
}

// service implements Service.
type service struct {
	repo        *Repository
	dbClient    *db.Client
	projectRepo projectStore
	sink        notificationSink
	logg        *logger.Logger
	now         func() time.Time
}

// NewService constructs the item rule engine. The logger may be nil.
func NewService(repo *Repository, dbClient *db.Client, projectRepo projectStore, sink notificationSink, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("items repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if projectRepo == nil {
		return nil, fmt.Errorf("projects repository required")
	}
	if sink == nil {
		return nil, fmt.Errorf("notification sink required")
	}
	return &service{
		repo:        repo,
		dbClient:    dbClient,
		projectRepo: projectRepo,
		sink:        sink,
		logg:        logg,
		now:         time.Now,
	}, nil
}

// gateOpts selects which steps of the common precondition stack apply.
type gateOpts struct {
	skipOwnership     bool
	skipFreeze        bool
	skipProjectActive bool
}

// runGates applies the common precondition stack in order; the first failing
// gate short-circuits.
func (s *service) runGates(acting *models.User, item *models.BoughtItem, project *models.Project, opts gateOpts) error {
	if acting == nil || principal.IsGuest(acting) {
		return pkgerrors.New(pkgerrors.CodeInsufficientPermissions, "guests cannot modify items")
	}
	if !opts.skipOwnership && !principal.MayManageItem(acting, item) {
		return pkgerrors.New(pkgerrors.CodeItemOfAnotherUser, "item belongs to another user")
	}
	if !opts.skipFreeze && !principal.IsElevated(acting) && item.Status.Planned() {
		return pkgerrors.New(pkgerrors.CodeItemAlreadyPlanned, "item is already planned")
	}
	if !opts.skipProjectActive && project != nil && !project.IsActive {
		return pkgerrors.New(pkgerrors.CodeProjectInactive, "project is inactive")
	}
	return nil
}

// CreateItem persists a new open item in the resolved project.
func (s *service) CreateItem(ctx context.Context, acting *models.User, input CreateItemInput) (*BoughtItemDTO, error) {
	if acting == nil || principal.IsGuest(acting) {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientPermissions, "guests cannot create items")
	}

	project, err := s.resolveProject(ctx, input.ProjectID, input.ProjectNumber)
	if err != nil {
		return nil, err
	}
	if !project.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeProjectInactive, "project is inactive")
	}
	if input.Unit == "" {
		input.Unit = enums.DefaultUnit
	}
	if err := validateRequiredValues(input.Quantity, input.Unit, input.Partnumber, input.OrderNumber, input.Manufacturer); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	item := &models.BoughtItem{
		Changed:              now,
		Status:               enums.DefaultBoughtItemStatus,
		HighPriority:         input.HighPriority,
		NotifyOnDelivery:     input.NotifyOnDelivery,
		ProjectID:            project.ID,
		Quantity:             input.Quantity,
		Unit:                 input.Unit,
		Partnumber:           strings.TrimSpace(input.Partnumber),
		OrderNumber:          strings.TrimSpace(input.OrderNumber),
		Manufacturer:         strings.TrimSpace(input.Manufacturer),
		Supplier:             input.Supplier,
		Group1:               input.Group1,
		Weblink:              input.Weblink,
		NoteGeneral:          input.NoteGeneral,
		NoteSupplier:         input.NoteSupplier,
		StoragePlace:         input.StoragePlace,
		DesiredDeliveryDate:  input.DesiredDeliveryDate,
		ExpectedDeliveryDate: input.ExpectedDeliveryDate,
		CreatorID:            acting.ID,
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create item")
		}
		change := audit.NewChange(item.ID, now, acting, audit.CreatedMessage())
		if err := repo.AppendChange(ctx, &change); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append change")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetItem(ctx, item.ID)
}

// UpdateFields bulk-updates the client-supplied attribute set and records a
// single change entry enumerating the diff.
func (s *service) UpdateFields(ctx context.Context, acting *models.User, itemID int64, input UpdateItemFieldsInput) (*BoughtItemDTO, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	// Reassignment checks the destination project; everything else the
	// current one.
	project := item.Project
	if input.ProjectID != nil || input.ProjectNumber != nil {
		destination, err := s.resolveProject(ctx, input.ProjectID, input.ProjectNumber)
		if err != nil {
			return nil, err
		}
		if destination.ID != item.ProjectID {
			project = destination
		}
	}
	if err := s.runGates(acting, item, project, gateOpts{}); err != nil {
		return nil, err
	}

	diffs := applyFieldsUpdate(item, project, input)
	if len(diffs) == 0 {
		return FromModel(item), nil
	}

	now := s.now().UTC()
	item.Changed = now
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		change := audit.NewChange(item.ID, now, acting, audit.FieldsMessage(diffs))
		if err := repo.AppendChange(ctx, &change); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append change")
		}
		if _, err := repo.Save(ctx, stripAssociations(item)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetItem(ctx, item.ID)
}

// UpdateStatus walks the status state machine. Elevated users may transition
// planned items; everyone else only their own open item.
func (s *service) UpdateStatus(ctx context.Context, acting *models.User, itemID int64, newStatus enums.BoughtItemStatus) (*BoughtItemDTO, error) {
	if !newStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeItemUnknownStatus, "unknown item status")
	}

	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	// Elevated status transitions bypass the project-active gate so stuck
	// items in deactivated projects can still be closed out. The gates run
	// before the same-status no-op so unauthorized callers never get the
	// item back.
	if err := s.runGates(acting, item, item.Project, gateOpts{
		skipProjectActive: principal.IsElevated(acting),
	}); err != nil {
		return nil, err
	}
	if newStatus == item.Status {
		return FromModel(item), nil
	}
	if newStatus == enums.BoughtItemStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeItemCannotChangeToOpen, "cannot change a planned item back to open")
	}

	now := s.now().UTC()
	oldStatus := item.Status
	item.Status = newStatus
	item.Changed = now

	today := now.Truncate(24 * time.Hour)
	switch newStatus {
	case enums.BoughtItemStatusRequested:
		item.RequesterID = &acting.ID
		item.RequestedDate = &today
	case enums.BoughtItemStatusOrdered:
		item.OrdererID = &acting.ID
		item.OrderedDate = &today
	case enums.BoughtItemStatusDelivered:
		item.ReceiverID = &acting.ID
		item.DeliveryDate = &today
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		change := audit.NewChange(item.ID, now, acting, audit.StatusMessage(oldStatus.String(), newStatus.String()))
		if err := repo.AppendChange(ctx, &change); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append change")
		}
		if _, err := repo.Save(ctx, stripAssociations(item)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Enqueued only after the status write committed. A failed enqueue is
	// logged and never surfaces; the transition already persisted.
	s.enqueueStatusNotifications(ctx, item, newStatus)

	return s.GetItem(ctx, item.ID)
}

func (s *service) enqueueStatusNotifications(ctx context.Context, item *models.BoughtItem, status enums.BoughtItemStatus) {
	var err error
	switch status {
	case enums.BoughtItemStatusLate:
		err = s.sink.Enqueue(ctx, enums.NotificationReasonLate, item.CreatorID, item.ID)
	case enums.BoughtItemStatusDelivered:
		if item.NotifyOnDelivery {
			err = s.sink.Enqueue(ctx, enums.NotificationReasonDelivered, item.CreatorID, item.ID)
		}
	}
	if err != nil && s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"item_id": item.ID, "status": status.String()})
		s.logg.Error(ctx, "failed to enqueue status notification", err)
	}
}

// UpdateProject moves the item into the project addressed by number.
func (s *service) UpdateProject(ctx context.Context, acting *models.User, itemID int64, projectNumber string) (*BoughtItemDTO, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	destination, err := s.resolveProject(ctx, nil, &projectNumber)
	if err != nil {
		return nil, err
	}
	// Reassignment to the current project is a no-op, so the destination
	// active check only applies when the project actually changes.
	sameProject := destination.ID == item.ProjectID
	if err := s.runGates(acting, item, destination, gateOpts{skipProjectActive: sameProject}); err != nil {
		return nil, err
	}
	if sameProject {
		return FromModel(item), nil
	}

	oldNumber := ""
	if item.Project != nil {
		oldNumber = item.Project.Number
	}

	now := s.now().UTC()
	item.ProjectID = destination.ID
	item.Changed = now
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		change := audit.NewChange(item.ID, now, acting, audit.ProjectMessage(oldNumber, destination.Number))
		if err := repo.AppendChange(ctx, &change); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append change")
		}
		if _, err := repo.Save(ctx, stripAssociations(item)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetItem(ctx, item.ID)
}

// UpdateField writes one client-supplied attribute. Writing the stored value
// again is an idempotent no-op without an audit entry.
func (s *service) UpdateField(ctx context.Context, acting *models.User, itemID int64, field enums.ItemField, value string) (*BoughtItemDTO, error) {
	return s.updateSingleField(ctx, acting, itemID, field, value, false)
}

// UpdateRequiredField behaves like UpdateField but rejects empty values for
// the attributes an item can never lose.
func (s *service) UpdateRequiredField(ctx context.Context, acting *models.User, itemID int64, field enums.ItemField, value string) (*BoughtItemDTO, error) {
	return s.updateSingleField(ctx, acting, itemID, field, value, true)
}

func (s *service) updateSingleField(ctx context.Context, acting *models.User, itemID int64, field enums.ItemField, value string, required bool) (*BoughtItemDTO, error) {
	if !field.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown item field %q", field))
	}
	if required && strings.TrimSpace(value) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeItemRequiredFieldNotSet, fmt.Sprintf("%s is required", field))
	}

	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.runGates(acting, item, item.Project, gateOpts{}); err != nil {
		return nil, err
	}

	oldValue, changed, err := setField(item, field, value)
	if err != nil {
		return nil, err
	}
	if !changed {
		return FromModel(item), nil
	}

	now := s.now().UTC()
	item.Changed = now
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		change := audit.NewChange(item.ID, now, acting, audit.FieldMessage(field.String(), oldValue, value))
		if err := repo.AppendChange(ctx, &change); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append change")
		}
		if _, err := repo.Save(ctx, stripAssociations(item)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetItem(ctx, item.ID)
}

// DeleteItem soft-deletes the item, keeping the row and its change history.
func (s *service) DeleteItem(ctx context.Context, acting *models.User, itemID int64) error {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return err
	}
	if err := s.runGates(acting, item, item.Project, gateOpts{}); err != nil {
		return err
	}

	now := s.now().UTC()
	item.Deleted = true
	item.Changed = now
	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		change := audit.NewChange(item.ID, now, acting, audit.DeletedMessage())
		if err := repo.AppendChange(ctx, &change); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append change")
		}
		if _, err := repo.Save(ctx, stripAssociations(item)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete item")
		}
		return nil
	})
}

// GetItem fetches an item by id, deleted rows included.
func (s *service) GetItem(ctx context.Context, id int64) (*BoughtItemDTO, error) {
	item, err := s.loadItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(item), nil
}

// ListItems returns the filtered page plus total count.
func (s *service) ListItems(ctx context.Context, input ListItemsInput) (*pagination.Page[BoughtItemDTO], error) {
	page, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list items")
	}
	return &pagination.Page[BoughtItemDTO]{Total: page.Total, Items: FromModels(page.Items)}, nil
}

// CascadeProjectDelete soft-deletes every live item of a project inside the
// caller's transaction. The project delete already passed its own
// authorization, so the per-item gates do not run here.
func (s *service) CascadeProjectDelete(ctx context.Context, tx *gorm.DB, acting *models.User, projectID int64) error {
	repo := s.repo.WithTx(tx)
	rows, err := repo.ListLiveByProject(ctx, projectID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list project items")
	}

	now := s.now().UTC()
	var errs error
	for i := range rows {
		item := &rows[i]
		item.Deleted = true
		item.Changed = now
		change := audit.NewChange(item.ID, now, acting, audit.DeletedMessage())
		if err := repo.AppendChange(ctx, &change); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("item %d: %w", item.ID, err))
			continue
		}
		if _, err := repo.Save(ctx, item); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("item %d: %w", item.ID, err))
		}
	}
	return errs
}

func (s *service) loadItem(ctx context.Context, id int64) (*models.BoughtItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeItemNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load item")
	}
	return item, nil
}

func (s *service) resolveProject(ctx context.Context, id *int64, number *string) (*models.Project, error) {
	var (
		project *models.Project
		err     error
	)
	switch {
	case id != nil:
		project, err = s.projectRepo.FindByID(ctx, *id)
	case number != nil && strings.TrimSpace(*number) != "":
		project, err = s.projectRepo.FindByNumber(ctx, strings.TrimSpace(*number))
	default:
		return nil, pkgerrors.New(pkgerrors.CodeProjectNotFound, "project reference is required")
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeProjectNotFound, "project not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load project")
	}
	if project.Deleted {
		return nil, pkgerrors.New(pkgerrors.CodeProjectNotFound, "project not found")
	}
	return project, nil
}

func validateRequiredValues(quantity decimal.Decimal, unit enums.Unit, partnumber, orderNumber, manufacturer string) error {
	if !quantity.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !unit.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown unit %q", unit))
	}
	if strings.TrimSpace(partnumber) == "" || strings.TrimSpace(orderNumber) == "" || strings.TrimSpace(manufacturer) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "partnumber, order_number, and manufacturer are required")
	}
	return nil
}

// stripAssociations clears preloaded association pointers before a Save so
// gorm does not upsert related rows.
func stripAssociations(item *models.BoughtItem) *models.BoughtItem {
	item.Project = nil
	item.Creator = nil
	item.Requester = nil
	item.Orderer = nil
	item.Receiver = nil
	item.Changes = nil
	return item
}
