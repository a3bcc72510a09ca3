package items

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gladosdev/glados-backend/pkg/db"
	"github.com/gladosdev/glados-backend/pkg/db/models"
	"github.com/gladosdev/glados-backend/pkg/enums"
	pkgerrors "github.com/gladosdev/glados-backend/pkg/errors"
)

func TestCreateItemInActiveProject(t *testing.T) {
	conn := openTestDB(t)
	engine, _ := newTestEngine(t, conn)
	ctx := context.Background()

	creator := mustCreateTestUser(t, conn, nil)
	project := mustCreateTestProject(t, conn, creator.ID, nil)

	item, err := engine.CreateItem(ctx, creator, validCreateInput(project.ID))
	require.NoError(t, err)

	assert.Equal(t, enums.BoughtItemStatusOpen, item.Status)
	assert.Equal(t, creator.ID, item.CreatorID)
	assert.Equal(t, project.Number, item.ProjectNumber)
	require.Len(t, item.Changes, 1)
	assert.Contains(t, item.Changes[0], creator.Username)
	assert.Contains(t, item.Changes[0], "Item created.")
}

func TestCreateItemInInactiveProject(t *testing.T) {
	conn := openTestDB(t)
	engine, _ := newTestEngine(t, conn)
	ctx := context.Background()

	creator := mustCreateTestUser(t, conn, nil)
	project := mustCreateTestProject(t, conn, creator.ID, func(p *models.Project) {
		p.IsActive = false
	})

	_, err := engine.CreateItem(ctx, creator, validCreateInput(project.ID))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProjectInactive))

	var count int64
	require.NoError(t, conn.Model(&models.BoughtItem{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateItemByProjectNumber(t *testing.T) {
	conn := openTestDB(t)
	engine, _ := newTestEngine(t, conn)
	ctx := context.Background()

	creator := mustCreateTestUser(t, conn, nil)
	project := mustCreateTestProject(t, conn, creator.ID, nil)

	input := validCreateInput(0)
	input.ProjectID = nil
	input.ProjectNumber = &project.Number

	item, err := engine.CreateItem(ctx, creator, input)
	require.NoError(t, err)
	assert.Equal(t, project.ID, item.ProjectID)
}

func TestCreateItemGuestDenied(t *testing.T) {
	conn := openTestDB(t)
	engine, _ := newTestEngine(t, conn)

	guest := mustCreateTestUser(t, conn, func(u *models.User) { u.IsGuestuser = true })
	project := mustCreateTestProject(t, conn, guest.ID, nil)

	_, err := engine.CreateItem(context.Background(), guest, validCreateInput(project.ID))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientPermissions))
}

func TestOwnerStatusWalkFreezesAfterFirstTransition(t *testing.T) {
	conn := openTestDB(t)
	engine, _ := newTestEngine(t, conn)
	ctx := context.Background()

	creator := mustCreateTestUser(t, conn, nil)
	project := mustCreateTestProject(t, conn, creator.ID, nil)
	item := mustCreateItem(t, engine, creator, project.ID)

	updated, err := engine.UpdateStatus(ctx, creator, item.ID, enums.BoughtItemStatusRequested)
	require.NoError(t, err)
	assert.Equal(t, enums.BoughtItemStatusRequested, updated.Status)
	require.NotNil(t, updated.RequesterID)
	assert.Equal(t, creator.ID, *updated.RequesterID)
	require.NotNil(t, updated.RequestedDate)
	require.Len(t, updated.Changes, 2)
	assert.Contains(t, updated.Changes[1], "open -> requested")

	_, err = engine.UpdateStatus(ctx, creator, item.ID, enums.BoughtItemStatusOrdered)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeItemAlreadyPlanned))
}

func TestElevatedStatusWalkNotifiesCreator(t *testing.T) {
	conn := openTestDB(t)
	engine, notificationRepo := newTestEngine(t, conn)
	ctx := context.Background()

	creator := mustCreateTestUser(t, conn, nil)
	super := mustCreateTestUser(t, conn, func(u *models.User) { u.IsSuperuser = true })
	project := mustCreateTestProject(t, conn, creator.ID, nil)

	input := validCreateInput(project.ID)
	input.NotifyOnDelivery = true
	item, err := engine.CreateItem(ctx, creator, input)
	require.NoError(t, err)

	for _, status := range []enums.BoughtItemStatus{
		enums.BoughtItemStatusRequested,
		enums.BoughtItemStatusOrdered,
		enums.BoughtItemStatusDelivered,
	} {
		_, err := engine.UpdateStatus(ctx, super, item.ID, status)
		require.NoError(t, err, "transition to %s", status)
	}

	final, err := engine.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BoughtItemStatusDelivered, final.Status)
	require.NotNil(t, final.ReceiverID)
	assert.Equal(t, super.ID, *final.ReceiverID)
	require.NotNil(t, final.DeliveryDate)

	pending, err := notificationRepo.ListUnsent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, enums.NotificationReasonDelivered, pending[0].Reason)
	assert.Equal(t, creator.ID, pending[0].ReceiverID)
	assert.Equal(t, item.ID, pending[0].BoughtItemID)
}

func TestStatusLateNotifiesCreator(t *testing.T) {
	conn := openTestDB(t)
	engine, notificationRepo := newTestEngine(t, conn)
	ctx := context.Background()

	creator := mustCreateTestUser(t, conn, nil)
	super := mustCreateTestUser(t, conn, func(u *models.User) { u.IsSuperuser = true })
	project := mustCreateTestProject(t, conn, creator.ID, nil)
	item := mustCreateItem(t, engine, creator, project.ID)

	_, err := engine.UpdateStatus(ctx, super, item.ID, enums.BoughtItemStatusLate)
	require.NoError(t, err)

	pending, err := notificationRepo.ListUnsent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, enums.NotificationReasonLate, pending[0].Reason)
	assert.Equal(t, creator.ID, pending[0].ReceiverID)
}

func TestStatusRevertToOpenForbidden(t *testing.T) {
	conn := openTestDB(t)
	engine, _ := newTestEngine(t, conn)
	ctx := context.Background()

	creator := mustCreateTestUser(t, conn, nil)
	super := mustCreateTestUser(t, conn, func(u *models.User) { u.IsSuperuser = true })
	project := mustCreateTestProject(t, conn, creator.ID, nil)
	item := mustCreateItem(t, engine, creator, project.ID)

	_, err := engine.UpdateStatus(ctx, super, item.ID, enums.BoughtItemStatusDelivered)
	require.NoError(t, err)

	_, err = engine.UpdateStatus(ctx, super, item.ID, enums.BoughtItemStatusOpen)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeItemCannotChangeToOpen))
}

func TestStatusSameValueStillRunsGates(t *testing.T) {
	conn := openTestDB(t)
	engine, _ := newTestEngine(t, conn)
	ctx := context.Background()

	creator := mustCreateTestUser(t, conn, nil)
	other := mustCreateTestUser(t, conn, nil)
	guest := mustCreateTestUser(t, conn, func(u *models.User) { u.IsGuestuser = true })
	project := mustCreateTestProject(t, conn, creator.ID, nil)
	item := mustCreateItem(t, engine, creator, project.ID)

	_, err := engine.UpdateStatus(ctx, other, item.ID, enums.BoughtItemStatusOpen)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeItemOfAnotherUser))

	_, err = engine.UpdateStatus(ctx, guest, item.ID, enums.BoughtItemStatusOpen)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientPermissions))

	unchanged, err := engine.UpdateStatus(ctx, creator, item.ID, enums.BoughtItemStatusOpen)
	require.NoError(t, err)
	assert.Equal(t, enums.BoughtItemStatusOpen, unchanged.Status)
	assert.Len(t, unchanged.Changes, 1)
}

type failingSink struct{}

func (failingSink) Enqueue(context.Context, enums.NotificationReason, int64, int64) error {
	return errors.New("sink unavailable")
}

func TestStatusTransitionSurvivesSinkFailure(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	engine, err := NewService(NewRepository(conn), db.NewFromGorm(conn), &projectRepoAdapter{conn: conn}, failingSink{}, nil)
	require.NoError(t, err)

	creator := mustCreateTestUser(t, conn, nil)
	super := mustCreateTestUser(t, conn, func(u *models.User) { u.IsSuperuser = true })
	project := mustCreateTestProject(t, conn, creator.ID, nil)
	item := mustCreateItem(t, engine, creator, project.ID)

	updated, err := engine.UpdateStatus(ctx, super, item.ID, enums.BoughtItemStatusLate)
	require.NoError(t, err)
	assert.Equal(t, enums.BoughtItemStatusLate, updated.Status)

	reloaded, err := engine.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BoughtItemStatusLate, reloaded.Status)
}

func TestStatusUnknownValue(t *testing.T) {
	conn := openTestDB(t)
	engine, _ := newTestEngine(t, conn)

	creator := mustCreateTestUser(t, conn, nil)
	project := mustCreateTestProject(t, conn, creator.ID, nil)
	item := mustCreateItem(t, engine, creator, project.ID)

	_, err := engine.UpdateStatus(context.Background(), creator, item.ID, enums.BoughtItemStatus("teleported"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeItemUnknownStatus))
}

func TestOwnershipGate(t *testing.T) {
	conn := openTestDB(t)
	engine, _ := newTestEngine(t, conn)
	ctx := context.Background()

	creator := mustCreateTestUser(t, conn, nil)
	other := mustCreateTestUser(t, conn, nil)
	project := mustCreateTestProject(t, conn, creator.ID, nil)
	item := mustCreateItem(t, engine, creator, project.ID)

	_, err := engine.UpdateField(ctx, other, item.ID, enums.ItemFieldSupplier, "ACME")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeItemOfAnotherUser))

	err = engine.DeleteItem(ctx, other, item.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeItemOfAnotherUser))
}

func TestUpdateFieldAppendsAuditEntry(t *testing.T) {
	conn := openTestDB(t)
	engine, _ := newTestEngine(t, conn)
	ctx := context.Background()

	creator := mustCreateTestUser(t, conn, nil)
	project := mustCreateTestProject(t, conn, creator.ID, nil)
	item := mustCreateItem(t, engine, creator, project.ID)

	updated, err := engine.UpdateField(ctx, creator, item.ID, enums.ItemFieldSupplier, "ACME")
	require.NoError(t, err)
	assert.Equal(t, "ACME", updated.Supplier)
	require.Len(t, updated.Changes, 2)
	assert.Contains(t, updated.Changes[1], "Update supplier: <empty> -> ACME")
}

func TestUpdateFieldIdempotentNoOp(t *testing.T) {
	conn := openTestDB(t)
	engine, _ := newTestEngine(t, conn)
	ctx := context.Background()

	creator := mustCreateTestUser(t, conn, nil)
	project := mustCreateTestProject(t, conn, creator.ID, nil)
	item := mustCreateItem(t, engine, creator, project.ID)

	updated, err := engine.UpdateRequiredField(ctx, creator, item.ID, enums.ItemFieldPartnumber, "PN-1")
	require.NoError(t, err)
	assert.Equal(t, "PN-1", updated.Partnumber)
	assert.Len(t, updated.Changes, 1, "no-op writes must not grow the change list")
}

func TestUpdateRequiredFieldRejectsEmpty(t *testing.T) {
	conn := openTestDB(t)
	engine, _ := newTestEngine(t, conn)

	creator := mustCreateTestUser(t, conn, nil)
	project := mustCreateTestProject(t, conn, creator.ID, nil)
	item := mustCreateItem(t, engine, creator, project.ID)

	_, err := engine.UpdateRequiredField(context.Background(), creator, item.ID, enums.ItemFieldQuantity, "  ")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeItemRequiredFieldNotSet))
}

func TestUpdateFieldDateParsing(t *testing.T) {
	conn := openTestDB(t)
	engine, _ := newTestEngine(t, conn)
	ctx := context.Background()

	creator := mustCreateTestUser(t, conn, nil)
	project := mustCreateTestProject(t, conn, creator.ID, nil)
	item := mustCreateItem(t, engine, creator, project.ID)

	updated, err := engine.UpdateField(ctx, creator, item.ID, enums.ItemFieldDesiredDeliveryDate, "2026-10-01")
	require.NoError(t, err)
	require.NotNil(t, updated.DesiredDeliveryDate)
	assert.Equal(t, "2026-10-01", updated.DesiredDeliveryDate.Format("2006-01-02"))

	_, err = engine.UpdateField(ctx, creator, item.ID, enums.ItemFieldDesiredDeliveryDate, "not-a-date")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateFieldsBulkDiffEntry(t *testing.T) {
	conn := openTestDB(t)
	engine, _ := newTestEngine(t, conn)
	ctx := context.Background()

	creator := mustCreateTestUser(t, conn, nil)
	project := mustCreateTestProject(t, conn, creator.ID, nil)
	item := mustCreateItem(t, engine, creator, project.ID)

	quantity := decimal.NewFromInt(5)
	supplier := "ACME"
	updated, err := engine.UpdateFields(ctx, creator, item.ID, UpdateItemFieldsInput{
		Quantity: &quantity,
		Supplier: &supplier,
	})
	require.NoError(t, err)
	assert.True(t, updated.Quantity.Equal(quantity))
	assert.Equal(t, "ACME", updated.Supplier)
	require.Len(t, updated.Changes, 2, "bulk update appends exactly one entry")
	assert.Contains(t, updated.Changes[1], "quantity: 1 -> 5")
	assert.Contains(t, updated.Changes[1], "supplier: <empty> -> ACME")
}

func TestUpdateFieldsReassignsProject(t *testing.T) {
	conn := openTestDB(t)
	engine, _ := newTestEngine(t, conn)
	ctx := context.Background()

	creator := mustCreateTestUser(t, conn, nil)
	source := mustCreateTestProject(t, conn, creator.ID, nil)
	destination := mustCreateTestProject(t, conn, creator.ID, nil)
	inactive := mustCreateTestProject(t, conn, creator.ID, func(p *models.Project) {
		p.IsActive = false
	})
	item := mustCreateItem(t, engine, creator, source.ID)

	updated, err := engine.UpdateFields(ctx, creator, item.ID, UpdateItemFieldsInput{
		ProjectID: &destination.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, destination.ID, updated.ProjectID)
	assert.Contains(t, updated.Changes[len(updated.Changes)-1], "project: "+source.Number+" -> "+destination.Number)

	_, err = engine.UpdateFields(ctx, creator, item.ID, UpdateItemFieldsInput{
		ProjectID: &inactive.ID,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProjectInactive))
}

func TestUpdateProjectByNumber(t *testing.T) {
	conn := openTestDB(t)
	engine, _ := newTestEngine(t, conn)
	ctx := context.Background()

	creator := mustCreateTestUser(t, conn, nil)
	source := mustCreateTestProject(t, conn, creator.ID, nil)
	destination := mustCreateTestProject(t, conn, creator.ID, nil)
	item := mustCreateItem(t, engine, creator, source.ID)

	updated, err := engine.UpdateProject(ctx, creator, item.ID, destination.Number)
	require.NoError(t, err)
	assert.Equal(t, destination.ID, updated.ProjectID)
	assert.Contains(t, updated.Changes[len(updated.Changes)-1],
		"Update project: "+source.Number+" -> "+destination.Number)

	// Same-project reassignment is a no-op without an audit entry.
	again, err := engine.UpdateProject(ctx, creator, item.ID, destination.Number)
	require.NoError(t, err)
	assert.Len(t, again.Changes, len(updated.Changes))

	_, err = engine.UpdateProject(ctx, creator, item.ID, "P9999999")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProjectNotFound))
}

func TestDeleteItemSoftDeletes(t *testing.T) {
	conn := openTestDB(t)
	engine, _ := newTestEngine(t, conn)
	ctx := context.Background()

	creator := mustCreateTestUser(t, conn, nil)
	project := mustCreateTestProject(t, conn, creator.ID, nil)
	item := mustCreateItem(t, engine, creator, project.ID)

	require.NoError(t, engine.DeleteItem(ctx, creator, item.ID))

	fetched, err := engine.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, fetched.Deleted)
	assert.Contains(t, fetched.Changes[len(fetched.Changes)-1], "Marked item as deleted.")

	page, err := engine.ListItems(ctx, ListItemsInput{})
	require.NoError(t, err)
	assert.Zero(t, page.Total, "deleted items are excluded from lists")
}

func TestCascadeProjectDelete(t *testing.T) {
	conn := openTestDB(t)
	engine, _ := newTestEngine(t, conn)
	ctx := context.Background()

	creator := mustCreateTestUser(t, conn, nil)
	admin := mustCreateTestUser(t, conn, func(u *models.User) {
		u.IsAdminuser = true
		u.IsSuperuser = true
	})
	project := mustCreateTestProject(t, conn, creator.ID, nil)

	var ids []int64
	for i := 0; i < 3; i++ {
		ids = append(ids, mustCreateItem(t, engine, creator, project.ID).ID)
	}

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return engine.CascadeProjectDelete(ctx, tx, admin, project.ID)
	}))

	for _, id := range ids {
		fetched, err := engine.GetItem(ctx, id)
		require.NoError(t, err)
		assert.True(t, fetched.Deleted)
		assert.Contains(t, fetched.Changes[len(fetched.Changes)-1], "Marked item as deleted.")
	}
}

func TestListItemsFilters(t *testing.T) {
	conn := openTestDB(t)
	engine, _ := newTestEngine(t, conn)
	ctx := context.Background()

	creator := mustCreateTestUser(t, conn, nil)
	super := mustCreateTestUser(t, conn, func(u *models.User) { u.IsSuperuser = true })
	project := mustCreateTestProject(t, conn, creator.ID, func(p *models.Project) {
		p.Customer = "Aperture"
	})

	first := mustCreateItem(t, engine, creator, project.ID)
	second, err := engine.CreateItem(ctx, creator, CreateItemInput{
		ProjectID:    &project.ID,
		Quantity:     decimal.NewFromInt(3),
		Unit:         enums.UnitKG,
		Partnumber:   "PN-2",
		OrderNumber:  "ORD-2",
		Manufacturer: "OtherCorp",
	})
	require.NoError(t, err)

	_, err = engine.UpdateStatus(ctx, super, second.ID, enums.BoughtItemStatusDelivered)
	require.NoError(t, err)

	t.Run("statusExact", func(t *testing.T) {
		status := enums.BoughtItemStatusOpen
		page, err := engine.ListItems(ctx, ListItemsInput{Status: &status})
		require.NoError(t, err)
		require.EqualValues(t, 1, page.Total)
		assert.Equal(t, first.ID, page.Items[0].ID)
	})

	t.Run("manufacturerSubstring", func(t *testing.T) {
		needle := "othercorp"
		page, err := engine.ListItems(ctx, ListItemsInput{Manufacturer: &needle})
		require.NoError(t, err)
		require.EqualValues(t, 1, page.Total)
		assert.Equal(t, second.ID, page.Items[0].ID)
	})

	t.Run("projectCustomerSubstringJoins", func(t *testing.T) {
		needle := "aperture"
		page, err := engine.ListItems(ctx, ListItemsInput{ProjectCustomer: &needle})
		require.NoError(t, err)
		assert.EqualValues(t, 2, page.Total)
	})

	t.Run("ignoreDelivered", func(t *testing.T) {
		page, err := engine.ListItems(ctx, ListItemsInput{IgnoreDelivered: true})
		require.NoError(t, err)
		require.EqualValues(t, 1, page.Total)
		assert.Equal(t, first.ID, page.Items[0].ID)
	})

	t.Run("defaultOrderingIsIDDescending", func(t *testing.T) {
		page, err := engine.ListItems(ctx, ListItemsInput{})
		require.NoError(t, err)
		require.EqualValues(t, 2, page.Total)
		assert.Equal(t, second.ID, page.Items[0].ID)
		assert.Equal(t, first.ID, page.Items[1].ID)
	})

	t.Run("orderByProjectJoins", func(t *testing.T) {
		page, err := engine.ListItems(ctx, ListItemsInput{
			OrderBy: []enums.OrderBy{enums.OrderByProject},
		})
		require.NoError(t, err)
		assert.EqualValues(t, 2, page.Total)
	})

	t.Run("createdRangeExcludesOld", func(t *testing.T) {
		from := datePtr(2099, 1, 1)
		page, err := engine.ListItems(ctx, ListItemsInput{CreatedFrom: from})
		require.NoError(t, err)
		assert.Zero(t, page.Total)
	})
}
