package projects

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gladosdev/glados-backend/internal/items"
	"github.com/gladosdev/glados-backend/internal/notifications"
	"github.com/gladosdev/glados-backend/internal/users"
	"github.com/gladosdev/glados-backend/pkg/config"
	"github.com/gladosdev/glados-backend/pkg/db"
	"github.com/gladosdev/glados-backend/pkg/db/models"
	"github.com/gladosdev/glados-backend/pkg/enums"
	pkgerrors "github.com/gladosdev/glados-backend/pkg/errors"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := gorm.Open(sqlite.Open("file:proj_"+name+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.BoughtItem{},
		&models.BoughtItemChange{},
		&models.EmailNotification{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

func testProcurementConfig(t *testing.T) config.ProcurementConfig {
	t.Helper()

	cfg := config.ProcurementConfig{
		ProjectNumberPattern: `^P\d{7}$`,
		ProductNumberPattern: `^M\d{7}$`,
	}
	if err := cfg.CompilePatterns(); err != nil {
		t.Fatalf("compile patterns: %v", err)
	}
	return cfg
}

func newTestService(t *testing.T, conn *gorm.DB) (*ServiceImpl, items.Service) {
	t.Helper()

	svc, err := NewService(NewRepository(conn), db.NewFromGorm(conn), users.NewRepository(conn), testProcurementConfig(t))
	require.NoError(t, err)

	notificationSink, err := notifications.NewService(notifications.NewRepository(conn))
	require.NoError(t, err)
	itemEngine, err := items.NewService(items.NewRepository(conn), db.NewFromGorm(conn), NewRepository(conn), notificationSink, nil)
	require.NoError(t, err)
	svc.AttachCascader(itemEngine)

	return svc, itemEngine
}

var userSeq int

func mustCreateUser(t *testing.T, conn *gorm.DB, mutate func(*models.User)) *models.User {
	t.Helper()

	userSeq++
	user := &models.User{
		Username:       fmt.Sprintf("puser%d", userSeq),
		FullName:       fmt.Sprintf("Project User %d", userSeq),
		Email:          fmt.Sprintf("puser%d@example.com", userSeq),
		HashedPassword: "hash",
		Language:       enums.DefaultLanguage,
		Theme:          enums.DefaultTheme,
		IsActive:       true,
	}
	if mutate != nil {
		mutate(user)
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func TestCreateProjectForcesDesignatedUserForNormals(t *testing.T) {
	conn := openTestDB(t)
	svc, _ := newTestService(t, conn)
	ctx := context.Background()

	normal := mustCreateUser(t, conn, nil)
	other := mustCreateUser(t, conn, nil)

	created, err := svc.CreateProject(ctx, normal, CreateProjectInput{
		Number:           "P0000001",
		Customer:         "ACME",
		DesignatedUserID: other.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, normal.ID, created.DesignatedUserID, "normal users cannot delegate")
	assert.True(t, created.IsActive)
}

func TestCreateProjectElevatedMayDelegate(t *testing.T) {
	conn := openTestDB(t)
	svc, _ := newTestService(t, conn)
	ctx := context.Background()

	admin := mustCreateUser(t, conn, func(u *models.User) {
		u.IsAdminuser = true
		u.IsSuperuser = true
	})
	other := mustCreateUser(t, conn, nil)

	created, err := svc.CreateProject(ctx, admin, CreateProjectInput{
		Number:           "P0000002",
		Customer:         "ACME",
		DesignatedUserID: other.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, other.ID, created.DesignatedUserID)
}

func TestCreateProjectGuestDenied(t *testing.T) {
	conn := openTestDB(t)
	svc, _ := newTestService(t, conn)

	guest := mustCreateUser(t, conn, func(u *models.User) { u.IsGuestuser = true })

	_, err := svc.CreateProject(context.Background(), guest, CreateProjectInput{
		Number:           "P0000003",
		Customer:         "ACME",
		DesignatedUserID: guest.ID,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientPermissions))
}

func TestCreateProjectDuplicateNumber(t *testing.T) {
	conn := openTestDB(t)
	svc, _ := newTestService(t, conn)
	ctx := context.Background()

	user := mustCreateUser(t, conn, nil)
	input := CreateProjectInput{Number: "P0000004", Customer: "ACME", DesignatedUserID: user.ID}

	_, err := svc.CreateProject(ctx, user, input)
	require.NoError(t, err)

	_, err = svc.CreateProject(ctx, user, input)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProjectAlreadyExists))
}

func TestCreateProjectInvalidNumberPattern(t *testing.T) {
	conn := openTestDB(t)
	svc, _ := newTestService(t, conn)

	user := mustCreateUser(t, conn, nil)

	_, err := svc.CreateProject(context.Background(), user, CreateProjectInput{
		Number:           "NOPE",
		Customer:         "ACME",
		DesignatedUserID: user.ID,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateProjectUnknownDesignatedUser(t *testing.T) {
	conn := openTestDB(t)
	svc, _ := newTestService(t, conn)

	admin := mustCreateUser(t, conn, func(u *models.User) { u.IsAdminuser = true })

	_, err := svc.CreateProject(context.Background(), admin, CreateProjectInput{
		Number:           "P0000005",
		Customer:         "ACME",
		DesignatedUserID: 424242,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUserDoesNotExist))
}

func TestUpdateProjectRequiresElevationOrDesignation(t *testing.T) {
	conn := openTestDB(t)
	svc, _ := newTestService(t, conn)
	ctx := context.Background()

	designated := mustCreateUser(t, conn, nil)
	stranger := mustCreateUser(t, conn, nil)

	created, err := svc.CreateProject(ctx, designated, CreateProjectInput{
		Number:           "P0000006",
		Customer:         "ACME",
		DesignatedUserID: designated.ID,
	})
	require.NoError(t, err)

	update := UpdateProjectInput{
		Number:           created.Number,
		Customer:         "New Customer",
		DesignatedUserID: designated.ID,
		IsActive:         true,
	}

	_, err = svc.UpdateProject(ctx, stranger, created.ID, update)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientPermissions))

	updated, err := svc.UpdateProject(ctx, designated, created.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "New Customer", updated.Customer)
}

func TestDeleteProjectCascades(t *testing.T) {
	conn := openTestDB(t)
	svc, itemEngine := newTestService(t, conn)
	ctx := context.Background()

	creator := mustCreateUser(t, conn, nil)
	admin := mustCreateUser(t, conn, func(u *models.User) {
		u.IsAdminuser = true
		u.IsSuperuser = true
	})

	created, err := svc.CreateProject(ctx, creator, CreateProjectInput{
		Number:           "P0000007",
		Customer:         "ACME",
		DesignatedUserID: creator.ID,
	})
	require.NoError(t, err)

	var itemIDs []int64
	for i := 0; i < 3; i++ {
		item, err := itemEngine.CreateItem(ctx, creator, items.CreateItemInput{
			ProjectID:    &created.ID,
			Quantity:     decimal.NewFromInt(1),
			Unit:         enums.UnitPieces,
			Partnumber:   fmt.Sprintf("PN-%d", i),
			OrderNumber:  fmt.Sprintf("ORD-%d", i),
			Manufacturer: "M",
		})
		require.NoError(t, err)
		itemIDs = append(itemIDs, item.ID)
	}

	_, err = svc.CreateProject(ctx, creator, CreateProjectInput{
		Number:           "P0000008",
		Customer:         "ACME",
		DesignatedUserID: creator.ID,
	})
	require.NoError(t, err)

	err = svc.DeleteProject(ctx, creator, created.ID)
	require.Error(t, err, "non-elevated users cannot delete projects")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientPermissions))

	require.NoError(t, svc.DeleteProject(ctx, admin, created.ID))

	project, err := svc.GetProject(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, project.Deleted)
	assert.False(t, project.IsActive)

	for _, id := range itemIDs {
		item, err := itemEngine.GetItem(ctx, id)
		require.NoError(t, err)
		assert.True(t, item.Deleted)
		assert.Contains(t, item.Changes[len(item.Changes)-1], "Marked item as deleted.")
	}

	// Deleted projects disappear from the filtered list but stay fetchable.
	page, err := svc.ListProjects(ctx, ListProjectsInput{})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, "P0000008", page.Items[0].Number)
}

func TestListProjectsOrderedByNumberDescending(t *testing.T) {
	conn := openTestDB(t)
	svc, _ := newTestService(t, conn)
	ctx := context.Background()

	user := mustCreateUser(t, conn, nil)
	for _, number := range []string{"P0000010", "P0000030", "P0000020"} {
		_, err := svc.CreateProject(ctx, user, CreateProjectInput{
			Number:           number,
			Customer:         "ACME",
			DesignatedUserID: user.ID,
		})
		require.NoError(t, err)
	}

	page, err := svc.ListProjects(ctx, ListProjectsInput{})
	require.NoError(t, err)
	require.EqualValues(t, 3, page.Total)
	assert.Equal(t, "P0000030", page.Items[0].Number)
	assert.Equal(t, "P0000020", page.Items[1].Number)
	assert.Equal(t, "P0000010", page.Items[2].Number)
}

func TestGetByNumberIncludesDeleted(t *testing.T) {
	conn := openTestDB(t)
	svc, _ := newTestService(t, conn)
	ctx := context.Background()

	admin := mustCreateUser(t, conn, func(u *models.User) { u.IsAdminuser = true })

	created, err := svc.CreateProject(ctx, admin, CreateProjectInput{
		Number:           "P0000040",
		Customer:         "ACME",
		DesignatedUserID: admin.ID,
	})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProject(ctx, admin, created.ID))

	fetched, err := svc.GetByNumber(ctx, "P0000040")
	require.NoError(t, err)
	assert.True(t, fetched.Deleted)

	_, err = svc.GetByNumber(ctx, "P9999999")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProjectNotFound))
}
