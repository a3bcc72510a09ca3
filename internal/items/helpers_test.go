package items

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gladosdev/glados-backend/internal/notifications"
	"github.com/gladosdev/glados-backend/pkg/db"
	"github.com/gladosdev/glados-backend/pkg/db/models"
	"github.com/gladosdev/glados-backend/pkg/enums"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
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

func newTestEngine(t *testing.T, conn *gorm.DB) (Service, *notifications.Repository) {
	t.Helper()

	notificationRepo := notifications.NewRepository(conn)
	sink, err := notifications.NewService(notificationRepo)
	if err != nil {
		t.Fatalf("notifications service: %v", err)
	}

	engine, err := NewService(NewRepository(conn), db.NewFromGorm(conn), &projectRepoAdapter{conn: conn}, sink, nil)
	if err != nil {
		t.Fatalf("items service: %v", err)
	}
	return engine, notificationRepo
}

// projectRepoAdapter keeps the item tests free of the projects package.
type projectRepoAdapter struct {
	conn *gorm.DB
}

func (a *projectRepoAdapter) FindByID(ctx context.Context, id int64) (*models.Project, error) {
	var project models.Project
	if err := a.conn.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (a *projectRepoAdapter) FindByNumber(ctx context.Context, number string) (*models.Project, error) {
	var project models.Project
	if err := a.conn.WithContext(ctx).Where("number = ?", number).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

var testUserSeq int

func mustCreateTestUser(t *testing.T, conn *gorm.DB, mutate func(*models.User)) *models.User {
	t.Helper()

	testUserSeq++
	user := &models.User{
		Username:       fmt.Sprintf("user%d", testUserSeq),
		FullName:       fmt.Sprintf("User %d", testUserSeq),
		Email:          fmt.Sprintf("user%d@example.com", testUserSeq),
		HashedPassword: "hash",
		Language:       enums.DefaultLanguage,
		Theme:          enums.DefaultTheme,
		IsActive:       true,
	}
	if mutate != nil {
		mutate(user)
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

var testProjectSeq int

func mustCreateTestProject(t *testing.T, conn *gorm.DB, designatedUserID int64, mutate func(*models.Project)) *models.Project {
	t.Helper()

	testProjectSeq++
	project := &models.Project{
		Number:           fmt.Sprintf("P%07d", testProjectSeq),
		Customer:         "ACME",
		DesignatedUserID: designatedUserID,
		IsActive:         true,
	}
	if mutate != nil {
		mutate(project)
	}
	if err := conn.Create(project).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project
}

func validCreateInput(projectID int64) CreateItemInput {
	return CreateItemInput{
		ProjectID:    &projectID,
		Quantity:     decimal.NewFromInt(1),
		Unit:         enums.UnitPieces,
		Partnumber:   "PN-1",
		OrderNumber:  "ORD-1",
		Manufacturer: "M",
	}
}

func mustCreateItem(t *testing.T, engine Service, acting *models.User, projectID int64) *BoughtItemDTO {
	t.Helper()

	item, err := engine.CreateItem(context.Background(), acting, validCreateInput(projectID))
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	return item
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}
