package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gladosdev/glados-backend/internal/items"
	"github.com/gladosdev/glados-backend/internal/notifications"
	"github.com/gladosdev/glados-backend/internal/projects"
	"github.com/gladosdev/glados-backend/internal/users"
	"github.com/gladosdev/glados-backend/pkg/config"
	"github.com/gladosdev/glados-backend/pkg/db"
	"github.com/gladosdev/glados-backend/pkg/db/models"
	"github.com/gladosdev/glados-backend/pkg/logger"
	"github.com/gladosdev/glados-backend/pkg/security"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := gorm.Open(sqlite.Open("file:routes_"+name+"?mode=memory&cache=shared"), &gorm.Config{
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

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "test-secret", Issuer: "glados", ExpirationMinutes: 60},
		Password: config.PasswordConfig{
			MinLength:        8,
			ArgonMemoryKB:    8,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     8,
			ArgonKeyLen:      16,
		},
	}
	if err := cfg.Procurement.CompilePatterns(); err != nil {
		t.Fatalf("compile patterns: %v", err)
	}
	return cfg
}

func newTestRouter(t *testing.T, conn *gorm.DB, cfg *config.Config) http.Handler {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
	dbClient := db.NewFromGorm(conn)
	userRepo := users.NewRepository(conn)

	userSvc, err := users.NewService(userRepo, cfg.Password)
	require.NoError(t, err)
	notificationSvc, err := notifications.NewService(notifications.NewRepository(conn))
	require.NoError(t, err)
	projectSvc, err := projects.NewService(projects.NewRepository(conn), dbClient, userRepo, cfg.Procurement)
	require.NoError(t, err)
	itemSvc, err := items.NewService(items.NewRepository(conn), dbClient, projects.NewRepository(conn), notificationSvc, logg)
	require.NoError(t, err)
	projectSvc.AttachCascader(itemSvc)

	return NewRouter(Deps{
		Cfg:           cfg,
		Logg:          logg,
		DBPinger:      dbClient,
		UserSource:    userRepo,
		Users:         userSvc,
		Projects:      projectSvc,
		Items:         itemSvc,
		Notifications: notificationSvc,
	})
}

func seedAdmin(t *testing.T, conn *gorm.DB, cfg *config.Config) *models.User {
	t.Helper()

	hash, err := security.HashPassword("admin-password", cfg.Password)
	require.NoError(t, err)
	admin := &models.User{
		Username:       "admin",
		FullName:       "Admin",
		Email:          "admin@example.com",
		HashedPassword: hash,
		IsActive:       true,
		IsSuperuser:    true,
		IsAdminuser:    true,
	}
	require.NoError(t, conn.Create(admin).Error)
	return admin
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, handler http.Handler, username, password string) string {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.AccessToken)
	return body.Data.AccessToken
}

func TestRouterHealthAndPublicPing(t *testing.T) {
	conn := openTestDB(t)
	handler := newTestRouter(t, conn, testConfig(t))

	rec := doJSON(t, handler, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/public/ping", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterRejectsMissingCredentials(t *testing.T) {
	conn := openTestDB(t)
	handler := newTestRouter(t, conn, testConfig(t))

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/items", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/items", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterLoginAndItemFlow(t *testing.T) {
	conn := openTestDB(t)
	cfg := testConfig(t)
	handler := newTestRouter(t, conn, cfg)
	admin := seedAdmin(t, conn, cfg)

	token := login(t, handler, admin.Username, "admin-password")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/projects", token, map[string]any{
		"number":             "P0000001",
		"customer":           "ACME",
		"designated_user_id": admin.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/items", token, map[string]any{
		"project_number": "P0000001",
		"quantity":       2,
		"unit":           "pcs",
		"partnumber":     "PN-1",
		"order_number":   "ORD-1",
		"manufacturer":   "ACME",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data struct {
			ID     int64  `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "open", created.Data.Status)

	rec = doJSON(t, handler, http.MethodPut, fmt.Sprintf("/api/v1/items/%d/status", created.Data.ID), token, map[string]string{
		"status": "requested",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/items?status=requested", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Data struct {
			Total int64 `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.EqualValues(t, 1, page.Data.Total)
}

func TestRouterPersonalAccessToken(t *testing.T) {
	conn := openTestDB(t)
	cfg := testConfig(t)
	handler := newTestRouter(t, conn, cfg)
	admin := seedAdmin(t, conn, cfg)

	token := login(t, handler, admin.Username, "admin-password")

	rec := doJSON(t, handler, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/token", admin.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var minted struct {
		Data struct {
			PersonalAccessToken string `json:"personal_access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &minted))
	require.NotEmpty(t, minted.Data.PersonalAccessToken)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/users/me", minted.Data.PersonalAccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRouterNotificationsRequireElevation(t *testing.T) {
	conn := openTestDB(t)
	cfg := testConfig(t)
	handler := newTestRouter(t, conn, cfg)
	admin := seedAdmin(t, conn, cfg)

	hash, err := security.HashPassword("user-password", cfg.Password)
	require.NoError(t, err)
	normal := &models.User{
		Username:       "normal",
		FullName:       "Normal",
		Email:          "normal@example.com",
		HashedPassword: hash,
		IsActive:       true,
	}
	require.NoError(t, conn.Create(normal).Error)

	userToken := login(t, handler, normal.Username, "user-password")
	rec := doJSON(t, handler, http.MethodGet, "/api/v1/notifications", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminToken := login(t, handler, admin.Username, "admin-password")
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/notifications", adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
