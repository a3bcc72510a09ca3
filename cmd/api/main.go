package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/gladosdev/glados-backend/api/routes"
	"github.com/gladosdev/glados-backend/internal/items"
	"github.com/gladosdev/glados-backend/internal/notifications"
	"github.com/gladosdev/glados-backend/internal/projects"
	"github.com/gladosdev/glados-backend/internal/users"
	"github.com/gladosdev/glados-backend/pkg/config"
	"github.com/gladosdev/glados-backend/pkg/db"
	"github.com/gladosdev/glados-backend/pkg/logger"
	"github.com/gladosdev/glados-backend/pkg/migrate"
	"github.com/gladosdev/glados-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	userRepo := users.NewRepository(dbClient.DB())
	projectRepo := projects.NewRepository(dbClient.DB())
	itemRepo := items.NewRepository(dbClient.DB())
	notificationRepo := notifications.NewRepository(dbClient.DB())

	userService, err := users.NewService(userRepo, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}
	notificationService, err := notifications.NewService(notificationRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}
	projectService, err := projects.NewService(projectRepo, dbClient, userRepo, cfg.Procurement)
	if err != nil {
		logg.Error(context.Background(), "failed to create project service", err)
		os.Exit(1)
	}
	itemService, err := items.NewService(itemRepo, dbClient, projectRepo, notificationService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create item service", err)
		os.Exit(1)
	}
	projectService.AttachCascader(itemService)

	if cfg.Bootstrap.SystemUserPassword != "" {
		if _, err := userService.EnsureSystemUser(context.Background(), cfg.Bootstrap.SystemUserPassword); err != nil {
			logg.Error(context.Background(), "failed to ensure system user", err)
			os.Exit(1)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Cfg:           cfg,
			Logg:          logg,
			Redis:         redisClient,
			DBPinger:      dbClient,
			UserSource:    userRepo,
			Users:         userService,
			Projects:      projectService,
			Items:         itemService,
			Notifications: notificationService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
