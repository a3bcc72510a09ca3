package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gladosdev/glados-backend/api/controllers"
	"github.com/gladosdev/glados-backend/api/middleware"
	"github.com/gladosdev/glados-backend/internal/items"
	"github.com/gladosdev/glados-backend/internal/notifications"
	"github.com/gladosdev/glados-backend/internal/projects"
	"github.com/gladosdev/glados-backend/internal/users"
	"github.com/gladosdev/glados-backend/pkg/config"
	"github.com/gladosdev/glados-backend/pkg/logger"
	"github.com/gladosdev/glados-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Cfg        *config.Config
	Logg       *logger.Logger
	Redis      *redis.Client
	DBPinger   controllers.Pinger
	UserSource middleware.UserSource

	Users         users.Service
	Projects      projects.Service
	Items         items.Service
	Notifications notifications.Service
}

// NewRouter builds the chi handler tree.
func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Cfg, d.Logg

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)
	rfidPolicy := middleware.NewAuthRateLimitPolicy(
		"rfid",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		0,
	)

	limited := func(policy middleware.AuthRateLimitPolicy) func(http.Handler) http.Handler {
		if d.Redis == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return middleware.AuthRateLimit(policy, d.Redis, logg)
	}

	pingers := map[string]controllers.Pinger{"db": d.DBPinger}
	if d.Redis != nil {
		pingers["redis"] = d.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})

	r.Get("/api/public/ping", controllers.PublicPing())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(limited(loginPolicy)).Post("/login", controllers.AuthLogin(d.Users, cfg.JWT, logg))
		r.With(limited(rfidPolicy)).Post("/rfid", controllers.AuthLoginRFID(d.Users, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.UserSource, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/users", func(r chi.Router) {
			r.Post("/", controllers.UserCreate(d.Users, logg))
			r.Get("/", controllers.UserList(d.Users, logg))
			r.Get("/me", controllers.UserMe(logg))
			r.Get("/{userID}", controllers.UserGet(d.Users, logg))
			r.Put("/{userID}", controllers.UserUpdate(d.Users, logg))
			r.Post("/{userID}/token", controllers.UserMintToken(d.Users, logg))
		})

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", controllers.ProjectCreate(d.Projects, logg))
			r.Get("/", controllers.ProjectList(d.Projects, logg))
			r.Get("/mine", controllers.ProjectListMine(d.Projects, logg))
			r.Get("/number/{number}", controllers.ProjectGetByNumber(d.Projects, logg))
			r.Get("/{projectID}", controllers.ProjectGet(d.Projects, logg))
			r.Put("/{projectID}", controllers.ProjectUpdate(d.Projects, logg))
			r.With(middleware.RequireElevated(logg)).Delete("/{projectID}", controllers.ProjectDelete(d.Projects, logg))
		})

		r.Route("/items", func(r chi.Router) {
			r.Post("/", controllers.ItemCreate(d.Items, logg))
			r.Get("/", controllers.ItemList(d.Items, logg))
			r.Get("/{itemID}", controllers.ItemGet(d.Items, logg))
			r.Put("/{itemID}", controllers.ItemUpdateFields(d.Items, logg))
			r.Put("/{itemID}/status", controllers.ItemUpdateStatus(d.Items, logg))
			r.Put("/{itemID}/project", controllers.ItemUpdateProject(d.Items, logg))
			r.Put("/{itemID}/fields/{field}", controllers.ItemUpdateField(d.Items, logg))
			r.Delete("/{itemID}", controllers.ItemDelete(d.Items, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(middleware.RequireElevated(logg))
			r.Get("/", controllers.NotificationList(d.Notifications, logg))
			r.Post("/{notificationID}/sent", controllers.NotificationMarkSent(d.Notifications, logg))
		})
	})

	return r
}
