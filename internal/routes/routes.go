package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/harborbank/portal/internal/account"
	"github.com/harborbank/portal/internal/admin"
	"github.com/harborbank/portal/internal/audit"
	"github.com/harborbank/portal/internal/config"
	"github.com/harborbank/portal/internal/coreapi"
	"github.com/harborbank/portal/internal/guard"
	"github.com/harborbank/portal/internal/logging"
	"github.com/harborbank/portal/internal/middleware"
	"github.com/harborbank/portal/internal/notification"
	"github.com/harborbank/portal/internal/product"
	"github.com/harborbank/portal/internal/profile"
	"github.com/harborbank/portal/internal/report"
	"github.com/harborbank/portal/internal/session"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Core   coreapi.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Core == nil {
		return fmt.Errorf("core API client is required")
	}
	if d.Cache == nil {
		return fmt.Errorf("redis is required for sessions")
	}
	// The audit trail falls back to memory in dev only.
	if !isDev(d.Cfg.AppEnv) && d.DB == nil {
		return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.AccessLog(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	var auditLog audit.Repository
	if d.DB != nil {
		auditLog = audit.NewPostgresRepository(d.DB)
	} else {
		auditLog = audit.NewMemoryRepository()
	}

	sessions, err := session.NewManager(d.Cache, []byte(d.Cfg.SessionSecret), d.Cfg.SessionTTL)
	if err != nil {
		return err
	}

	events := sessions.Subscribe()
	go func() {
		for event := range events {
			d.Logger.Debug("session event", "kind", string(event.Kind), "session_id", event.SessionID, "user_id", event.UserID)
		}
	}()

	notifier := notification.NewLoggerNotifier(d.Logger)

	sessionHandler := session.NewHandler(d.Core, sessions, auditLog, logging.Component(d.Logger, "session"))
	profileHandler := profile.NewHandler(
		profile.NewService(d.Core),
		profile.NewResetService(d.Core, d.Cache, notifier, auditLog, d.Cfg.ResetCodeTTL, logging.Component(d.Logger, "reset")),
	)
	accountHandler := account.NewHandler(account.NewService(d.Core, auditLog, logging.Component(d.Logger, "account")))
	productHandler := product.NewHandler(product.NewService(d.Core, auditLog, logging.Component(d.Logger, "product")))
	adminHandler := admin.NewHandler(admin.NewService(d.Core, auditLog, logging.Component(d.Logger, "admin")))
	reportLogger := logging.Component(d.Logger, "report")
	reportHandler := report.NewHandler(
		report.NewService(d.Core, reportLogger, d.Cfg.ReportFetchConcurrency),
		auditLog,
		reportLogger,
	)

	g := guard.Deps{Sessions: sessions, Core: d.Core, Logger: logging.Component(d.Logger, "guard")}

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	rateLimiter := middleware.SignInRateLimit(d.Cache, d.Cfg.SignInRatePerMinute)
	RegisterAuthRoutes(api, sessionHandler, profileHandler, g, rateLimiter)
	RegisterUserRoutes(api, accountHandler, profileHandler, productHandler, reportHandler, g)
	RegisterAdminRoutes(api, adminHandler, productHandler, reportHandler, g)

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
