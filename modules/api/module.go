package api

import (
	"context"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/task-manager/config"
	"github.com/example/task-manager/modules/activity"
	"github.com/example/task-manager/modules/auth"
	taskmod "github.com/example/task-manager/modules/task"
)

// APIModule is the HTTP API module.
type APIModule struct {
	cfg          *config.Config
	app          *fiber.App
	storage      fiber.Storage
	logger       types.Logger
	authPort     auth.AuthPort
	taskPort     taskmod.TaskPort
	activityPort activity.Port
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule.
func NewModule(cfg *config.Config, logger types.Logger) *APIModule {
	return &APIModule{
		cfg:    cfg,
		logger: logger.WithModule("api"),
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "task", "activity"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authPort = auth.NewAuthAdapter(container)
	case "task":
		m.taskPort = taskmod.NewTaskAdapter(container)
	case "activity":
		m.activityPort = activity.NewAdapter(container)
	}
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.authPort == nil || m.taskPort == nil || m.activityPort == nil {
		return fmt.Errorf("auth, task and activity dependencies must be set")
	}

	storage, err := openLimiterStorage(m.cfg.RedisAddr)
	if err != nil {
		return err
	}
	m.storage = storage

	m.app = newApp(
		NewHandlers(m.authPort, m.taskPort, m.activityPort),
		m.authPort,
		authLimiter(m.cfg.AuthRateLimit, storage),
		m.logger,
	)
	addr := m.cfg.ListenAddr()
	go func() {
		if err := m.app.Listen(addr); err != nil {
			m.logger.Error("HTTP server error", "error", err)
		}
	}()

	m.logger.Info("HTTP server started", "addr", addr, "rate_limit_storage", m.limiterBackend())
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server...")
	err := m.app.Shutdown()
	if m.storage != nil {
		if cerr := m.storage.Close(); cerr != nil {
			m.logger.Warn("Failed to close rate limit storage", "error", cerr)
		}
	}
	return err
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port":               m.cfg.HTTPPort,
			"rate_limit_storage": m.limiterBackend(),
		},
	}
}

func (m *APIModule) limiterBackend() string {
	if m.storage != nil {
		return "redis"
	}
	return "memory"
}

// newApp builds the Fiber app and its routes.
func newApp(h *Handlers, authPort auth.AuthPort, limit fiber.Handler, log types.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"module": "api",
		})
	})

	v1 := app.Group("/api/v1")

	authRoutes := v1.Group("/auth", limit)
	authRoutes.Post("/register", h.Register)
	authRoutes.Post("/login", h.Login)
	authRoutes.Post("/refresh", h.Refresh)

	// Mounted on /api/v1 as a whole; the auth routes above match first.
	protected := v1.Group("", AuthMiddleware(authPort))
	protected.Get("/profile", h.Profile)
	protected.Get("/activity", h.Activity)

	tasks := protected.Group("/tasks")
	tasks.Post("/", h.CreateTask)
	tasks.Get("/", h.ListTasks)
	tasks.Get("/:id", h.GetTask)
	tasks.Patch("/:id", h.UpdateTask)
	tasks.Put("/:id", h.UpdateTask)
	tasks.Delete("/:id", h.DeleteTask)

	return app
}
