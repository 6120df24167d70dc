package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/task-manager/domain/apperror"
	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/modules/activity"
	"github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/auth"
	taskmod "github.com/example/task-manager/modules/task"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	auth     auth.AuthPort
	tasks    taskmod.TaskPort
	activity activity.Port
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authPort auth.AuthPort, tasks taskmod.TaskPort, feed activity.Port) *Handlers {
	return &Handlers{
		auth:     authPort,
		tasks:    tasks,
		activity: feed,
	}
}

// parseBody decodes a JSON body, reporting malformed input as a validation
// failure.
func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return badRequest("Invalid request body: " + err.Error())
	}
	return nil
}

// writeTokens answers with a token pair. A reply without one is a server
// fault.
func writeTokens(c *fiber.Ctx, status int, tokens *user.TokenPair, profile *user.Profile) error {
	if tokens == nil {
		return apperror.New(apperror.Internal, "auth service returned no tokens")
	}
	return c.Status(status).JSON(AuthResponse{TokenPair: *tokens, User: profile})
}

// Register handles user registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req auth.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return badRequest("Email and password are required")
	}

	tokens, profile, err := h.auth.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return writeTokens(c, fiber.StatusCreated, tokens, profile)
}

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req auth.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return badRequest("Email and password are required")
	}

	tokens, err := h.auth.Login(c.UserContext(), req)
	if err != nil {
		return err
	}
	return writeTokens(c, fiber.StatusOK, tokens, nil)
}

// Refresh handles token refresh.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req auth.RefreshRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.RefreshToken == "" {
		return badRequest("Refresh token is required")
	}

	tokens, err := h.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}
	return writeTokens(c, fiber.StatusOK, tokens, nil)
}

// Profile returns the caller's account.
func (h *Handlers) Profile(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}

	profile, err := h.auth.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

// CreateTask handles POST /tasks.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}

	var draft domain.Draft
	if err := parseBody(c, &draft); err != nil {
		return err
	}

	t, err := h.tasks.CreateTask(c.UserContext(), claims.UserID, draft)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// ListTasks handles GET /tasks with optional status, priority and week
// query parameters.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}

	tasks, err := h.tasks.ListTasks(c.UserContext(), taskmod.ListTasksRequest{
		OwnerID:  claims.UserID,
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Week:     c.Query("week"),
	})
	if err != nil {
		return err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return c.JSON(TaskListResponse{Tasks: tasks, Total: len(tasks)})
}

// GetTask handles GET /tasks/:id.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}

	t, err := h.tasks.GetTask(c.UserContext(), claims.UserID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(t)
}

// UpdateTask handles PATCH and PUT /tasks/:id. Only fields present in the
// body change.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}

	var patch domain.Patch
	if err := parseBody(c, &patch); err != nil {
		return err
	}

	t, err := h.tasks.UpdateTask(c.UserContext(), claims.UserID, c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(t)
}

// DeleteTask handles DELETE /tasks/:id.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}

	id := c.Params("id")
	if err := h.tasks.DeleteTask(c.UserContext(), claims.UserID, id); err != nil {
		return err
	}
	return c.JSON(DeleteResponse{Message: "Task deleted successfully", ID: id})
}

// Activity handles GET /activity.
func (h *Handlers) Activity(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}

	entries, err := h.activity.List(c.UserContext(), claims.UserID)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	return c.JSON(ActivityResponse{Entries: entries})
}
