package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"

	"github.com/example/task-manager/config"
	"github.com/example/task-manager/database"
	"github.com/example/task-manager/domain/apperror"
	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/events"
	"github.com/example/task-manager/tasklist"
)

// TaskModule owns the tasks table and exposes owner-scoped CRUD services.
type TaskModule struct {
	cfg      *config.Config
	db       *gorm.DB
	service  *TaskService
	eventBus mono.EventBus
	logger   types.Logger
}

var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.EventBusAwareModule = (*TaskModule)(nil)
var _ mono.EventEmitterModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule.
func NewModule(cfg *config.Config, logger types.Logger) *TaskModule {
	return &TaskModule{
		cfg:    cfg,
		logger: logger.WithModule("task"),
	}
}

func (m *TaskModule) Name() string {
	return "task"
}

func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskUpdatedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-task", json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-task", json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task", json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register update-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}

	m.logger.Info("Registered services", "services", "create-task, get-task, update-task, delete-task, list-tasks")
	return nil
}

func (m *TaskModule) Start(_ context.Context) error {
	db, err := database.Open(m.cfg)
	if err != nil {
		return err
	}
	m.db = db

	repo := NewTaskRepository(db)
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if m.eventBus == nil {
		m.logger.Warn("EventBus not set, events will not be published")
	}
	m.service = NewTaskService(repo, m.eventBus, m.logger)

	m.logger.Info("Module started", "database", database.Describe(m.cfg))
	return nil
}

func (m *TaskModule) Stop(_ context.Context) error {
	if err := database.Close(m.db); err != nil {
		m.logger.Error("Failed to close database", "error", err)
	}
	m.logger.Info("Module stopped")
	return nil
}

// Health reports whether the tasks database answers.
func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if err := database.Ping(ctx, m.db); err != nil {
		return mono.HealthStatus{Healthy: false, Message: err.Error()}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational"}
}

func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.Create(ctx, req.OwnerID, req.Draft)
	if err != nil {
		return TaskResponse{Fault: m.fault("create-task", err)}, nil
	}
	return TaskResponse{Task: t}, nil
}

func (m *TaskModule) getTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.Get(ctx, req.OwnerID, req.TaskID)
	if err != nil {
		return TaskResponse{Fault: m.fault("get-task", err)}, nil
	}
	return TaskResponse{Task: t}, nil
}

func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.Update(ctx, req.OwnerID, req.TaskID, req.Patch)
	if err != nil {
		return TaskResponse{Fault: m.fault("update-task", err)}, nil
	}
	return TaskResponse{Task: t}, nil
}

func (m *TaskModule) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.Delete(ctx, req.OwnerID, req.TaskID); err != nil {
		return DeleteTaskResponse{Fault: m.fault("delete-task", err)}, nil
	}
	return DeleteTaskResponse{Deleted: true}, nil
}

func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	filter, err := filterFrom(req)
	if err != nil {
		return ListTasksResponse{Fault: apperror.New(apperror.Validation, err.Error())}, nil
	}

	tasks, err := m.service.List(ctx, req.OwnerID, filter)
	if err != nil {
		return ListTasksResponse{Fault: m.fault("list-tasks", err)}, nil
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return ListTasksResponse{Tasks: tasks, Total: len(tasks)}, nil
}

// filterFrom parses the optional selections of a list request.
func filterFrom(req ListTasksRequest) (tasklist.Filter, error) {
	status, err := tasklist.ParseStatus(req.Status)
	if err != nil {
		return tasklist.Filter{}, err
	}
	priority, err := tasklist.ParsePriority(req.Priority)
	if err != nil {
		return tasklist.Filter{}, err
	}
	week, err := tasklist.ParseWeek(req.Week)
	if err != nil {
		return tasklist.Filter{}, err
	}
	return tasklist.Filter{Status: status, Priority: priority, Week: week}, nil
}

func (m *TaskModule) fault(op string, err error) *apperror.Error {
	switch apperror.KindOf(err) {
	case apperror.Internal, apperror.Unavailable:
		m.logger.Error("Task operation failed", "operation", op, "error", err)
	}
	return apperror.Public(err)
}
