package task

import (
	"context"
	"encoding/json"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/task-manager/domain/apperror"
	domain "github.com/example/task-manager/domain/task"
)

// TaskPort is the driving port other modules use to reach task storage.
type TaskPort interface {
	CreateTask(ctx context.Context, ownerID string, draft domain.Draft) (*domain.Task, error)
	ListTasks(ctx context.Context, req ListTasksRequest) ([]domain.Task, error)
	GetTask(ctx context.Context, ownerID, taskID string) (*domain.Task, error)
	UpdateTask(ctx context.Context, ownerID, taskID string, patch domain.Patch) (*domain.Task, error)
	DeleteTask(ctx context.Context, ownerID, taskID string) error
}

// taskAdapter implements TaskPort over the task module's services.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new adapter for task services.
// container is the ServiceContainer received via SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

func (a *taskAdapter) call(ctx context.Context, service string, req, resp any) error {
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return apperror.Wrap(apperror.Unavailable, service+" service call failed", err)
	}
	return nil
}

func (a *taskAdapter) CreateTask(ctx context.Context, ownerID string, draft domain.Draft) (*domain.Task, error) {
	req := CreateTaskRequest{OwnerID: ownerID, Draft: draft}
	var resp TaskResponse
	if err := a.call(ctx, "create-task", &req, &resp); err != nil {
		return nil, err
	}
	return resp.Task, resp.Fault.Err()
}

func (a *taskAdapter) ListTasks(ctx context.Context, req ListTasksRequest) ([]domain.Task, error) {
	var resp ListTasksResponse
	if err := a.call(ctx, "list-tasks", &req, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, resp.Fault.Err()
}

func (a *taskAdapter) GetTask(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	req := GetTaskRequest{OwnerID: ownerID, TaskID: taskID}
	var resp TaskResponse
	if err := a.call(ctx, "get-task", &req, &resp); err != nil {
		return nil, err
	}
	return resp.Task, resp.Fault.Err()
}

func (a *taskAdapter) UpdateTask(ctx context.Context, ownerID, taskID string, patch domain.Patch) (*domain.Task, error) {
	req := UpdateTaskRequest{OwnerID: ownerID, TaskID: taskID, Patch: patch}
	var resp TaskResponse
	if err := a.call(ctx, "update-task", &req, &resp); err != nil {
		return nil, err
	}
	return resp.Task, resp.Fault.Err()
}

func (a *taskAdapter) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	req := DeleteTaskRequest{OwnerID: ownerID, TaskID: taskID}
	var resp DeleteTaskResponse
	if err := a.call(ctx, "delete-task", &req, &resp); err != nil {
		return err
	}
	return resp.Fault.Err()
}
