package task

import (
	"github.com/example/task-manager/domain/apperror"
	domain "github.com/example/task-manager/domain/task"
)

// Every request names its owner; the api module fills OwnerID from the
// validated token, never from client input. Failures come back in Fault.

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	OwnerID string       `json:"owner_id"`
	Draft   domain.Draft `json:"draft"`
}

// GetTaskRequest is the request for getting a task.
type GetTaskRequest struct {
	OwnerID string `json:"owner_id"`
	TaskID  string `json:"task_id"`
}

// UpdateTaskRequest is the request for a partial update.
type UpdateTaskRequest struct {
	OwnerID string       `json:"owner_id"`
	TaskID  string       `json:"task_id"`
	Patch   domain.Patch `json:"patch"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	OwnerID string `json:"owner_id"`
	TaskID  string `json:"task_id"`
}

// ListTasksRequest is the request for listing tasks. Empty selections mean
// no filtering.
type ListTasksRequest struct {
	OwnerID  string `json:"owner_id"`
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
	Week     string `json:"week,omitempty"`
}

// TaskResponse carries one task.
type TaskResponse struct {
	Task  *domain.Task    `json:"task,omitempty"`
	Fault *apperror.Error `json:"fault,omitempty"`
}

// DeleteTaskResponse is the response for deleting a task.
type DeleteTaskResponse struct {
	Deleted bool            `json:"deleted"`
	Fault   *apperror.Error `json:"fault,omitempty"`
}

// ListTasksResponse is the response for listing tasks.
type ListTasksResponse struct {
	Tasks []domain.Task   `json:"tasks"`
	Total int             `json:"total"`
	Fault *apperror.Error `json:"fault,omitempty"`
}
