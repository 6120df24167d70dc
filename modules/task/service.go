package task

import (
	"context"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"

	"github.com/example/task-manager/domain/apperror"
	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/events"
	"github.com/example/task-manager/tasklist"
)

// TaskService implements task store access for a single owner at a time.
type TaskService struct {
	repo     *TaskRepository
	eventBus mono.EventBus
	logger   types.Logger
	now      func() time.Time
	newID    func() (string, error)
}

// NewTaskService creates a new TaskService. eventBus may be nil.
func NewTaskService(repo *TaskRepository, eventBus mono.EventBus, logger types.Logger) *TaskService {
	return &TaskService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
		newID:    newTaskID,
	}
}

// newTaskID returns a UUIDv7, which sorts by creation time.
func newTaskID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func requireOwner(ownerID string) error {
	if ownerID == "" {
		return apperror.New(apperror.Unauthenticated, "owner identity is required")
	}
	return nil
}

// Create validates the draft and stores a new task for ownerID.
func (s *TaskService) Create(ctx context.Context, ownerID string, draft domain.Draft) (*domain.Task, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	id, err := s.newID()
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "failed to generate task id", err)
	}
	t, err := domain.New(id, ownerID, draft, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, apperror.Storage("create task", err)
	}

	s.publish(func(bus mono.EventBus) error {
		return events.TaskCreatedV1.Publish(bus, events.TaskCreatedEvent{
			TaskID:    t.ID,
			OwnerID:   t.CreatedBy,
			Title:     t.Title,
			DueDate:   t.DueDate.String(),
			Status:    string(t.Status),
			Priority:  string(t.Priority),
			CreatedAt: t.CreatedDate,
		}, nil)
	}, "TaskCreated", t.ID)

	return t, nil
}

// List returns the owner's tasks newest first, narrowed by f. Filtering keeps
// the store order.
func (s *TaskService) List(ctx context.Context, ownerID string, f tasklist.Filter) ([]domain.Task, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.Storage("list tasks", err)
	}
	if !f.Active() {
		return tasks, nil
	}
	return tasklist.Apply(tasks, f), nil
}

// Get returns one of the owner's tasks.
func (s *TaskService) Get(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	t, err := s.repo.FindByID(ctx, ownerID, taskID)
	if err != nil {
		return nil, apperror.Storage("get task", err)
	}
	return t, nil
}

// Update applies a validated patch to one of the owner's tasks.
func (s *TaskService) Update(ctx context.Context, ownerID, taskID string, patch domain.Patch) (*domain.Task, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	t, err := s.repo.FindByID(ctx, ownerID, taskID)
	if err != nil {
		return nil, apperror.Storage("get task", err)
	}
	if patch.Empty() {
		return t, nil
	}

	patch.Apply(t, s.now().UTC())
	if err := s.repo.Save(ctx, t); err != nil {
		return nil, apperror.Storage("update task", err)
	}

	s.publish(func(bus mono.EventBus) error {
		return events.TaskUpdatedV1.Publish(bus, events.TaskUpdatedEvent{
			TaskID:    t.ID,
			OwnerID:   t.CreatedBy,
			Title:     t.Title,
			Changed:   patch.Fields(),
			Status:    string(t.Status),
			UpdatedAt: t.LastUpdateDate,
		}, nil)
	}, "TaskUpdated", t.ID)

	return t, nil
}

// Delete removes one of the owner's tasks.
func (s *TaskService) Delete(ctx context.Context, ownerID, taskID string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	t, err := s.repo.FindByID(ctx, ownerID, taskID)
	if err != nil {
		return apperror.Storage("get task", err)
	}
	if err := s.repo.Delete(ctx, ownerID, taskID); err != nil {
		return apperror.Storage("delete task", err)
	}

	s.publish(func(bus mono.EventBus) error {
		return events.TaskDeletedV1.Publish(bus, events.TaskDeletedEvent{
			TaskID:    t.ID,
			OwnerID:   t.CreatedBy,
			Title:     t.Title,
			DeletedAt: s.now().UTC(),
		}, nil)
	}, "TaskDeleted", t.ID)

	return nil
}

// publish sends an event best-effort; a failure is logged, never returned.
func (s *TaskService) publish(send func(mono.EventBus) error, name, taskID string) {
	if s.eventBus == nil {
		return
	}
	if err := send(s.eventBus); err != nil {
		s.logger.Warn(fmt.Sprintf("Failed to publish %s event", name), "task_id", taskID, "error", err)
	}
}
