package task

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/task-manager/domain/apperror"
	domain "github.com/example/task-manager/domain/task"
)

// ErrTaskNotFound covers both missing tasks and tasks owned by someone else.
var ErrTaskNotFound = apperror.New(apperror.NotFound, "task not found")

// TaskRepository persists tasks. Every method takes the owner and scopes its
// query by it; there is no unscoped read.
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Migrate creates or updates the tasks table.
func (r *TaskRepository) Migrate() error {
	return r.db.AutoMigrate(&domain.Task{})
}

func (r *TaskRepository) owned(ctx context.Context, ownerID string) *gorm.DB {
	return r.db.WithContext(ctx).Where("created_by = ?", ownerID)
}

// Create inserts a task.
func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// ListByOwner returns the owner's tasks, newest first. Ids are time-ordered
// and break ties between equal creation timestamps.
func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.owned(ctx, ownerID).
		Order("created_date DESC").
		Order("id DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// FindByID returns the task only if ownerID owns it.
func (r *TaskRepository) FindByID(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	var t domain.Task
	if err := r.owned(ctx, ownerID).First(&t, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Save writes every column of t back, scoped by its owner.
func (r *TaskRepository) Save(ctx context.Context, t *domain.Task) error {
	res := r.owned(ctx, t.CreatedBy).
		Model(&domain.Task{}).
		Where("id = ?", t.ID).
		Select("title", "description", "due_date", "status", "priority", "last_update_date").
		Updates(t)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Delete removes the task only if ownerID owns it.
func (r *TaskRepository) Delete(ctx context.Context, ownerID, taskID string) error {
	res := r.owned(ctx, ownerID).Where("id = ?", taskID).Delete(&domain.Task{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}
