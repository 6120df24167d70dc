package task

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/example/task-manager/domain/apperror"
)

// Status represents the state of a task.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusOngoing  Status = "Ongoing"
	StatusComplete Status = "Complete"
	StatusCancel   Status = "Cancel"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusOngoing, StatusComplete, StatusCancel}

// Valid reports whether s is one of the fixed statuses. Matching is exact.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// Priority represents how urgent a task is.
type Priority string

const (
	PriorityLow       Priority = "Low"
	PriorityMedium    Priority = "Medium"
	PriorityHigh      Priority = "High"
	PriorityEmergency Priority = "Emergency"
)

// Priorities lists every priority in ascending urgency.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityEmergency}

// Valid reports whether p is one of the fixed priorities. Matching is exact.
func (p Priority) Valid() bool {
	return slices.Contains(Priorities, p)
}

// Task is a to-do item owned by exactly one user.
type Task struct {
	ID             string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedBy      string    `gorm:"index;not null;type:text" json:"createdBy"`
	Title          string    `gorm:"not null;type:text" json:"title"`
	Description    string    `gorm:"type:text" json:"description"`
	DueDate        Date      `gorm:"not null;type:text" json:"dueDate"`
	Status         Status    `gorm:"not null;type:text" json:"status"`
	Priority       Priority  `gorm:"not null;type:text" json:"priority"`
	CreatedDate    time.Time `gorm:"not null;index" json:"createdDate"`
	LastUpdateDate time.Time `json:"lastUpdateDate"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// Draft holds the caller-supplied fields of a new task.
type Draft struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	DueDate     Date     `json:"dueDate"`
	Status      Status   `json:"status,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
}

// Validate checks the draft before anything is stored.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return apperror.New(apperror.Validation, "title is required")
	}
	if d.DueDate.IsZero() {
		return apperror.New(apperror.Validation, "dueDate is required")
	}
	if d.Status != "" && !d.Status.Valid() {
		return apperror.Newf(apperror.Validation, "invalid status %q", d.Status)
	}
	if d.Priority != "" && !d.Priority.Valid() {
		return apperror.Newf(apperror.Validation, "invalid priority %q", d.Priority)
	}
	return nil
}

// New materializes a validated draft. Missing status and priority fall back
// to Pending and Medium.
func New(id, owner string, d Draft, now time.Time) (*Task, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if owner == "" {
		return nil, fmt.Errorf("task owner is required")
	}
	t := &Task{
		ID:             id,
		CreatedBy:      owner,
		Title:          strings.TrimSpace(d.Title),
		Description:    strings.TrimSpace(d.Description),
		DueDate:        d.DueDate,
		Status:         d.Status,
		Priority:       d.Priority,
		CreatedDate:    now,
		LastUpdateDate: now,
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	return t, nil
}

// Patch is a partial update. Nil fields keep their previous value.
type Patch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	DueDate     *Date     `json:"dueDate,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil && p.Status == nil && p.Priority == nil
}

// Fields names the supplied fields in wire form.
func (p Patch) Fields() []string {
	var fields []string
	if p.Title != nil {
		fields = append(fields, "title")
	}
	if p.Description != nil {
		fields = append(fields, "description")
	}
	if p.DueDate != nil {
		fields = append(fields, "dueDate")
	}
	if p.Status != nil {
		fields = append(fields, "status")
	}
	if p.Priority != nil {
		fields = append(fields, "priority")
	}
	return fields
}

// Validate checks every supplied field.
func (p Patch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return apperror.New(apperror.Validation, "title cannot be empty")
	}
	if p.DueDate != nil && p.DueDate.IsZero() {
		return apperror.New(apperror.Validation, "dueDate cannot be empty")
	}
	if p.Status != nil && !p.Status.Valid() {
		return apperror.Newf(apperror.Validation, "invalid status %q", *p.Status)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return apperror.Newf(apperror.Validation, "invalid priority %q", *p.Priority)
	}
	return nil
}

// Apply merges a validated patch into t. Owner and creation date are never
// touched.
func (p Patch) Apply(t *Task, now time.Time) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	t.LastUpdateDate = now
}
