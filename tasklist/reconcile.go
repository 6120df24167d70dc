package tasklist

import (
	"time"

	"github.com/example/task-manager/domain/task"
)

// Mutation is the successful result of a server call that changes the list.
type Mutation interface {
	apply(tasks []task.Task) []task.Task
}

// Loaded replaces the whole list with a fresh server listing.
type Loaded struct {
	Tasks []task.Task
}

// Created prepends a newly created task.
type Created struct {
	Task task.Task
}

// Updated replaces the task with the same id.
type Updated struct {
	Task task.Task
}

// Deleted removes the task with the given id.
type Deleted struct {
	ID string
}

// Reconcile folds m into tasks and returns the new list. The input is never
// modified.
func Reconcile(tasks []task.Task, m Mutation) []task.Task {
	return m.apply(tasks)
}

func (m Loaded) apply(_ []task.Task) []task.Task {
	return clone(m.Tasks)
}

// A stale copy of the same id is dropped so ids stay unique.
func (m Created) apply(tasks []task.Task) []task.Task {
	out := make([]task.Task, 0, len(tasks)+1)
	out = append(out, m.Task)
	for _, t := range tasks {
		if t.ID != m.Task.ID {
			out = append(out, t)
		}
	}
	return out
}

func (m Updated) apply(tasks []task.Task) []task.Task {
	out := clone(tasks)
	for i := range out {
		if out[i].ID == m.Task.ID {
			out[i] = m.Task
		}
	}
	return out
}

func (m Deleted) apply(tasks []task.Task) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != m.ID {
			out = append(out, t)
		}
	}
	return out
}

func clone(tasks []task.Task) []task.Task {
	out := make([]task.Task, len(tasks))
	copy(out, tasks)
	return out
}

// IsOverdue reports whether t is past due on today and not yet complete.
func IsOverdue(t task.Task, today task.Date) bool {
	return t.Status != task.StatusComplete && t.DueDate.Before(today)
}

// Find returns the task with the given id.
func Find(tasks []task.Task, id string) (task.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return task.Task{}, false
}

// DueIn returns how many days remain until t is due, negative when overdue.
func DueIn(t task.Task, now time.Time) int {
	return task.DateOf(now).DaysUntil(t.DueDate)
}
