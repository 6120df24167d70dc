// Package tasklist holds the client-side task list logic: the filter engine,
// the week selector, and the reconciler that folds mutation results into the
// local list. Everything here is pure and never mutates its inputs.
package tasklist

import (
	"fmt"
	"strings"

	"github.com/example/task-manager/domain/task"
)

// All is the selection that disables the status or priority predicate.
const All = "All"

// Filter is the conjunction of three independent predicates. An empty or
// All status/priority and a nil week are inactive.
type Filter struct {
	Status   task.Status   `json:"status"`
	Priority task.Priority `json:"priority"`
	Week     *Week         `json:"week,omitempty"`
}

// NoFilter returns the filter that shows every task.
func NoFilter() Filter {
	return Filter{Status: All, Priority: All}
}

// Active reports whether any predicate can exclude a task.
func (f Filter) Active() bool {
	return f.statusActive() || f.priorityActive() || f.Week != nil
}

func (f Filter) statusActive() bool {
	return f.Status != "" && f.Status != All
}

func (f Filter) priorityActive() bool {
	return f.Priority != "" && f.Priority != All
}

// Matches reports whether t passes every active predicate.
func (f Filter) Matches(t task.Task) bool {
	if f.statusActive() && t.Status != f.Status {
		return false
	}
	if f.priorityActive() && t.Priority != f.Priority {
		return false
	}
	if f.Week != nil && !f.Week.Contains(t.DueDate) {
		return false
	}
	return true
}

// Apply returns the tasks that pass f, in their original order. The result is
// always a new slice.
func Apply(tasks []task.Task, f Filter) []task.Task {
	visible := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Matches(t) {
			visible = append(visible, t)
		}
	}
	return visible
}

// ParseStatus reads a status selection; "" and "all" (any case) mean All.
func ParseStatus(s string) (task.Status, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, All) {
		return All, nil
	}
	st := task.Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// ParsePriority reads a priority selection; "" and "all" (any case) mean All.
func ParsePriority(s string) (task.Priority, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, All) {
		return All, nil
	}
	p := task.Priority(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

// ParseWeek reads a week selection from any day inside it. "" means no week.
func ParseWeek(s string) (*Week, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	day, err := task.ParseDate(s)
	if err != nil {
		return nil, err
	}
	w := WeekOf(day)
	return &w, nil
}
