package tasklist

import "github.com/example/task-manager/domain/task"

// State is the client's application state: the source list in server order
// and the current filter selections. A State is never modified in place;
// every transition returns a new value, and the visible subset is always
// derived from the two.
type State struct {
	tasks  []task.Task
	filter Filter
}

// NewState builds a state from a list and a filter.
func NewState(tasks []task.Task, f Filter) State {
	return State{tasks: clone(tasks), filter: f}
}

// Tasks returns a copy of the unfiltered list.
func (s State) Tasks() []task.Task {
	return clone(s.tasks)
}

// Len returns the size of the unfiltered list.
func (s State) Len() int {
	return len(s.tasks)
}

// Filter returns the current filter selections.
func (s State) Filter() Filter {
	return s.filter
}

// Visible returns the tasks that pass the current filter.
func (s State) Visible() []task.Task {
	return Apply(s.tasks, s.filter)
}

// WithFilter returns s with a different filter. The list is unchanged.
func (s State) WithFilter(f Filter) State {
	return State{tasks: s.tasks, filter: f}
}

// ClearFilters resets every predicate to inactive.
func (s State) ClearFilters() State {
	return s.WithFilter(NoFilter())
}

// Apply returns s with m folded into the list.
func (s State) Apply(m Mutation) State {
	return State{tasks: Reconcile(s.tasks, m), filter: s.filter}
}

// Commit applies m only when the request that produced it succeeded. On
// failure the state is returned unchanged together with err.
func (s State) Commit(m Mutation, err error) (State, error) {
	if err != nil {
		return s, err
	}
	return s.Apply(m), nil
}
