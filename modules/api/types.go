package api

import (
	domain "github.com/example/task-manager/domain/task"
	user "github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/activity"
)

// AuthResponse is a token pair, plus the new account on registration.
type AuthResponse struct {
	user.TokenPair
	User *user.Profile `json:"user,omitempty"`
}

// TaskListResponse represents a list of tasks.
type TaskListResponse struct {
	Tasks []domain.Task `json:"tasks"`
	Total int           `json:"total"`
}

// DeleteResponse confirms a deletion.
type DeleteResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// ActivityResponse is the caller's recent task activity, newest first.
type ActivityResponse struct {
	Entries []activity.Entry `json:"entries"`
}
