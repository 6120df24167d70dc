// Package activity keeps a short per-user feed of task changes, built from
// the task module's events.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/task-manager/domain/apperror"
	"github.com/example/task-manager/events"
)

// DefaultFeedSize is how many entries are kept per user.
const DefaultFeedSize = 50

// Entry is one line of a user's activity feed.
type Entry struct {
	TaskID  string    `json:"taskId"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// ListRequest asks for a user's feed.
type ListRequest struct {
	OwnerID string `json:"owner_id"`
}

// ListResponse carries a feed, newest first.
type ListResponse struct {
	Entries []Entry `json:"entries"`
}

// ActivityModule consumes task events and serves per-user feeds.
type ActivityModule struct {
	mu     sync.RWMutex
	feeds  map[string][]Entry
	size   int
	logger types.Logger
}

var _ mono.Module = (*ActivityModule)(nil)
var _ mono.EventConsumerModule = (*ActivityModule)(nil)
var _ mono.ServiceProviderModule = (*ActivityModule)(nil)

// NewModule creates an ActivityModule keeping DefaultFeedSize entries per user.
func NewModule(logger types.Logger) *ActivityModule {
	return &ActivityModule{
		feeds:  make(map[string][]Entry),
		size:   DefaultFeedSize,
		logger: logger.WithModule("activity"),
	}
}

func (m *ActivityModule) Name() string {
	return "activity"
}

func (m *ActivityModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	m.logger.Info("Registered event consumers", "events", "TaskCreated, TaskUpdated, TaskDeleted")
	return nil
}

func (m *ActivityModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list-activity", json.Unmarshal, json.Marshal, m.listActivity,
	); err != nil {
		return fmt.Errorf("failed to register list-activity service: %w", err)
	}
	return nil
}

func (m *ActivityModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.record(event.OwnerID, Entry{
		TaskID:  event.TaskID,
		Kind:    "created",
		Message: fmt.Sprintf("Created %q (due %s, %s priority)", event.Title, event.DueDate, event.Priority),
		At:      event.CreatedAt,
	})
	return nil
}

func (m *ActivityModule) handleTaskUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	msg := fmt.Sprintf("Updated %q: %s", event.Title, strings.Join(event.Changed, ", "))
	for _, f := range event.Changed {
		if f == "status" {
			msg = fmt.Sprintf("Marked %q as %s", event.Title, event.Status)
			break
		}
	}
	m.record(event.OwnerID, Entry{
		TaskID:  event.TaskID,
		Kind:    "updated",
		Message: msg,
		At:      event.UpdatedAt,
	})
	return nil
}

func (m *ActivityModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.record(event.OwnerID, Entry{
		TaskID:  event.TaskID,
		Kind:    "deleted",
		Message: fmt.Sprintf("Deleted %q", event.Title),
		At:      event.DeletedAt,
	})
	return nil
}

func (m *ActivityModule) listActivity(_ context.Context, req ListRequest, _ *mono.Msg) (ListResponse, error) {
	return ListResponse{Entries: m.Feed(req.OwnerID)}, nil
}

// record prepends e to the owner's feed and trims it to size.
func (m *ActivityModule) record(ownerID string, e Entry) {
	if ownerID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	feed := append([]Entry{e}, m.feeds[ownerID]...)
	if len(feed) > m.size {
		feed = feed[:m.size]
	}
	m.feeds[ownerID] = feed
}

// Feed returns a copy of the owner's feed, newest first.
func (m *ActivityModule) Feed(ownerID string) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, len(m.feeds[ownerID]))
	copy(out, m.feeds[ownerID])
	return out
}

func (m *ActivityModule) Start(_ context.Context) error {
	m.logger.Info("Module started - listening for task events")
	return nil
}

func (m *ActivityModule) Stop(_ context.Context) error {
	m.logger.Info("Module stopped")
	return nil
}

// Port is how the api module reads feeds.
type Port interface {
	List(ctx context.Context, ownerID string) ([]Entry, error)
}

type adapter struct {
	container mono.ServiceContainer
}

// NewAdapter creates a Port over the list-activity service.
func NewAdapter(container mono.ServiceContainer) Port {
	return &adapter{container: container}
}

func (a *adapter) List(ctx context.Context, ownerID string) ([]Entry, error) {
	req := ListRequest{OwnerID: ownerID}
	var resp ListResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "list-activity", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, apperror.Wrap(apperror.Unavailable, "list-activity service call failed", err)
	}
	return resp.Entries, nil
}
