package activity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/task-manager/events"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any)         {}
func (m *mockLogger) Info(_ string, _ ...any)          {}
func (m *mockLogger) Warn(_ string, _ ...any)          {}
func (m *mockLogger) Error(_ string, _ ...any)         {}
func (m *mockLogger) With(_ ...any) types.Logger       { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }
func (m *mockLogger) WithError(_ error) types.Logger   { return m }

func TestFeedIsPerOwnerAndNewestFirst(t *testing.T) {
	m := NewModule(&mockLogger{})
	ctx := context.Background()
	now := time.Now()

	if err := m.handleTaskCreated(ctx, events.TaskCreatedEvent{TaskID: "t1", OwnerID: "alice", Title: "Pay rent", DueDate: "2024-01-05", Priority: "High", CreatedAt: now}, nil); err != nil {
		t.Fatal(err)
	}
	if err := m.handleTaskUpdated(ctx, events.TaskUpdatedEvent{TaskID: "t1", OwnerID: "alice", Title: "Pay rent", Changed: []string{"status"}, Status: "Complete", UpdatedAt: now}, nil); err != nil {
		t.Fatal(err)
	}
	if err := m.handleTaskDeleted(ctx, events.TaskDeletedEvent{TaskID: "t9", OwnerID: "bob", Title: "Other", DeletedAt: now}, nil); err != nil {
		t.Fatal(err)
	}

	feed := m.Feed("alice")
	if len(feed) != 2 {
		t.Fatalf("alice feed has %d entries, want 2", len(feed))
	}
	if feed[0].Kind != "updated" || feed[0].Message != `Marked "Pay rent" as Complete` {
		t.Errorf("newest entry = %+v", feed[0])
	}
	if feed[1].Kind != "created" {
		t.Errorf("oldest entry = %+v", feed[1])
	}

	if got := m.Feed("bob"); len(got) != 1 || got[0].Kind != "deleted" {
		t.Errorf("bob feed = %+v", got)
	}
	if got := m.Feed("carol"); len(got) != 0 {
		t.Errorf("carol feed = %+v", got)
	}
}

func TestFeedIsBounded(t *testing.T) {
	m := NewModule(&mockLogger{})
	m.size = 3

	for i := 0; i < 5; i++ {
		m.record("alice", Entry{TaskID: fmt.Sprintf("t%d", i), Kind: "created"})
	}

	feed := m.Feed("alice")
	if len(feed) != 3 {
		t.Fatalf("feed length = %d, want 3", len(feed))
	}
	if feed[0].TaskID != "t4" || feed[2].TaskID != "t2" {
		t.Errorf("feed = %+v", feed)
	}
}

func TestUpdateMessageListsFields(t *testing.T) {
	m := NewModule(&mockLogger{})
	_ = m.handleTaskUpdated(context.Background(), events.TaskUpdatedEvent{
		TaskID: "t1", OwnerID: "alice", Title: "Report", Changed: []string{"title", "dueDate"},
	}, nil)

	if got := m.Feed("alice")[0].Message; got != `Updated "Report": title, dueDate` {
		t.Errorf("message = %q", got)
	}
}
