package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/task-manager/client"
	"github.com/example/task-manager/client/session"
	"github.com/example/task-manager/client/snapshot"
	"github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/tasklist"
)

type fakeServer struct {
	lists   int32
	creates int32
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, user.TokenPair{Token: "access", RefreshToken: "refresh", TokenType: "Bearer"})
	})
	mux.HandleFunc("/api/v1/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, user.Profile{ID: "u1", UserName: "ada", Email: "ada@example.com"})
	})
	mux.HandleFunc("/api/v1/tasks", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			atomic.AddInt32(&f.lists, 1)
			writeJSON(w, http.StatusOK, map[string]any{"tasks": []task.Task{}, "total": 0})
		case http.MethodPost:
			atomic.AddInt32(&f.creates, 1)
			var d task.Draft
			require.NoError(t, json.NewDecoder(r.Body).Decode(&d))
			writeJSON(w, http.StatusCreated, task.Task{
				ID:       "0190f0aa-0000-7000-8000-00000000abcd",
				Title:    d.Title,
				DueDate:  d.DueDate,
				Status:   task.StatusPending,
				Priority: task.PriorityMedium,
			})
		}
	})
	mux.HandleFunc("/api/v1/tasks/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "message": "task not found"})
	})
	return mux
}

func newTestApp(t *testing.T, serverURL string) (*app, *bytes.Buffer) {
	t.Helper()

	snap, err := snapshot.Open(filepath.Join(t.TempDir(), "snapshot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { snap.Close() })

	var out bytes.Buffer
	cfg := &Config{Server: serverURL, Timeout: 5 * time.Second, DataDir: t.TempDir()}
	a, err := newApp(cfg, &out, session.New(keyring.NewArrayKeyring(nil)), snap)
	require.NoError(t, err)
	return a, &out
}

func TestCommandsRequireLogin(t *testing.T) {
	a, _ := newTestApp(t, "http://127.0.0.1:1")
	err := runList(context.Background(), a, nil)
	assert.ErrorIs(t, err, client.ErrNotLoggedIn)
	assert.True(t, client.IsAuthError(err))
}

func TestMutationsUpdateSnapshotWithoutRefetch(t *testing.T) {
	fake := &fakeServer{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	a, out := newTestApp(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, runLogin(ctx, a, []string{"--email", "ada@example.com", "--password", "secret123"}))
	sess, err := a.sessions.Load()
	require.NoError(t, err)
	assert.Equal(t, "access", sess.Tokens.Token)
	assert.Equal(t, "ada@example.com", sess.Email)

	require.NoError(t, runAdd(ctx, a, []string{"--title", "Pay rent", "--due", "2024-01-05"}))
	assert.Contains(t, out.String(), `Created 0000abcd "Pay rent"`)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.creates))
	assert.Zero(t, atomic.LoadInt32(&fake.lists))

	st, err := a.snap.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, st.Len())
	assert.Equal(t, "Pay rent", st.Tasks()[0].Title)

	// A failed delete leaves the snapshot alone.
	err = runRemove(ctx, a, []string{"abcd"})
	require.Error(t, err)
	st, err = a.snap.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Len())

	out.Reset()
	require.NoError(t, runList(ctx, a, []string{"--status", "Complete"}))
	assert.Contains(t, out.String(), "No tasks")
	assert.Contains(t, out.String(), "Showing 0 of 1 tasks")
	assert.Zero(t, atomic.LoadInt32(&fake.lists))

	st, err = a.snap.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, task.StatusComplete, st.Filter().Status)
}

func TestListRefreshLoadsFromServer(t *testing.T) {
	fake := &fakeServer{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	a, out := newTestApp(t, srv.URL)
	ctx := context.Background()
	require.NoError(t, runLogin(ctx, a, []string{"--email", "ada@example.com", "--password", "secret123"}))

	require.NoError(t, runList(ctx, a, []string{"--refresh"}))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.lists))
	assert.Contains(t, out.String(), "Tasks for ada")
}

func TestResolveID(t *testing.T) {
	st := tasklist.NewState([]task.Task{
		{ID: "0190-aaaa-1111"},
		{ID: "0190-bbbb-2222"},
	}, tasklist.NoFilter())

	tests := []struct {
		arg     string
		want    string
		wantErr bool
	}{
		{"0190-aaaa-1111", "0190-aaaa-1111", false},
		{"2222", "0190-bbbb-2222", false},
		{"0190", "", true},
		{"zzzz", "zzzz", false},
		{"", "", true},
		{"   ", "", true},
		{"0", "0", false},
		{"222", "222", false},
	}
	for _, tt := range tests {
		got, err := resolveID(st, tt.arg)
		if (err != nil) != tt.wantErr {
			t.Errorf("resolveID(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("resolveID(%q) = %q, want %q", tt.arg, got, tt.want)
		}
	}
}

func TestShortArgsNeverPickTheOnlyCachedTask(t *testing.T) {
	st := tasklist.NewState([]task.Task{
		{ID: "0190f0aa-0000-7000-8000-00000000abcd"},
	}, tasklist.NoFilter())

	_, err := resolveID(st, "")
	assert.Error(t, err)

	got, err := resolveID(st, "0")
	require.NoError(t, err)
	assert.Equal(t, "0", got)

	got, err = resolveID(st, "abcd")
	require.NoError(t, err)
	assert.Equal(t, "0190f0aa-0000-7000-8000-00000000abcd", got)
}

func TestRemoveRejectsEmptyID(t *testing.T) {
	a, _ := newTestApp(t, "http://127.0.0.1:1")
	err := runRemove(context.Background(), a, []string{""})
	assert.EqualError(t, err, "task id must not be empty")
}

func TestChoicesListEveryValue(t *testing.T) {
	assert.Equal(t, "Pending, Ongoing, Complete, Cancel", statusChoices())
	assert.Equal(t, "Low, Medium, High, Emergency", priorityChoices())
}

func TestDueText(t *testing.T) {
	now := time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)
	mk := func(day int, status task.Status) task.Task {
		return task.Task{DueDate: task.NewDate(2024, time.January, day), Status: status}
	}

	assert.Equal(t, "due today", dueText(mk(10, task.StatusPending), now))
	assert.Equal(t, "due tomorrow", dueText(mk(11, task.StatusPending), now))
	assert.Equal(t, "due in 4 days", dueText(mk(14, task.StatusOngoing), now))
	assert.Equal(t, "overdue", dueText(mk(8, task.StatusPending), now))
	assert.Equal(t, "2 days ago", dueText(mk(8, task.StatusComplete), now))
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", cfg.Server)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
}
