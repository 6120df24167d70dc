package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/task-manager/domain/apperror"
	"github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/tasklist"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func fastClient(url string, opts ...Option) *Client {
	opts = append([]Option{WithRetries(2, time.Millisecond)}, opts...)
	return New(url, opts...)
}

func TestLoginKeepsTokensAndAuthenticates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])
		writeJSON(w, http.StatusOK, user.TokenPair{Token: "access-1", RefreshToken: "refresh-1", TokenType: "Bearer"})
	})
	mux.HandleFunc("/api/v1/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "Invalid or expired token"})
			return
		}
		writeJSON(w, http.StatusOK, user.Profile{ID: "u1", UserName: "ada", Email: "ada@example.com"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var saved user.TokenPair
	c := fastClient(srv.URL, OnTokens(func(p user.TokenPair) { saved = p }))

	require.NoError(t, c.Login(context.Background(), "ada@example.com", "secret123"))
	assert.Equal(t, "access-1", saved.Token)

	p, err := c.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ada", p.UserName)
}

func TestErrorsCarryServerKind(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		kind    apperror.Kind
		message string
	}{
		{"not found", http.StatusNotFound, errorBody{Error: "not_found", Message: "task not found"}, apperror.NotFound, "task not found"},
		{"invalid credentials", http.StatusBadRequest, errorBody{Error: "invalid_credentials", Message: "invalid email or password"}, apperror.InvalidCredentials, "invalid email or password"},
		{"conflict", http.StatusBadRequest, errorBody{Error: "conflict", Message: "taken"}, apperror.Conflict, "taken"},
		{"status fallback", http.StatusUnprocessableEntity, "oops", apperror.Validation, "Unprocessable Entity"},
		{"unknown code", http.StatusBadRequest, errorBody{Error: "bad_request", Message: "bad"}, apperror.Validation, "bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}))
			defer srv.Close()

			_, err := fastClient(srv.URL, WithTokens(user.TokenPair{Token: "t"})).CreateTask(context.Background(), task.Draft{Title: "x"})
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
			assert.Equal(t, tt.message, apperror.Public(err).Message)
		})
	}
}

func TestGetIsRetriedOnUnavailable(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "unavailable", Message: "try later"})
			return
		}
		writeJSON(w, http.StatusOK, listResponse{Tasks: []task.Task{{ID: "t1"}}, Total: 1})
	}))
	defer srv.Close()

	tasks, err := fastClient(srv.URL).ListTasks(context.Background(), tasklist.NoFilter())
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestWritesAreNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "unavailable", Message: "try later"})
	}))
	defer srv.Close()

	_, err := fastClient(srv.URL).CreateTask(context.Background(), task.Draft{Title: "x"})
	assert.True(t, IsRetryable(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestExpiredTokenIsRefreshedOnce(t *testing.T) {
	var refreshes, lists int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshes, 1)
		writeJSON(w, http.StatusOK, user.TokenPair{Token: "fresh", RefreshToken: "refresh-2"})
	})
	mux.HandleFunc("/api/v1/tasks", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&lists, 1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "Invalid or expired token"})
			return
		}
		writeJSON(w, http.StatusOK, listResponse{Tasks: []task.Task{}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var saved []user.TokenPair
	c := fastClient(srv.URL,
		WithTokens(user.TokenPair{Token: "stale", RefreshToken: "refresh-1"}),
		OnTokens(func(p user.TokenPair) { saved = append(saved, p) }),
	)

	_, err := c.ListTasks(context.Background(), tasklist.NoFilter())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshes))
	assert.Equal(t, int32(2), atomic.LoadInt32(&lists))
	require.Len(t, saved, 1)
	assert.Equal(t, "refresh-2", c.Tokens().RefreshToken)
}

func TestUnauthorizedWithoutRefreshToken(t *testing.T) {
	var refreshes int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshes, 1)
	})
	mux.HandleFunc("/api/v1/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "Authorization header is required"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := fastClient(srv.URL).Profile(context.Background())
	assert.True(t, IsAuthError(err))
	assert.Zero(t, atomic.LoadInt32(&refreshes))
}

func TestListTasksSendsFilter(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		writeJSON(w, http.StatusOK, listResponse{})
	}))
	defer srv.Close()

	week := tasklist.WeekOf(task.NewDate(2024, time.January, 10))
	tasks, err := fastClient(srv.URL).ListTasks(context.Background(), tasklist.Filter{
		Status:   task.StatusPending,
		Priority: tasklist.All,
		Week:     &week,
	})
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Equal(t, "status=Pending&week="+week.Start.String(), query)
}

func TestTimeoutIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(srv.URL, WithTimeout(20*time.Millisecond), WithRetries(0, 0))
	_, err := c.GetTask(context.Background(), "t1")
	assert.Equal(t, apperror.Unavailable, apperror.KindOf(err))
}
