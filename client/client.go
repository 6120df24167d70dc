// Package client talks to the task manager HTTP API.
//
// Failures come back as *apperror.Error values carrying the server's error
// kind, so callers can branch on apperror.KindOf.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/example/task-manager/domain/apperror"
	"github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/tasklist"
)

// ErrNotLoggedIn is returned when a request needs tokens the client lacks.
var ErrNotLoggedIn = apperror.New(apperror.Unauthenticated, "not logged in")

const (
	// DefaultTimeout bounds every request.
	DefaultTimeout = 15 * time.Second
	// DefaultRetries is how many times a failed GET is retried.
	DefaultRetries = 2
	defaultBackoff = 250 * time.Millisecond
)

// Client is a thin HTTP client for the task manager API. It attaches the
// bearer token, retries idempotent reads on transient failures and renews
// an expired access token once per request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration

	mu       sync.Mutex
	tokens   user.TokenPair
	onTokens func(user.TokenPair)
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetries sets how many times a GET is retried after a transient failure.
func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = n
		c.backoff = backoff
	}
}

// WithTokens starts the client with a saved token pair.
func WithTokens(p user.TokenPair) Option {
	return func(c *Client) { c.tokens = p }
}

// OnTokens registers a callback run whenever a new token pair is received.
func OnTokens(fn func(user.TokenPair)) Option {
	return func(c *Client) { c.onTokens = fn }
}

// New creates a Client for the API rooted at baseURL
// (e.g. http://localhost:3000).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultRetries,
		backoff:    defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tokens returns the current token pair.
func (c *Client) Tokens() user.TokenPair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

func (c *Client) setTokens(p user.TokenPair) {
	c.mu.Lock()
	c.tokens = p
	hook := c.onTokens
	c.mu.Unlock()
	if hook != nil {
		hook(p)
	}
}

type authResponse struct {
	user.TokenPair
	User *user.Profile `json:"user,omitempty"`
}

// Register creates an account and keeps its tokens.
func (c *Client) Register(ctx context.Context, userName, email, password string) (*user.Profile, error) {
	body := map[string]string{"userName": userName, "email": email, "password": password}
	var resp authResponse
	if err := c.send(ctx, http.MethodPost, "/api/v1/auth/register", body, &resp, false); err != nil {
		return nil, err
	}
	c.setTokens(resp.TokenPair)
	return resp.User, nil
}

// Login exchanges credentials for a token pair and keeps it.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := c.send(ctx, http.MethodPost, "/api/v1/auth/login", body, &resp, false); err != nil {
		return err
	}
	c.setTokens(resp.TokenPair)
	return nil
}

// Refresh trades the refresh token for a new pair.
func (c *Client) Refresh(ctx context.Context) error {
	refresh := c.Tokens().RefreshToken
	if refresh == "" {
		return ErrNotLoggedIn
	}
	body := map[string]string{"refreshToken": refresh}
	var resp authResponse
	if err := c.send(ctx, http.MethodPost, "/api/v1/auth/refresh", body, &resp, false); err != nil {
		return err
	}
	c.setTokens(resp.TokenPair)
	return nil
}

// Profile returns the logged-in user.
func (c *Client) Profile(ctx context.Context) (*user.Profile, error) {
	var p user.Profile
	if err := c.do(ctx, http.MethodGet, "/api/v1/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateTask creates a task from d.
func (c *Client) CreateTask(ctx context.Context, d task.Draft) (*task.Task, error) {
	var t task.Task
	if err := c.do(ctx, http.MethodPost, "/api/v1/tasks", d, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

type listResponse struct {
	Tasks []task.Task `json:"tasks"`
	Total int         `json:"total"`
}

// ListTasks returns the caller's tasks, newest first, narrowed by f on the
// server.
func (c *Client) ListTasks(ctx context.Context, f tasklist.Filter) ([]task.Task, error) {
	q := url.Values{}
	if f.Status != "" && f.Status != tasklist.All {
		q.Set("status", string(f.Status))
	}
	if f.Priority != "" && f.Priority != tasklist.All {
		q.Set("priority", string(f.Priority))
	}
	if f.Week != nil {
		q.Set("week", f.Week.Start.String())
	}
	path := "/api/v1/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp listResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Tasks == nil {
		resp.Tasks = []task.Task{}
	}
	return resp.Tasks, nil
}

// GetTask fetches one task.
func (c *Client) GetTask(ctx context.Context, id string) (*task.Task, error) {
	var t task.Task
	if err := c.do(ctx, http.MethodGet, "/api/v1/tasks/"+url.PathEscape(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTask applies p to the task and returns the stored result.
func (c *Client) UpdateTask(ctx context.Context, id string, p task.Patch) (*task.Task, error) {
	var t task.Task
	if err := c.do(ctx, http.MethodPatch, "/api/v1/tasks/"+url.PathEscape(id), p, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/tasks/"+url.PathEscape(id), nil, nil)
}

// ActivityEntry is one line of the activity feed.
type ActivityEntry struct {
	TaskID  string    `json:"taskId"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Activity returns the caller's recent task activity, newest first.
func (c *Client) Activity(ctx context.Context) ([]ActivityEntry, error) {
	var resp struct {
		Entries []ActivityEntry `json:"entries"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/activity", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// do sends an authenticated request. A 401 is answered by one refresh and
// one replay when a refresh token is held.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	err := c.send(ctx, method, path, body, result, true)
	if !apperror.HasKind(err, apperror.Unauthenticated) || c.Tokens().RefreshToken == "" {
		return err
	}
	if rerr := c.Refresh(ctx); rerr != nil {
		return err
	}
	return c.send(ctx, method, path, body, result, true)
}

// send performs one logical request, retrying GETs on transient failures.
func (c *Client) send(ctx context.Context, method, path string, body, result any, authed bool) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := c.backoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		lastErr = c.roundTrip(ctx, method, path, payload, result, authed)
		if !apperror.HasKind(lastErr, apperror.Unavailable) {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte, result any, authed bool) error {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		if token := c.Tokens().Token; token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return apperror.Wrap(apperror.Unavailable, "server unreachable", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperror.Wrap(apperror.Unavailable, "reading response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, respBody)
	}
	if result == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// decodeError turns a failed response into an *apperror.Error. The body's
// error code wins; the status code is the fallback.
func decodeError(status int, body []byte) error {
	kind := apperror.FromStatus(status)
	message := http.StatusText(status)

	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		if eb.Error != "" {
			if k := apperror.ParseKind(eb.Error); k != apperror.Internal || eb.Error == string(apperror.Internal) {
				kind = k
			}
		}
		if eb.Message != "" {
			message = eb.Message
		}
	}
	return apperror.New(kind, message)
}

// IsAuthError reports whether err means the user must log in again.
func IsAuthError(err error) bool {
	return apperror.HasKind(err, apperror.Unauthenticated)
}

// IsRetryable reports whether err is a transient failure.
func IsRetryable(err error) bool {
	return apperror.HasKind(err, apperror.Unavailable) || errors.Is(err, context.DeadlineExceeded)
}
