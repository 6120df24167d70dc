package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: ""},
		{name: "direct", err: New(NotFound, "task not found"), want: NotFound},
		{name: "wrapped", err: fmt.Errorf("get task: %w", New(Validation, "title is required")), want: Validation},
		{name: "plain error", err: errors.New("boom"), want: Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrap: %w", New(Conflict, "email taken"))
	if !errors.Is(err, New(Conflict, "")) {
		t.Error("expected errors.Is to match on kind")
	}
	if errors.Is(err, New(NotFound, "")) {
		t.Error("expected errors.Is not to match a different kind")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{Unauthenticated, http.StatusUnauthorized},
		{InvalidCredentials, http.StatusBadRequest},
		{Validation, http.StatusBadRequest},
		{NotFound, http.StatusNotFound},
		{Conflict, http.StatusBadRequest},
		{Unavailable, http.StatusServiceUnavailable},
		{Internal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusUnauthorized, Unauthenticated},
		{http.StatusBadRequest, Validation},
		{http.StatusNotFound, NotFound},
		{http.StatusConflict, Conflict},
		{http.StatusServiceUnavailable, Unavailable},
		{http.StatusGatewayTimeout, Unavailable},
		{http.StatusInternalServerError, Internal},
	}

	for _, tt := range tests {
		if got := FromStatus(tt.status); got != tt.want {
			t.Errorf("FromStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	if got := ParseKind("not_found"); got != NotFound {
		t.Errorf("ParseKind(not_found) = %q", got)
	}
	if got := ParseKind("bogus"); got != Internal {
		t.Errorf("ParseKind(bogus) = %q, want internal_error", got)
	}
}

func TestErrorIsComparesMessage(t *testing.T) {
	weak := New(Validation, "password too short")
	if errors.Is(weak, New(Validation, "invalid email")) {
		t.Error("different messages of the same kind must not match")
	}
	if !errors.Is(fmt.Errorf("register: %w", weak), weak) {
		t.Error("expected wrapped sentinel to match")
	}
}

func TestStorage(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := Storage("find user", cause)
	if KindOf(err) != Unavailable {
		t.Errorf("KindOf() = %q, want unavailable", KindOf(err))
	}
	if !errors.Is(err, cause) {
		t.Error("cause must stay in the chain")
	}

	nf := New(NotFound, "task not found")
	if got := Storage("get task", nf); got != nf {
		t.Errorf("classified errors pass through, got %v", got)
	}
	if Storage("noop", nil) != nil {
		t.Error("nil cause must stay nil")
	}
}

func TestPublic(t *testing.T) {
	if Public(nil) != nil {
		t.Error("nil error should give nil fault")
	}
	if got := Public(errors.New("pq: connection refused")); got.Kind != Internal || got.Message != "internal error" {
		t.Errorf("plain error leaked: %+v", got)
	}
	if got := Public(Storage("list tasks", errors.New("database is locked"))); got.Kind != Unavailable || got.Message != "service temporarily unavailable" {
		t.Errorf("storage error leaked: %+v", got)
	}
	nf := New(NotFound, "task not found")
	if got := Public(fmt.Errorf("get: %w", nf)); got != nf {
		t.Errorf("classified fault should pass through, got %+v", got)
	}

	var none *Error
	if none.Err() != nil {
		t.Error("nil *Error must convert to a nil error")
	}
}
