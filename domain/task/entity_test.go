package task

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/example/task-manager/domain/apperror"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "date only", input: "2024-01-10", want: "2024-01-10"},
		{name: "timestamp keeps its own calendar day", input: "2024-01-10T23:59:00-08:00", want: "2024-01-10"},
		{name: "utc midnight", input: "2024-01-13T00:00:00Z", want: "2024-01-13"},
		{name: "surrounding spaces", input: " 2024-02-29 ", want: "2024-02-29"},
		{name: "garbage", input: "next tuesday", wantErr: true},
		{name: "impossible day", input: "2024-02-30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDate(%q) expected error, got %s", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error: %v", tt.input, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestDateJSON(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2024-01-07"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d != NewDate(2024, time.January, 7) {
		t.Errorf("got %s", d)
	}
	if err := json.Unmarshal([]byte(`null`), &d); err != nil || !d.IsZero() {
		t.Errorf("null should reset the date, got %s err=%v", d, err)
	}
	if err := json.Unmarshal([]byte(`"soon"`), &d); err == nil {
		t.Error("expected error for invalid date")
	}

	out, err := json.Marshal(NewDate(2024, time.March, 5))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"2024-03-05"` {
		t.Errorf("marshal = %s", out)
	}
}

func TestDateScan(t *testing.T) {
	var d Date
	if err := d.Scan("2024-01-10"); err != nil || d.String() != "2024-01-10" {
		t.Errorf("scan string: %s %v", d, err)
	}
	if err := d.Scan([]byte("2024-01-11")); err != nil || d.String() != "2024-01-11" {
		t.Errorf("scan bytes: %s %v", d, err)
	}
	if err := d.Scan(time.Date(2024, 1, 12, 15, 0, 0, 0, time.UTC)); err != nil || d.String() != "2024-01-12" {
		t.Errorf("scan time: %s %v", d, err)
	}
	if err := d.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	got, err := New("t1", "u1", Draft{Title: "  Write report ", DueDate: NewDate(2024, 1, 10)}, now)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got.Title != "Write report" {
		t.Errorf("title not trimmed: %q", got.Title)
	}
	if got.Status != StatusPending || got.Priority != PriorityMedium {
		t.Errorf("defaults = %s/%s, want Pending/Medium", got.Status, got.Priority)
	}
	if !got.CreatedDate.Equal(now) || got.CreatedBy != "u1" {
		t.Errorf("unexpected owner or creation date: %+v", got)
	}
}

func TestDraftValidate(t *testing.T) {
	due := NewDate(2024, 1, 10)
	tests := []struct {
		name  string
		draft Draft
		ok    bool
	}{
		{name: "minimal", draft: Draft{Title: "a", DueDate: due}, ok: true},
		{name: "blank title", draft: Draft{Title: "   ", DueDate: due}},
		{name: "missing due date", draft: Draft{Title: "a"}},
		{name: "lowercase status is not a status", draft: Draft{Title: "a", DueDate: due, Status: "pending"}},
		{name: "unknown priority", draft: Draft{Title: "a", DueDate: due, Priority: "Urgent"}},
		{name: "explicit enums", draft: Draft{Title: "a", DueDate: due, Status: StatusOngoing, Priority: PriorityEmergency}, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !apperror.HasKind(err, apperror.Validation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestPatchApply(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	base := Task{
		ID: "t1", CreatedBy: "u1", Title: "Old", Description: "keep me",
		DueDate: NewDate(2024, 1, 10), Status: StatusPending, Priority: PriorityLow,
		CreatedDate: created, LastUpdateDate: created,
	}

	title := " New "
	status := StatusComplete
	p := Patch{Title: &title, Status: &status}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	later := created.Add(time.Hour)
	got := base
	p.Apply(&got, later)

	if got.Title != "New" || got.Status != StatusComplete {
		t.Errorf("patched fields not applied: %+v", got)
	}
	if got.Description != "keep me" || got.Priority != PriorityLow || got.DueDate != base.DueDate {
		t.Errorf("absent fields changed: %+v", got)
	}
	if got.CreatedBy != "u1" || !got.CreatedDate.Equal(created) {
		t.Errorf("owner or creation date changed: %+v", got)
	}
	if !got.LastUpdateDate.Equal(later) {
		t.Errorf("LastUpdateDate = %v, want %v", got.LastUpdateDate, later)
	}
}

func TestPatchValidate(t *testing.T) {
	empty := ""
	bad := Status("Done")
	if err := (Patch{Title: &empty}).Validate(); !apperror.HasKind(err, apperror.Validation) {
		t.Errorf("empty title: got %v", err)
	}
	if err := (Patch{Status: &bad}).Validate(); !apperror.HasKind(err, apperror.Validation) {
		t.Errorf("bad status: got %v", err)
	}
	if !(Patch{}).Empty() {
		t.Error("zero patch should be empty")
	}
}
