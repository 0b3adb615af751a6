package timesheet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/knockturn/timeclock/internal/store"
)

func newTestService(t *testing.T, now time.Time) *Service {
	t.Helper()
	svc := NewService(store.NewMemory(), nil)
	svc.now = func() time.Time { return now }
	return svc
}

func TestLoginFindOrCreate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC))

	first, err := svc.Login(ctx, "EMP001", "Rebeca Suji")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if first.Code != "EMP001" || first.Name != "Rebeca Suji" {
		t.Errorf("created employee = %+v", first)
	}

	// Same code again: same row, name ignored.
	second, err := svc.Login(ctx, "EMP001", "Someone Else")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second login returned a different employee: %s vs %s", second.ID, first.ID)
	}
	if second.Name != "Rebeca Suji" {
		t.Errorf("name changed on second login: %q", second.Name)
	}
}

func TestLoginTrimsAndValidates(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, time.Now())

	emp, err := svc.Login(ctx, "  EMP002  ", "  Ada  ")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if emp.Code != "EMP002" || emp.Name != "Ada" {
		t.Errorf("inputs not trimmed: %+v", emp)
	}

	tests := []struct {
		code, name string
	}{
		{"", "Ada"},
		{"EMP003", ""},
		{"   ", "Ada"},
		{"EMP003", "   "},
	}
	for _, tt := range tests {
		if _, err := svc.Login(ctx, tt.code, tt.name); !errors.Is(err, ErrValidation) {
			t.Errorf("Login(%q, %q) error = %v, want ErrValidation", tt.code, tt.name, err)
		}
	}
}

func TestFetchOrCreateLazy(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, now)

	if _, err := svc.FetchOrCreate(ctx, "NOBODY", ""); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown employee error = %v, want ErrNotFound", err)
	}

	emp, err := svc.Login(ctx, "EMP001", "Rebeca Suji")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	day, err := svc.FetchOrCreate(ctx, "EMP001", "")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	ts := day.Timesheet
	if ts.EmployeeID != emp.ID {
		t.Errorf("timesheet employee = %s, want %s", ts.EmployeeID, emp.ID)
	}
	if ts.Date != "2026-08-31" {
		t.Errorf("date = %q, want today", ts.Date)
	}
	if ts.TotalWorkSeconds != 0 || ts.IsSubmitted || ts.SubmittedAt != nil {
		t.Errorf("fresh timesheet not zeroed: %+v", ts)
	}
	if len(day.Tasks) != 0 {
		t.Errorf("fresh timesheet has %d tasks", len(day.Tasks))
	}

	// Second fetch returns the same row.
	again, err := svc.FetchOrCreate(ctx, "EMP001", "")
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if again.Timesheet.ID != ts.ID {
		t.Errorf("second fetch created a new timesheet: %s vs %s", again.Timesheet.ID, ts.ID)
	}

	// A different date gets its own timesheet.
	other, err := svc.FetchOrCreate(ctx, "EMP001", "2026-09-01")
	if err != nil {
		t.Fatalf("other date: %v", err)
	}
	if other.Timesheet.ID == ts.ID {
		t.Error("different date reused the same timesheet")
	}
}

func TestCompleteTask(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 8, 31, 9, 5, 0, 0, time.UTC)
	svc := newTestService(t, start)

	if _, err := svc.Login(ctx, "EMP001", "Rebeca Suji"); err != nil {
		t.Fatal(err)
	}
	day, err := svc.FetchOrCreate(ctx, "EMP001", "")
	if err != nil {
		t.Fatal(err)
	}

	task, err := svc.StartTask(ctx, day.Timesheet.ID, "design review", start)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if task.IsComplete || task.EndTime != nil || task.DurationSeconds != 0 {
		t.Errorf("new task not open: %+v", task)
	}

	end := start.Add(45 * time.Minute)
	task, err = svc.CompleteTask(ctx, task.ID, end)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !task.IsComplete {
		t.Error("task not marked complete")
	}
	if task.EndTime == nil || !task.EndTime.Equal(end) {
		t.Errorf("end time = %v, want %v", task.EndTime, end)
	}
	if task.DurationSeconds != 2700 {
		t.Errorf("duration = %d, want 2700", task.DurationSeconds)
	}

	// Completing again is a no-op: the duration does not stretch.
	later := end.Add(time.Hour)
	again, err := svc.CompleteTask(ctx, task.ID, later)
	if err != nil {
		t.Fatalf("re-complete: %v", err)
	}
	if again.DurationSeconds != 2700 {
		t.Errorf("duration changed on re-complete: %d", again.DurationSeconds)
	}
	if !again.EndTime.Equal(end) {
		t.Errorf("end time changed on re-complete: %v", again.EndTime)
	}
}

func TestCompleteTaskRejectsNegativeDuration(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, start)

	if _, err := svc.Login(ctx, "EMP001", "Rebeca Suji"); err != nil {
		t.Fatal(err)
	}
	day, err := svc.FetchOrCreate(ctx, "EMP001", "")
	if err != nil {
		t.Fatal(err)
	}
	task, err := svc.StartTask(ctx, day.Timesheet.ID, "x", start)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.CompleteTask(ctx, task.ID, start.Add(-time.Minute)); !errors.Is(err, ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestRenameTask(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, start)

	if _, err := svc.Login(ctx, "EMP001", "Rebeca Suji"); err != nil {
		t.Fatal(err)
	}
	day, err := svc.FetchOrCreate(ctx, "EMP001", "")
	if err != nil {
		t.Fatal(err)
	}
	task, err := svc.StartTask(ctx, day.Timesheet.ID, "", start)
	if err != nil {
		t.Fatal(err)
	}

	task, err = svc.RenameTask(ctx, task.ID, "sprint planning")
	if err != nil {
		t.Fatalf("rename open task: %v", err)
	}
	if task.Title != "sprint planning" {
		t.Errorf("title = %q", task.Title)
	}

	if _, err := svc.CompleteTask(ctx, task.ID, start.Add(30*time.Minute)); err != nil {
		t.Fatal(err)
	}

	// Titles freeze at completion.
	if _, err := svc.RenameTask(ctx, task.ID, "rewritten history"); !errors.Is(err, ErrTaskComplete) {
		t.Errorf("rename after completion error = %v, want ErrTaskComplete", err)
	}
	got, err := svc.Task(ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "sprint planning" {
		t.Errorf("title changed after completion: %q", got.Title)
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, start)

	if _, err := svc.Login(ctx, "EMP001", "Rebeca Suji"); err != nil {
		t.Fatal(err)
	}
	day, err := svc.FetchOrCreate(ctx, "EMP001", "")
	if err != nil {
		t.Fatal(err)
	}
	tsID := day.Timesheet.ID

	// Tasks: completed 1800s, completed 900s, one still open (counts 0).
	t1, err := svc.StartTask(ctx, tsID, "a", start)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CompleteTask(ctx, t1.ID, start.Add(30*time.Minute)); err != nil {
		t.Fatal(err)
	}
	t2, err := svc.StartTask(ctx, tsID, "b", start.Add(30*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CompleteTask(ctx, t2.ID, start.Add(45*time.Minute)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.StartTask(ctx, tsID, "open", start.Add(45*time.Minute)); err != nil {
		t.Fatal(err)
	}

	ts, err := svc.Submit(ctx, tsID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if ts.TotalWorkSeconds != 2700 {
		t.Errorf("total = %d, want 2700", ts.TotalWorkSeconds)
	}
	if !ts.IsSubmitted {
		t.Error("timesheet not marked submitted")
	}
	if ts.SubmittedAt == nil {
		t.Fatal("SubmittedAt not set")
	}
	firstSubmittedAt := *ts.SubmittedAt

	// Submitted timesheets reject new tasks.
	if _, err := svc.StartTask(ctx, tsID, "too late", start.Add(time.Hour)); !errors.Is(err, ErrSubmitted) {
		t.Errorf("start after submit error = %v, want ErrSubmitted", err)
	}

	// Resubmission is a no-op: nothing changes, SubmittedAt included.
	svc.now = func() time.Time { return start.Add(2 * time.Hour) }
	again, err := svc.Submit(ctx, tsID)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if !again.IsSubmitted {
		t.Error("resubmit flipped the flag")
	}
	if !again.SubmittedAt.Equal(firstSubmittedAt) {
		t.Errorf("SubmittedAt changed on resubmit: %v vs %v", again.SubmittedAt, firstSubmittedAt)
	}
	if again.TotalWorkSeconds != 2700 {
		t.Errorf("total changed on resubmit: %d", again.TotalWorkSeconds)
	}
}
