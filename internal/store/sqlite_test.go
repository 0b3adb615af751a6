package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/knockturn/timeclock/internal/store"
)

func newSQLite(t *testing.T) *store.SQLite {
	t.Helper()
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "timeclock.db"))
	if err != nil {
		t.Fatalf("opening sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)

	emp, err := s.CreateEmployee(ctx, "EMP001", "Rebeca Suji")
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	if _, err := s.CreateEmployee(ctx, "EMP001", "Duplicate"); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("duplicate employee error = %v, want ErrDuplicate", err)
	}

	if _, err := s.CreateTimesheet(ctx, emp.ID, "2026-08-31"); err != nil {
		t.Fatalf("create timesheet: %v", err)
	}
	if _, err := s.CreateTimesheet(ctx, emp.ID, "2026-08-31"); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("duplicate timesheet error = %v, want ErrDuplicate", err)
	}
	if _, err := s.CreateTimesheet(ctx, emp.ID, "2026-09-01"); err != nil {
		t.Errorf("other day should insert: %v", err)
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)

	emp, err := s.CreateEmployee(ctx, "EMP001", "Rebeca Suji")
	if err != nil {
		t.Fatal(err)
	}

	found, err := s.FindEmployeeByCode(ctx, "EMP001")
	if err != nil {
		t.Fatalf("find employee: %v", err)
	}
	if found.ID != emp.ID {
		t.Errorf("found %s, want %s", found.ID, emp.ID)
	}
	if _, err := s.FindEmployeeByCode(ctx, "EMP404"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing employee error = %v, want ErrNotFound", err)
	}

	ts, err := s.CreateTimesheet(ctx, emp.ID, "2026-08-31")
	if err != nil {
		t.Fatal(err)
	}

	start := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	for _, title := range []string{"first", "second"} {
		if _, err := s.CreateTask(ctx, ts.ID, title, start); err != nil {
			t.Fatalf("create task %q: %v", title, err)
		}
	}

	tasks, err := s.ListTasks(ctx, ts.ID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 2 || tasks[0].Title != "first" || tasks[1].Title != "second" {
		t.Errorf("tasks = %+v", tasks)
	}

	end := start.Add(30 * time.Minute)
	duration := 1800
	complete := true
	task, err := s.UpdateTask(ctx, tasks[0].ID, store.TaskPatch{
		EndTime:         &end,
		DurationSeconds: &duration,
		IsComplete:      &complete,
	})
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if !task.IsComplete || task.EndTime == nil || task.DurationSeconds != 1800 {
		t.Errorf("updated task = %+v", task)
	}
	if task.Title != "first" {
		t.Errorf("title changed by patch: %q", task.Title)
	}

	total := 1800
	submitted := true
	now := time.Now().UTC()
	got, err := s.UpdateTimesheet(ctx, ts.ID, store.TimesheetPatch{
		TotalWorkSeconds: &total,
		IsSubmitted:      &submitted,
		SubmittedAt:      &now,
	})
	if err != nil {
		t.Fatalf("update timesheet: %v", err)
	}
	if got.TotalWorkSeconds != 1800 || !got.IsSubmitted || got.SubmittedAt == nil {
		t.Errorf("updated timesheet = %+v", got)
	}

	if _, err := s.UpdateTimesheet(ctx, "nope", store.TimesheetPatch{TotalWorkSeconds: &total}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing timesheet error = %v, want ErrNotFound", err)
	}
	if _, err := s.UpdateTask(ctx, "nope", store.TaskPatch{IsComplete: &complete}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing task error = %v, want ErrNotFound", err)
	}
}
