// Package store defines the persistence contract of the timesheet service
// and its two backends: a SQLite-backed store for production and an
// in-memory store for tests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/knockturn/timeclock/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicate is returned when an insert violates a uniqueness
	// constraint. Callers are expected to re-fetch the existing row.
	ErrDuplicate = errors.New("store: duplicate key")
)

// TimesheetPatch is a partial timesheet update. Nil fields are left
// untouched.
type TimesheetPatch struct {
	TotalWorkSeconds *int
	IsSubmitted      *bool
	SubmittedAt      *time.Time
}

// TaskPatch is a partial task update. Nil fields are left untouched.
type TaskPatch struct {
	Title           *string
	EndTime         *time.Time
	DurationSeconds *int
	IsComplete      *bool
}

// Store is the capability set every backend provides. Uniqueness of
// employees.code and (employee_id, date) on timesheets is enforced here, not
// by callers: Create* returns ErrDuplicate and the caller re-fetches.
type Store interface {
	FindEmployeeByCode(ctx context.Context, code string) (*models.Employee, error)
	CreateEmployee(ctx context.Context, code, name string) (*models.Employee, error)

	GetTimesheet(ctx context.Context, id string) (*models.Timesheet, error)
	FindTimesheet(ctx context.Context, employeeID, date string) (*models.Timesheet, error)
	CreateTimesheet(ctx context.Context, employeeID, date string) (*models.Timesheet, error)
	UpdateTimesheet(ctx context.Context, id string, patch TimesheetPatch) (*models.Timesheet, error)

	ListTasks(ctx context.Context, timesheetID string) ([]models.Task, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	CreateTask(ctx context.Context, timesheetID, title string, startTime time.Time) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, patch TaskPatch) (*models.Task, error)

	Close() error
}
