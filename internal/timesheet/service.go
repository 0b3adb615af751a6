// Package timesheet implements the task lifecycle and submission rules of
// the timesheet service.
package timesheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/knockturn/timeclock/internal/models"
	"github.com/knockturn/timeclock/internal/store"
)

var (
	// ErrTaskComplete is returned when a mutation targets a task that has
	// already completed. Completed tasks are frozen.
	ErrTaskComplete = errors.New("timesheet: task already complete")

	// ErrSubmitted is returned when a task mutation targets a submitted
	// timesheet.
	ErrSubmitted = errors.New("timesheet: timesheet already submitted")

	// ErrValidation is returned for missing or blank required inputs.
	ErrValidation = errors.New("timesheet: invalid input")
)

// Service owns the domain rules over a pluggable Store. It holds no state of
// its own; every read goes to the store.
type Service struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewService(st store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// Login finds or creates the employee identified by code. The code is the
// durable identity key: when the employee already exists the supplied name is
// ignored. A concurrent first login losing the insert race re-fetches the
// winner's row.
func (s *Service) Login(ctx context.Context, code, name string) (*models.Employee, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" || name == "" {
		return nil, fmt.Errorf("%w: employee code and name are required", ErrValidation)
	}

	emp, err := s.store.FindEmployeeByCode(ctx, code)
	if err == nil {
		return emp, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("looking up employee: %w", err)
	}

	emp, err = s.store.CreateEmployee(ctx, code, name)
	if errors.Is(err, store.ErrDuplicate) {
		return s.store.FindEmployeeByCode(ctx, code)
	}
	if err != nil {
		return nil, fmt.Errorf("creating employee: %w", err)
	}

	s.logger.Info("employee created", "code", code)
	return emp, nil
}

// Day bundles a timesheet with its tasks in creation order.
type Day struct {
	Timesheet *models.Timesheet
	Tasks     []models.Task
}

// FetchOrCreate returns the timesheet for (employee code, date), creating it
// lazily on first access. An empty date means today. The composite unique
// index on (employee_id, date) is the enforcement point for exactly one
// timesheet per day; losing the insert race re-fetches the existing row.
func (s *Service) FetchOrCreate(ctx context.Context, employeeCode, date string) (*Day, error) {
	emp, err := s.store.FindEmployeeByCode(ctx, employeeCode)
	if err != nil {
		return nil, fmt.Errorf("looking up employee: %w", err)
	}

	if date == "" {
		date = s.now().Format(models.DateFormat)
	}

	ts, err := s.store.FindTimesheet(ctx, emp.ID, date)
	if errors.Is(err, store.ErrNotFound) {
		ts, err = s.store.CreateTimesheet(ctx, emp.ID, date)
		if errors.Is(err, store.ErrDuplicate) {
			ts, err = s.store.FindTimesheet(ctx, emp.ID, date)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("fetching timesheet: %w", err)
	}

	tasks, err := s.store.ListTasks(ctx, ts.ID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	return &Day{Timesheet: ts, Tasks: tasks}, nil
}

// Employee looks up an employee by code.
func (s *Service) Employee(ctx context.Context, code string) (*models.Employee, error) {
	return s.store.FindEmployeeByCode(ctx, code)
}

// Task looks up a single task.
func (s *Service) Task(ctx context.Context, id string) (*models.Task, error) {
	return s.store.GetTask(ctx, id)
}

// Tasks returns the timesheet's tasks in creation order.
func (s *Service) Tasks(ctx context.Context, timesheetID string) ([]models.Task, error) {
	if _, err := s.store.GetTimesheet(ctx, timesheetID); err != nil {
		return nil, fmt.Errorf("looking up timesheet: %w", err)
	}
	tasks, err := s.store.ListTasks(ctx, timesheetID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

// StartTask opens a new task on the timesheet. A zero startTime means now.
// Submitted timesheets no longer accept tasks.
func (s *Service) StartTask(ctx context.Context, timesheetID, title string, startTime time.Time) (*models.Task, error) {
	ts, err := s.store.GetTimesheet(ctx, timesheetID)
	if err != nil {
		return nil, fmt.Errorf("looking up timesheet: %w", err)
	}
	if ts.IsSubmitted {
		return nil, ErrSubmitted
	}

	if startTime.IsZero() {
		startTime = s.now()
	}

	task, err := s.store.CreateTask(ctx, timesheetID, title, startTime)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	s.logger.Info("task started", "task", task.ID, "timesheet", timesheetID)
	return task, nil
}

// CompleteTask transitions an open task to complete: EndTime set,
// DurationSeconds computed once as whole seconds between start and end.
// Completing an already complete task is a no-op returning the stored task,
// so the recorded duration never stretches on a repeat call.
func (s *Service) CompleteTask(ctx context.Context, taskID string, endTime time.Time) (*models.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("looking up task: %w", err)
	}
	if task.IsComplete {
		return task, nil
	}

	if endTime.IsZero() {
		endTime = s.now()
	}

	duration := int(endTime.Sub(task.StartTime).Seconds())
	if duration < 0 {
		return nil, fmt.Errorf("%w: end time precedes start time", ErrValidation)
	}

	complete := true
	task, err = s.store.UpdateTask(ctx, taskID, store.TaskPatch{
		EndTime:         &endTime,
		DurationSeconds: &duration,
		IsComplete:      &complete,
	})
	if err != nil {
		return nil, fmt.Errorf("completing task: %w", err)
	}

	s.logger.Info("task completed", "task", taskID, "seconds", duration)
	return task, nil
}

// RenameTask edits a task title. Titles freeze with the rest of the task at
// completion; a rename after that fails with ErrTaskComplete.
func (s *Service) RenameTask(ctx context.Context, taskID, title string) (*models.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("looking up task: %w", err)
	}
	if task.IsComplete {
		return nil, ErrTaskComplete
	}

	task, err = s.store.UpdateTask(ctx, taskID, store.TaskPatch{Title: &title})
	if err != nil {
		return nil, fmt.Errorf("renaming task: %w", err)
	}
	return task, nil
}

// Submit finalizes a timesheet: TotalWorkSeconds is recomputed from scratch
// as the sum of every task's stored duration (open tasks contribute 0), then
// the one-way submitted transition fires. Submitting a submitted timesheet is
// a no-op returning it unchanged, SubmittedAt included.
func (s *Service) Submit(ctx context.Context, timesheetID string) (*models.Timesheet, error) {
	ts, err := s.store.GetTimesheet(ctx, timesheetID)
	if err != nil {
		return nil, fmt.Errorf("looking up timesheet: %w", err)
	}
	if ts.IsSubmitted {
		return ts, nil
	}

	tasks, err := s.store.ListTasks(ctx, timesheetID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	total := 0
	for _, t := range tasks {
		total += t.DurationSeconds
	}

	submitted := true
	now := s.now()
	ts, err = s.store.UpdateTimesheet(ctx, timesheetID, store.TimesheetPatch{
		TotalWorkSeconds: &total,
		IsSubmitted:      &submitted,
		SubmittedAt:      &now,
	})
	if err != nil {
		return nil, fmt.Errorf("submitting timesheet: %w", err)
	}

	s.logger.Info("timesheet submitted", "timesheet", timesheetID, "totalSeconds", total)
	return ts, nil
}
