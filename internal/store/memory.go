package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/knockturn/timeclock/internal/models"
)

// Memory is an in-memory Store used by tests and by the "memory" storage
// setting. It enforces the same uniqueness keys as the SQLite backend.
type Memory struct {
	mu         sync.RWMutex
	employees  map[string]models.Employee // by id
	timesheets map[string]models.Timesheet
	tasks      map[string]models.Task
	taskOrder  []string // task ids in creation order
}

func NewMemory() *Memory {
	return &Memory{
		employees:  make(map[string]models.Employee),
		timesheets: make(map[string]models.Timesheet),
		tasks:      make(map[string]models.Task),
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) FindEmployeeByCode(_ context.Context, code string) (*models.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.employees {
		if e.Code == code {
			found := e
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateEmployee(_ context.Context, code, name string) (*models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.employees {
		if e.Code == code {
			return nil, ErrDuplicate
		}
	}

	e := models.Employee{
		ID:        uuid.NewString(),
		Code:      code,
		Name:      name,
		CreatedAt: time.Now(),
	}
	m.employees[e.ID] = e
	return &e, nil
}

func (m *Memory) GetTimesheet(_ context.Context, id string) (*models.Timesheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ts, ok := m.timesheets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ts, nil
}

func (m *Memory) FindTimesheet(_ context.Context, employeeID, date string) (*models.Timesheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, ts := range m.timesheets {
		if ts.EmployeeID == employeeID && ts.Date == date {
			found := ts
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateTimesheet(_ context.Context, employeeID, date string) (*models.Timesheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ts := range m.timesheets {
		if ts.EmployeeID == employeeID && ts.Date == date {
			return nil, ErrDuplicate
		}
	}

	ts := models.Timesheet{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		Date:       date,
		CreatedAt:  time.Now(),
	}
	m.timesheets[ts.ID] = ts
	return &ts, nil
}

func (m *Memory) UpdateTimesheet(_ context.Context, id string, patch TimesheetPatch) (*models.Timesheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ts, ok := m.timesheets[id]
	if !ok {
		return nil, ErrNotFound
	}

	if patch.TotalWorkSeconds != nil {
		ts.TotalWorkSeconds = *patch.TotalWorkSeconds
	}
	if patch.IsSubmitted != nil {
		ts.IsSubmitted = *patch.IsSubmitted
	}
	if patch.SubmittedAt != nil {
		at := *patch.SubmittedAt
		ts.SubmittedAt = &at
	}

	m.timesheets[id] = ts
	return &ts, nil
}

func (m *Memory) ListTasks(_ context.Context, timesheetID string) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var tasks []models.Task
	for _, id := range m.taskOrder {
		t := m.tasks[id]
		if t.TimesheetID == timesheetID {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func (m *Memory) GetTask(_ context.Context, id string) (*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *Memory) CreateTask(_ context.Context, timesheetID, title string, startTime time.Time) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := models.Task{
		ID:          uuid.NewString(),
		TimesheetID: timesheetID,
		Title:       title,
		StartTime:   startTime,
		CreatedAt:   time.Now(),
	}
	m.tasks[t.ID] = t
	m.taskOrder = append(m.taskOrder, t.ID)
	return &t, nil
}

func (m *Memory) UpdateTask(_ context.Context, id string, patch TaskPatch) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}

	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.EndTime != nil {
		at := *patch.EndTime
		t.EndTime = &at
	}
	if patch.DurationSeconds != nil {
		t.DurationSeconds = *patch.DurationSeconds
	}
	if patch.IsComplete != nil {
		t.IsComplete = *patch.IsComplete
	}

	m.tasks[id] = t
	return &t, nil
}
