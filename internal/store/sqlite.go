package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/knockturn/timeclock/internal/models"
)

// SQLite is the production Store, backed by a single-file SQLite database
// mapped through gorm.
type SQLite struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if necessary) the database at path and runs
// migrations. The parent directory is created when missing.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path+"?_pragma=journal_mode(WAL)"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.AutoMigrate(&models.Employee{}, &models.Timesheet{}, &models.Task{}); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps gorm's sentinel errors onto the store's.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

func (s *SQLite) FindEmployeeByCode(ctx context.Context, code string) (*models.Employee, error) {
	var e models.Employee
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&e).Error
	if err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (s *SQLite) CreateEmployee(ctx context.Context, code, name string) (*models.Employee, error) {
	e := models.Employee{
		ID:   uuid.NewString(),
		Code: code,
		Name: name,
	}
	if err := s.db.WithContext(ctx).Create(&e).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (s *SQLite) GetTimesheet(ctx context.Context, id string) (*models.Timesheet, error) {
	var ts models.Timesheet
	err := s.db.WithContext(ctx).First(&ts, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &ts, nil
}

func (s *SQLite) FindTimesheet(ctx context.Context, employeeID, date string) (*models.Timesheet, error) {
	var ts models.Timesheet
	err := s.db.WithContext(ctx).
		Where("employee_id = ? AND date = ?", employeeID, date).
		First(&ts).Error
	if err != nil {
		return nil, translate(err)
	}
	return &ts, nil
}

func (s *SQLite) CreateTimesheet(ctx context.Context, employeeID, date string) (*models.Timesheet, error) {
	ts := models.Timesheet{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		Date:       date,
	}
	if err := s.db.WithContext(ctx).Create(&ts).Error; err != nil {
		return nil, translate(err)
	}
	return &ts, nil
}

func (s *SQLite) UpdateTimesheet(ctx context.Context, id string, patch TimesheetPatch) (*models.Timesheet, error) {
	updates := map[string]any{}
	if patch.TotalWorkSeconds != nil {
		updates["total_work_seconds"] = *patch.TotalWorkSeconds
	}
	if patch.IsSubmitted != nil {
		updates["is_submitted"] = *patch.IsSubmitted
	}
	if patch.SubmittedAt != nil {
		updates["submitted_at"] = *patch.SubmittedAt
	}

	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.Timesheet{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.GetTimesheet(ctx, id)
}

func (s *SQLite) ListTasks(ctx context.Context, timesheetID string) ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.WithContext(ctx).
		Where("timesheet_id = ?", timesheetID).
		Order("created_at ASC, id ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, translate(err)
	}
	return tasks, nil
}

func (s *SQLite) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *SQLite) CreateTask(ctx context.Context, timesheetID, title string, startTime time.Time) (*models.Task, error) {
	t := models.Task{
		ID:          uuid.NewString(),
		TimesheetID: timesheetID,
		Title:       title,
		StartTime:   startTime,
	}
	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *SQLite) UpdateTask(ctx context.Context, id string, patch TaskPatch) (*models.Task, error) {
	updates := map[string]any{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.EndTime != nil {
		updates["end_time"] = *patch.EndTime
	}
	if patch.DurationSeconds != nil {
		updates["duration_seconds"] = *patch.DurationSeconds
	}
	if patch.IsComplete != nil {
		updates["is_complete"] = *patch.IsComplete
	}

	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.GetTask(ctx, id)
}
