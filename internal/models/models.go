// Package models defines the persisted entities of the timesheet service.
package models

import "time"

// DateFormat is the calendar-date key used on timesheets.
const DateFormat = "2006-01-02"

// Employee is looked up or created by its external code at login and is
// immutable afterwards. Code is the durable identity key; the display name is
// only used on first creation.
type Employee struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"uniqueIndex;not null" json:"employeeId"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Timesheet holds one employee's workday. At most one row exists per
// (EmployeeID, Date); the store enforces this with a composite unique index.
type Timesheet struct {
	ID               string     `gorm:"primaryKey" json:"id"`
	EmployeeID       string     `gorm:"index:idx_employee_date,unique;not null" json:"employeeId"`
	Date             string     `gorm:"index:idx_employee_date,unique;not null" json:"date"`
	TotalWorkSeconds int        `gorm:"not null;default:0" json:"totalWorkSeconds"`
	IsSubmitted      bool       `gorm:"not null;default:false" json:"isSubmitted"`
	SubmittedAt      *time.Time `json:"submittedAt"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// Task is a single unit of work on a timesheet. It is created open
// (EndTime nil, IsComplete false) and transitions exactly once to complete,
// at which point DurationSeconds is computed and the time fields freeze.
type Task struct {
	ID              string     `gorm:"primaryKey" json:"id"`
	TimesheetID     string     `gorm:"index;not null" json:"timesheetId"`
	Title           string     `json:"title"`
	StartTime       time.Time  `gorm:"not null" json:"startTime"`
	EndTime         *time.Time `json:"endTime"`
	DurationSeconds int        `gorm:"not null;default:0" json:"durationSeconds"`
	IsComplete      bool       `gorm:"not null;default:false" json:"isComplete"`
	CreatedAt       time.Time  `json:"createdAt"`
}
