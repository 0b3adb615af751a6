// Package report renders a timesheet as an xlsx workbook.
package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/knockturn/timeclock/internal/analytics"
	"github.com/knockturn/timeclock/internal/models"
)

const sheet = "Timesheet"

// Render produces an xlsx workbook for one day: a header block, the task
// table, the recomputed total, and the analytics series.
func Render(emp *models.Employee, ts *models.Timesheet, tasks []models.Task, summary analytics.Summary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheet)

	set := func(cell string, value any) {
		f.SetCellValue(sheet, cell, value)
	}

	set("A1", "Employee")
	set("B1", fmt.Sprintf("%s (%s)", emp.Name, emp.Code))
	set("A2", "Date")
	set("B2", ts.Date)
	set("A3", "Status")
	if ts.IsSubmitted {
		set("B3", "submitted")
		if ts.SubmittedAt != nil {
			set("C3", ts.SubmittedAt.Format("2006-01-02 15:04:05"))
		}
	} else {
		set("B3", "draft")
	}

	set("A5", "Task")
	set("B5", "Start")
	set("C5", "End")
	set("D5", "Duration (s)")
	set("E5", "Complete")

	row := 6
	for _, t := range tasks {
		set(fmt.Sprintf("A%d", row), t.Title)
		set(fmt.Sprintf("B%d", row), t.StartTime.Format("15:04:05"))
		if t.EndTime != nil {
			set(fmt.Sprintf("C%d", row), t.EndTime.Format("15:04:05"))
		}
		set(fmt.Sprintf("D%d", row), t.DurationSeconds)
		set(fmt.Sprintf("E%d", row), t.IsComplete)
		row++
	}

	row++
	set(fmt.Sprintf("A%d", row), "Total work minutes")
	set(fmt.Sprintf("B%d", row), summary.WorkMinutes)
	row++
	set(fmt.Sprintf("A%d", row), "Break minutes")
	set(fmt.Sprintf("B%d", row), summary.BreakMinutes)

	row += 2
	set(fmt.Sprintf("A%d", row), "Hour")
	set(fmt.Sprintf("B%d", row), "Productivity %")
	for i, pct := range summary.Hourly {
		row++
		set(fmt.Sprintf("A%d", row), summary.HourLabels[i])
		set(fmt.Sprintf("B%d", row), pct)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename is the suggested attachment name for a rendered day.
func Filename(emp *models.Employee, ts *models.Timesheet) string {
	return fmt.Sprintf("timesheet-%s-%s.xlsx", emp.Code, ts.Date)
}
