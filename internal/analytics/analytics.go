// Package analytics derives chart-ready series from a timesheet's task list.
// Everything here is a pure function recomputed per read; the store stays the
// single source of truth.
package analytics

import (
	"fmt"
	"math"
	"strings"

	"github.com/knockturn/timeclock/internal/models"
)

// Workday describes the fixed daily frame the series are computed against.
type Workday struct {
	BudgetMinutes int // daily budget the break is measured against
	StartHour     int // first productivity bucket, local hour
	Hours         int // number of one-hour buckets
}

// DefaultWorkday is an 8-hour 09:00–17:00 day.
var DefaultWorkday = Workday{
	BudgetMinutes: 480,
	StartHour:     9,
	Hours:         8,
}

// TaskMinutes is one bar of the per-task series.
type TaskMinutes struct {
	Title   string `json:"title"`
	Minutes int    `json:"minutes"`
}

// Summary is the full chart payload for one timesheet.
type Summary struct {
	WorkMinutes  int           `json:"workMinutes"`
	BreakMinutes int           `json:"breakMinutes"`
	Tasks        []TaskMinutes `json:"tasks"`
	Hourly       []int         `json:"hourlyProductivity"`
	HourLabels   []string      `json:"hourLabels"`
}

// Split returns the work/break partition of the day in minutes. Break is the
// remainder of the budget and goes negative when work exceeds it; it is
// deliberately not clamped.
func (w Workday) Split(tasks []models.Task) (workMinutes, breakMinutes int) {
	seconds := 0
	for _, t := range tasks {
		if t.IsComplete {
			seconds += t.DurationSeconds
		}
	}
	workMinutes = seconds / 60
	return workMinutes, w.BudgetMinutes - workMinutes
}

// PerTask returns whole minutes per completed task, skipping blank titles.
func (w Workday) PerTask(tasks []models.Task) []TaskMinutes {
	var out []TaskMinutes
	for _, t := range tasks {
		if !t.IsComplete || strings.TrimSpace(t.Title) == "" {
			continue
		}
		out = append(out, TaskMinutes{
			Title:   t.Title,
			Minutes: t.DurationSeconds / 60,
		})
	}
	return out
}

// Hourly partitions the workday into fixed one-hour buckets and returns a
// productivity percentage per bucket, each in [0, 100]. A task belongs to
// exactly one bucket, keyed on its start hour; tasks starting outside the
// workday are excluded.
func (w Workday) Hourly(tasks []models.Task) []int {
	minutes := make([]int, w.Hours)
	for _, t := range tasks {
		if !t.IsComplete {
			continue
		}
		bucket := t.StartTime.Hour() - w.StartHour
		if bucket < 0 || bucket >= w.Hours {
			continue
		}
		minutes[bucket] += t.DurationSeconds / 60
	}

	out := make([]int, w.Hours)
	for i, m := range minutes {
		pct := int(math.Round(float64(m) / 60 * 100))
		if pct > 100 {
			pct = 100
		}
		out[i] = pct
	}
	return out
}

// Summarize computes all three series in one pass over the task list.
func (w Workday) Summarize(tasks []models.Task) Summary {
	work, brk := w.Split(tasks)

	labels := make([]string, w.Hours)
	for i := range labels {
		labels[i] = fmt.Sprintf("%d:00", w.StartHour+i)
	}

	perTask := w.PerTask(tasks)
	if perTask == nil {
		perTask = []TaskMinutes{}
	}

	return Summary{
		WorkMinutes:  work,
		BreakMinutes: brk,
		Tasks:        perTask,
		Hourly:       w.Hourly(tasks),
		HourLabels:   labels,
	}
}
