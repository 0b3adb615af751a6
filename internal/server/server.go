// Package server exposes the timesheet service over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/knockturn/timeclock/internal/analytics"
	"github.com/knockturn/timeclock/internal/models"
	"github.com/knockturn/timeclock/internal/report"
	"github.com/knockturn/timeclock/internal/store"
	"github.com/knockturn/timeclock/internal/timesheet"
)

type Server struct {
	svc     *timesheet.Service
	workday analytics.Workday
	logger  *slog.Logger
}

func New(svc *timesheet.Service, workday analytics.Workday, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		svc:     svc,
		workday: workday,
		logger:  logger,
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/login", s.handleLogin)
	api.GET("/employees/:employeeId/timesheet", s.handleGetTimesheet)
	api.GET("/employees/:employeeId/timesheet/export", s.handleExport)
	api.POST("/tasks", s.handleCreateTask)
	api.PATCH("/tasks/:id", s.handleUpdateTask)
	api.POST("/submit", s.handleSubmit)
	api.GET("/timesheets/:id/analytics", s.handleAnalytics)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type loginRequest struct {
	EmployeeID string `json:"employeeId"`
	Name       string `json:"name"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Employee ID and name are required"})
		return
	}

	emp, err := s.svc.Login(c.Request.Context(), req.EmployeeID, req.Name)
	if err != nil {
		if errors.Is(err, timesheet.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Employee ID and name are required"})
			return
		}
		s.logger.Error("login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process login"})
		return
	}

	c.JSON(http.StatusOK, emp)
}

func (s *Server) handleGetTimesheet(c *gin.Context) {
	code := c.Param("employeeId")
	date := c.Query("date")

	day, err := s.svc.FetchOrCreate(c.Request.Context(), code, date)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
			return
		}
		s.logger.Error("fetching timesheet failed", "employee", code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch timesheet"})
		return
	}

	tasks := day.Tasks
	if tasks == nil {
		tasks = []models.Task{}
	}
	c.JSON(http.StatusOK, gin.H{"timesheet": day.Timesheet, "tasks": tasks})
}

type createTaskRequest struct {
	TimesheetID string     `json:"timesheetId"`
	Title       string     `json:"title"`
	StartTime   *time.Time `json:"startTime"`
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TimesheetID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Timesheet ID is required"})
		return
	}

	var start time.Time
	if req.StartTime != nil {
		start = *req.StartTime
	}

	task, err := s.svc.StartTask(c.Request.Context(), req.TimesheetID, req.Title, start)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Timesheet not found"})
		case errors.Is(err, timesheet.ErrSubmitted):
			c.JSON(http.StatusConflict, gin.H{"error": "Timesheet already submitted"})
		default:
			s.logger.Error("creating task failed", "timesheet", req.TimesheetID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		}
		return
	}

	c.JSON(http.StatusOK, task)
}

type updateTaskRequest struct {
	Title    *string    `json:"title"`
	Complete *bool      `json:"complete"`
	EndTime  *time.Time `json:"endTime"`
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	id := c.Param("id")

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task update"})
		return
	}

	ctx := c.Request.Context()
	var (
		task *models.Task
		err  error
	)

	if req.Title != nil {
		task, err = s.svc.RenameTask(ctx, id, *req.Title)
	}
	if err == nil && req.Complete != nil && *req.Complete {
		var end time.Time
		if req.EndTime != nil {
			end = *req.EndTime
		}
		task, err = s.svc.CompleteTask(ctx, id, end)
	}
	if err == nil && task == nil {
		task, err = s.svc.Task(ctx, id)
	}

	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		case errors.Is(err, timesheet.ErrTaskComplete):
			c.JSON(http.StatusConflict, gin.H{"error": "Task already complete"})
		case errors.Is(err, timesheet.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task update"})
		default:
			s.logger.Error("updating task failed", "task", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		}
		return
	}

	c.JSON(http.StatusOK, task)
}

type submitRequest struct {
	TimesheetID string `json:"timesheetId"`
}

func (s *Server) handleSubmit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TimesheetID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Timesheet ID is required"})
		return
	}

	ts, err := s.svc.Submit(c.Request.Context(), req.TimesheetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Timesheet not found"})
			return
		}
		s.logger.Error("submitting timesheet failed", "timesheet", req.TimesheetID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit timesheet"})
		return
	}

	c.JSON(http.StatusOK, ts)
}

func (s *Server) handleAnalytics(c *gin.Context) {
	id := c.Param("id")

	tasks, err := s.svc.Tasks(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Timesheet not found"})
			return
		}
		s.logger.Error("computing analytics failed", "timesheet", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
		return
	}

	c.JSON(http.StatusOK, s.workday.Summarize(tasks))
}

func (s *Server) handleExport(c *gin.Context) {
	code := c.Param("employeeId")
	date := c.Query("date")

	ctx := c.Request.Context()
	emp, err := s.svc.Employee(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
			return
		}
		s.logger.Error("export failed", "employee", code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export timesheet"})
		return
	}

	day, err := s.svc.FetchOrCreate(ctx, code, date)
	if err != nil {
		s.logger.Error("export failed", "employee", code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export timesheet"})
		return
	}

	data, err := report.Render(emp, day.Timesheet, day.Tasks, s.workday.Summarize(day.Tasks))
	if err != nil {
		s.logger.Error("rendering export failed", "employee", code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export timesheet"})
		return
	}

	name := report.Filename(emp, day.Timesheet)
	c.Header("Content-Disposition", "attachment; filename="+name)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
