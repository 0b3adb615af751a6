// Package client is the Go client for the timeclock HTTP API, used by the
// CLI commands.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/knockturn/timeclock/internal/analytics"
	"github.com/knockturn/timeclock/internal/models"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("API request", "method", method, "path", path)

	var resp *http.Response
	maxRetries := 3
	requestStart := time.Now()
	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err = c.httpClient.Do(req)
		if err != nil {
			if attempt == maxRetries {
				c.logger.Error("API request transport error", "method", method, "path", path, "error", err, "elapsed", time.Since(requestStart))
				return nil, fmt.Errorf("sending request: %w", err)
			}
			c.logger.Debug("API request transport error, retrying", "method", method, "path", path, "attempt", attempt+1, "error", err)
			time.Sleep(backoff(attempt))
			continue
		}

		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				c.logger.Error("API request failed after retries", "method", method, "path", path, "status", resp.StatusCode, "attempts", maxRetries+1, "elapsed", time.Since(requestStart))
				return nil, fmt.Errorf("API returned status %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.logger.Debug("API request retryable error", "method", method, "path", path, "status", resp.StatusCode, "attempt", attempt+1)
			time.Sleep(backoff(attempt))
			continue
		}
		break
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("API response", "method", method, "path", path, "status", resp.StatusCode, "bytes", len(respBody), "elapsed", time.Since(requestStart))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("API request failed", "method", method, "path", path, "status", resp.StatusCode, "response", truncate(string(respBody), 200))
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

func backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

type loginRequest struct {
	EmployeeID string `json:"employeeId"`
	Name       string `json:"name"`
}

func (c *Client) Login(ctx context.Context, code, name string) (*models.Employee, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/api/login", loginRequest{EmployeeID: code, Name: name})
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	var emp models.Employee
	if err := json.Unmarshal(data, &emp); err != nil {
		return nil, fmt.Errorf("parsing login response: %w", err)
	}
	return &emp, nil
}

// Day is the fetch-or-create response: the timesheet and its tasks.
type Day struct {
	Timesheet models.Timesheet `json:"timesheet"`
	Tasks     []models.Task    `json:"tasks"`
}

// GetTimesheet fetches (lazily creating) the timesheet for the employee on
// the given date. An empty date means today.
func (c *Client) GetTimesheet(ctx context.Context, employeeCode, date string) (*Day, error) {
	path := fmt.Sprintf("/api/employees/%s/timesheet", url.PathEscape(employeeCode))
	if date != "" {
		path += "?date=" + url.QueryEscape(date)
	}

	data, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting timesheet: %w", err)
	}

	var day Day
	if err := json.Unmarshal(data, &day); err != nil {
		return nil, fmt.Errorf("parsing timesheet response: %w", err)
	}
	return &day, nil
}

type createTaskRequest struct {
	TimesheetID string     `json:"timesheetId"`
	Title       string     `json:"title"`
	StartTime   *time.Time `json:"startTime,omitempty"`
}

// CreateTask starts a new task. A zero startTime lets the server stamp now.
func (c *Client) CreateTask(ctx context.Context, timesheetID, title string, startTime time.Time) (*models.Task, error) {
	req := createTaskRequest{TimesheetID: timesheetID, Title: title}
	if !startTime.IsZero() {
		req.StartTime = &startTime
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/api/tasks", req)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	var task models.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("parsing task response: %w", err)
	}
	return &task, nil
}

type updateTaskRequest struct {
	Title    *string    `json:"title,omitempty"`
	Complete *bool      `json:"complete,omitempty"`
	EndTime  *time.Time `json:"endTime,omitempty"`
}

func (c *Client) patchTask(ctx context.Context, id string, req updateTaskRequest) (*models.Task, error) {
	data, err := c.doRequest(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), req)
	if err != nil {
		return nil, fmt.Errorf("updating task: %w", err)
	}

	var task models.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("parsing task response: %w", err)
	}
	return &task, nil
}

func (c *Client) CompleteTask(ctx context.Context, id string) (*models.Task, error) {
	complete := true
	return c.patchTask(ctx, id, updateTaskRequest{Complete: &complete})
}

func (c *Client) RenameTask(ctx context.Context, id, title string) (*models.Task, error) {
	return c.patchTask(ctx, id, updateTaskRequest{Title: &title})
}

type submitRequest struct {
	TimesheetID string `json:"timesheetId"`
}

func (c *Client) Submit(ctx context.Context, timesheetID string) (*models.Timesheet, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/api/submit", submitRequest{TimesheetID: timesheetID})
	if err != nil {
		return nil, fmt.Errorf("submitting timesheet: %w", err)
	}

	var ts models.Timesheet
	if err := json.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("parsing submit response: %w", err)
	}
	return &ts, nil
}

func (c *Client) Analytics(ctx context.Context, timesheetID string) (*analytics.Summary, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/api/timesheets/"+url.PathEscape(timesheetID)+"/analytics", nil)
	if err != nil {
		return nil, fmt.Errorf("getting analytics: %w", err)
	}

	var sum analytics.Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		return nil, fmt.Errorf("parsing analytics response: %w", err)
	}
	return &sum, nil
}

// Export downloads the xlsx rendering of the employee's timesheet.
func (c *Client) Export(ctx context.Context, employeeCode, date string) ([]byte, error) {
	path := fmt.Sprintf("/api/employees/%s/timesheet/export", url.PathEscape(employeeCode))
	if date != "" {
		path += "?date=" + url.QueryEscape(date)
	}

	data, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("exporting timesheet: %w", err)
	}
	return data, nil
}
