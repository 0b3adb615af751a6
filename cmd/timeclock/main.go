package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tj/go-naturaldate"

	"github.com/knockturn/timeclock/internal/analytics"
	"github.com/knockturn/timeclock/internal/client"
	"github.com/knockturn/timeclock/internal/config"
	"github.com/knockturn/timeclock/internal/server"
	"github.com/knockturn/timeclock/internal/store"
	"github.com/knockturn/timeclock/internal/timesheet"
)

var rootCmd = &cobra.Command{
	Use:   "timeclock",
	Short: "Employee daily timesheet service",
	Long:  "timeclock runs the timesheet HTTP API and doubles as its command-line client: log in, track tasks through the day, and submit the finalized timesheet.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the timesheet HTTP server",
	RunE:  runServe,
}

var loginCmd = &cobra.Command{
	Use:   "login [code] [name]",
	Short: "Identify yourself to the server and save the session",
	Args:  cobra.MaximumNArgs(2),
	RunE:  runLogin,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's timesheet",
	RunE:  runStatus,
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage today's tasks",
}

var taskStartCmd = &cobra.Command{
	Use:   "start [title]",
	Short: "Start a new task",
	RunE:  runTaskStart,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Complete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDone,
}

var taskRenameCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Rename an open task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTaskRename,
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Finalize and submit today's timesheet",
	RunE:  runSubmit,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download today's timesheet as an xlsx file",
	RunE:  runExport,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open config file in your editor",
	RunE:  runConfig,
}

func init() {
	taskStartCmd.Flags().String("at", "", `Start time in natural language, e.g. "10 minutes ago"`)
	exportCmd.Flags().StringP("output", "o", "", "Output file (defaults to timesheet-<code>-<date>.xlsx)")
	statusCmd.Flags().String("date", "", "Date to show (YYYY-MM-DD, defaults to today)")
	exportCmd.Flags().String("date", "", "Date to export (YYYY-MM-DD, defaults to today)")

	taskCmd.AddCommand(taskStartCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskRenameCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newAPIClient(cfg *config.Config, logger *slog.Logger) *client.Client {
	return client.New(cfg.Client.APIURL, logger)
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Server.Storage {
	case "memory":
		return store.NewMemory(), nil
	case "sqlite", "":
		path := cfg.Server.DBPath
		if path == "" {
			var err error
			path, err = config.DefaultDBPath()
			if err != nil {
				return nil, err
			}
		}
		return store.OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Server.Storage)
	}
}

func requireSession() (*client.Session, error) {
	sess, err := client.LoadSession()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("not logged in — run 'timeclock login <code> <name>' first")
	}
	return sess, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	svc := timesheet.NewService(st, logger)
	workday := analytics.Workday{
		BudgetMinutes: cfg.Workday.BudgetMinutes,
		StartHour:     cfg.Workday.StartHour,
		Hours:         cfg.Workday.Hours,
	}
	srv := server.New(svc, workday, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return srv.Run(ctx, cfg.Server.Addr)
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	code := cfg.Client.EmployeeCode
	name := cfg.Client.EmployeeName
	if len(args) > 0 {
		code = args[0]
	}
	if len(args) > 1 {
		name = args[1]
	}
	if code == "" || name == "" {
		return fmt.Errorf("employee code and name are required — pass them as arguments or set them in the config")
	}

	api := newAPIClient(cfg, logger)
	emp, err := api.Login(context.Background(), code, name)
	if err != nil {
		return err
	}

	if err := client.SaveSession(client.Session{
		EmployeeID: emp.ID,
		Code:       emp.Code,
		Name:       emp.Name,
	}); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	fmt.Printf("Logged in as %s (%s)\n", emp.Name, emp.Code)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	date, _ := cmd.Flags().GetString("date")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	sess, err := requireSession()
	if err != nil {
		return err
	}

	api := newAPIClient(cfg, logger)
	ctx := context.Background()

	day, err := api.GetTimesheet(ctx, sess.Code, date)
	if err != nil {
		return err
	}

	if len(day.Tasks) == 0 {
		fmt.Printf("No tasks on %s.\n", day.Timesheet.Date)
		return nil
	}

	fmt.Printf("Timesheet for %s (%s):\n\n", day.Timesheet.Date, sess.Name)
	totalSeconds := 0
	for _, t := range day.Tasks {
		title := t.Title
		if strings.TrimSpace(title) == "" {
			title = "(untitled)"
		}
		end := "…"
		state := "open"
		if t.IsComplete && t.EndTime != nil {
			end = t.EndTime.Local().Format("15:04")
			state = "done"
		}
		fmt.Printf("  %s  %s–%-5s  %3dmin  %-30s  [%s]\n",
			t.ID[:8],
			t.StartTime.Local().Format("15:04"),
			end,
			t.DurationSeconds/60,
			title,
			state,
		)
		totalSeconds += t.DurationSeconds
	}

	hours := totalSeconds / 3600
	mins := totalSeconds % 3600 / 60
	fmt.Printf("\nTotal: %dh %dmin (%d tasks)\n", hours, mins, len(day.Tasks))

	if day.Timesheet.IsSubmitted {
		fmt.Println("Status: submitted")
	}

	sum, err := api.Analytics(ctx, day.Timesheet.ID)
	if err != nil {
		logger.Debug("fetching analytics failed", "error", err)
		return nil
	}
	fmt.Printf("Work/break: %dmin / %dmin\n", sum.WorkMinutes, sum.BreakMinutes)

	return nil
}

func runTaskStart(cmd *cobra.Command, args []string) error {
	at, _ := cmd.Flags().GetString("at")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	sess, err := requireSession()
	if err != nil {
		return err
	}

	title := strings.Join(args, " ")

	var startTime time.Time
	if at != "" {
		startTime, err = naturaldate.Parse(at, time.Now(), naturaldate.WithDirection(naturaldate.Past))
		if err != nil {
			return fmt.Errorf("parsing --at %q: %w", at, err)
		}
	}

	api := newAPIClient(cfg, logger)
	ctx := context.Background()

	day, err := api.GetTimesheet(ctx, sess.Code, "")
	if err != nil {
		return err
	}

	task, err := api.CreateTask(ctx, day.Timesheet.ID, title, startTime)
	if err != nil {
		return err
	}

	label := task.Title
	if label == "" {
		label = "(untitled)"
	}
	fmt.Printf("Started %s at %s (id %s)\n", label, task.StartTime.Local().Format("15:04"), task.ID[:8])
	return nil
}

// resolveTaskID expands a task id prefix to the full id on today's timesheet.
func resolveTaskID(ctx context.Context, api *client.Client, code, prefix string) (string, error) {
	day, err := api.GetTimesheet(ctx, code, "")
	if err != nil {
		return "", err
	}
	for _, t := range day.Tasks {
		if t.ID == prefix || strings.HasPrefix(t.ID, prefix) {
			return t.ID, nil
		}
	}
	return "", fmt.Errorf("no task matching %q on today's timesheet", prefix)
}

func runTaskDone(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	sess, err := requireSession()
	if err != nil {
		return err
	}

	api := newAPIClient(cfg, logger)
	ctx := context.Background()

	id, err := resolveTaskID(ctx, api, sess.Code, args[0])
	if err != nil {
		return err
	}

	task, err := api.CompleteTask(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("Completed %s (%dmin)\n", task.Title, task.DurationSeconds/60)
	return nil
}

func runTaskRename(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	sess, err := requireSession()
	if err != nil {
		return err
	}

	api := newAPIClient(cfg, logger)
	ctx := context.Background()

	id, err := resolveTaskID(ctx, api, sess.Code, args[0])
	if err != nil {
		return err
	}

	title := strings.Join(args[1:], " ")
	task, err := api.RenameTask(ctx, id, title)
	if err != nil {
		return err
	}

	fmt.Printf("Renamed task %s to %q\n", task.ID[:8], task.Title)
	return nil
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	sess, err := requireSession()
	if err != nil {
		return err
	}

	api := newAPIClient(cfg, logger)
	ctx := context.Background()

	day, err := api.GetTimesheet(ctx, sess.Code, "")
	if err != nil {
		return err
	}

	completed := 0
	for _, t := range day.Tasks {
		if t.IsComplete {
			completed++
		}
	}
	if completed == 0 {
		return fmt.Errorf("nothing to submit — complete at least one task first")
	}

	ts, err := api.Submit(ctx, day.Timesheet.ID)
	if err != nil {
		return err
	}

	hours := ts.TotalWorkSeconds / 3600
	mins := ts.TotalWorkSeconds % 3600 / 60
	fmt.Printf("Submitted timesheet for %s: %dh %dmin\n", ts.Date, hours, mins)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	date, _ := cmd.Flags().GetString("date")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	sess, err := requireSession()
	if err != nil {
		return err
	}

	api := newAPIClient(cfg, logger)
	ctx := context.Background()

	data, err := api.Export(ctx, sess.Code, date)
	if err != nil {
		return err
	}

	if output == "" {
		day := date
		if day == "" {
			day = time.Now().Format("2006-01-02")
		}
		output = fmt.Sprintf("timesheet-%s-%s.xlsx", sess.Code, day)
	}

	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}

	fmt.Printf("Wrote %s (%d bytes)\n", output, len(data))
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Create default config file
		cfg := config.DefaultConfig()
		data := fmt.Sprintf(`[server]
addr = "%s"
storage = "%s"
db_path = ""

[workday]
budget_minutes = %d
start_hour = %d
hours = %d

[client]
api_url = "%s"
employee_code = ""
employee_name = ""

[log]
level = "%s"
`,
			cfg.Server.Addr,
			cfg.Server.Storage,
			cfg.Workday.BudgetMinutes,
			cfg.Workday.StartHour,
			cfg.Workday.Hours,
			cfg.Client.APIURL,
			cfg.Log.Level,
		)
		if err := os.WriteFile(configPath, []byte(data), 0644); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	fmt.Printf("Opening %s with %s...\n", configPath, editor)

	proc := os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	}
	process, err := os.StartProcess(editor, []string{editor, configPath}, &proc)
	if err != nil {
		// If editor fails, just print the path
		fmt.Printf("Could not open editor. Config file is at: %s\n", configPath)
		return nil
	}
	_, err = process.Wait()
	return err
}
