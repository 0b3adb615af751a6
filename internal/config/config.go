package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Workday WorkdayConfig `toml:"workday"`
	Client  ClientConfig  `toml:"client"`
	Log     LogConfig     `toml:"log"`
}

type ServerConfig struct {
	Addr    string `toml:"addr"`
	Storage string `toml:"storage"` // "sqlite" or "memory"
	DBPath  string `toml:"db_path"`
}

type WorkdayConfig struct {
	BudgetMinutes int `toml:"budget_minutes"`
	StartHour     int `toml:"start_hour"`
	Hours         int `toml:"hours"`
}

type ClientConfig struct {
	APIURL       string `toml:"api_url"`
	EmployeeCode string `toml:"employee_code"`
	EmployeeName string `toml:"employee_name"`
}

type LogConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn", "error"
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:    ":8080",
			Storage: "sqlite",
		},
		Workday: WorkdayConfig{
			BudgetMinutes: 480,
			StartHour:     9,
			Hours:         8,
		},
		Client: ClientConfig{
			APIURL: "http://localhost:8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "timeclock"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultDBPath is where the sqlite file lives when db_path is unset.
func DefaultDBPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "timeclock.db"), nil
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TIMECLOCK_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TIMECLOCK_STORAGE"); v != "" {
		cfg.Server.Storage = v
	}
	if v := os.Getenv("TIMECLOCK_DB"); v != "" {
		cfg.Server.DBPath = v
	}
	if v := os.Getenv("TIMECLOCK_API_URL"); v != "" {
		cfg.Client.APIURL = v
	}
	if v := os.Getenv("TIMECLOCK_EMPLOYEE_CODE"); v != "" {
		cfg.Client.EmployeeCode = v
	}
	if v := os.Getenv("TIMECLOCK_EMPLOYEE_NAME"); v != "" {
		cfg.Client.EmployeeName = v
	}
	if v := os.Getenv("TIMECLOCK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}
