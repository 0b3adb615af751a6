package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knockturn/timeclock/internal/config"
)

// Session is the logged-in employee identity, persisted between CLI
// invocations the way the web client kept it in browser storage.
type Session struct {
	EmployeeID string `json:"employeeId"`
	Code       string `json:"code"`
	Name       string `json:"name"`
}

func sessionPath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

// SaveSession writes the session file, creating the config dir if needed.
func SaveSession(s Session) error {
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path, err := sessionPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// LoadSession reads the session file. A missing file returns nil, nil.
func LoadSession() (*Session, error) {
	path, err := sessionPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing session file: %w", err)
	}
	return &s, nil
}

// ClearSession removes the session file if present.
func ClearSession() error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
