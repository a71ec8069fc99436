// Package daemon manages the watch daemon's PID file so the CLI can
// query and stop a background watcher.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// PIDFile records the watcher's process ID on disk. A stale file left
// behind by a dead process is replaced on the next Write.
type PIDFile struct {
	path string
}

func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// DefaultPIDPath returns ~/.config/depotctl/watch.pid, creating the
// directory when missing
func DefaultPIDPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	pidDir := filepath.Join(homeDir, ".config", "depotctl")
	if err := os.MkdirAll(pidDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create PID directory: %w", err)
	}

	return filepath.Join(pidDir, "watch.pid"), nil
}

// Write claims the PID file for the current process. It fails when the
// recorded process is still alive and silently replaces a stale file.
func (p *PIDFile) Write() error {
	if running, err := p.IsRunning(); err == nil {
		if running {
			return fmt.Errorf("watcher is already running (PID file exists: %s)", p.path)
		}
		os.Remove(p.path)
	}

	content := strconv.Itoa(os.Getpid()) + "\n"
	if err := os.WriteFile(p.path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// Read returns the recorded process ID
func (p *PIDFile) Read() (int, error) {
	content, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("PID file does not exist: %s", p.path)
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file %s: %w", p.path, err)
	}
	return pid, nil
}

// Remove deletes the PID file; a missing file is not an error
func (p *PIDFile) Remove() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// IsRunning reports whether the recorded process is alive
func (p *PIDFile) IsRunning() (bool, error) {
	pid, err := p.Read()
	if err != nil {
		return false, err
	}
	return isProcessRunning(pid), nil
}

// Kill asks the recorded process to shut down
func (p *PIDFile) Kill() error {
	pid, err := p.Read()
	if err != nil {
		return err
	}
	return killProcess(pid)
}
