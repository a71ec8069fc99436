//go:build !windows

package lock

import (
	"errors"
	"os"
	"syscall"
)

// processExists reports whether a process with the given PID is alive.
// FindProcess never fails on Unix; signal 0 does the actual probe.
// EPERM still means alive, just owned by someone else.
func processExists(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
