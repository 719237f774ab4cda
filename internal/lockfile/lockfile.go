// Package lockfile keeps a single djournal server per config directory. The
// lockfile holds "addr|pid" and is only honoured while that pid is a live
// djournal process.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/RubeHicksCube/Djournal/internal/constants"
	"github.com/RubeHicksCube/Djournal/internal/logger"
)

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid

	ErrNotRunning = errors.New("djournal server is not running")
)

// AlreadyRunningError reports a live server holding the lock.
type AlreadyRunningError struct {
	Owner Owner
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("djournal server already running (pid %d, %s)", e.Owner.PID, e.Owner.Addr)
}

// Owner is the server recorded in a lockfile.
type Owner struct {
	Addr string
	PID  int
}

type Lock struct {
	path string
	pid  int
}

func Path(dir string) string {
	return filepath.Join(dir, constants.ServerLockfileName)
}

// Acquire claims the lockfile in dir for a server listening on addr. A
// lockfile left by a dead or foreign process is replaced.
func Acquire(dir, addr string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create lockfile directory: %w", err)
	}
	path := Path(dir)

	owner, err := Running(dir)
	switch {
	case err == nil:
		return nil, &AlreadyRunningError{Owner: owner}
	case errors.Is(err, ErrNotRunning):
	default:
		logger.Warn("Replacing stale lockfile", "path", path, "reason", err)
	}

	pid := getpidFunc()
	content := fmt.Sprintf("%s|%d", addr, pid)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return nil, fmt.Errorf("failed to write lockfile: %w", err)
	}
	logger.Debug("Acquired lockfile", "path", path, "pid", pid)
	return &Lock{path: path, pid: pid}, nil
}

// Release removes the lockfile if it still belongs to this lock.
func (l *Lock) Release() error {
	owner, err := read(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if owner.PID != l.pid {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lockfile: %w", err)
	}
	return nil
}

// Running returns the live server recorded in dir. It returns ErrNotRunning
// when there is no lockfile, and another error when the lockfile is stale or
// malformed.
func Running(dir string) (Owner, error) {
	owner, err := read(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return Owner{}, ErrNotRunning
		}
		return Owner{}, err
	}

	process, err := findProcessFunc(owner.PID)
	if err != nil || process == nil {
		return Owner{}, fmt.Errorf("process %d from lockfile is not running", owner.PID)
	}
	if !strings.HasPrefix(process.Executable(), constants.AppName) {
		return Owner{}, fmt.Errorf("process with PID %d is not djournal (is %s)", owner.PID, process.Executable())
	}
	return owner, nil
}

func read(path string) (Owner, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Owner{}, err
	}

	addr, pidText, ok := strings.Cut(strings.TrimSpace(string(content)), "|")
	if !ok || strings.TrimSpace(addr) == "" {
		return Owner{}, errors.New("lockfile is malformed")
	}
	pid, err := strconv.Atoi(pidText)
	if err != nil || pid <= 0 {
		return Owner{}, errors.New("invalid process ID in lockfile")
	}
	return Owner{Addr: addr, PID: pid}, nil
}
