package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"
)

// ErrLocked is returned when another live process holds the lock.
var ErrLocked = errors.New("records locked")

// staleAfter is the age after which a lock is taken over even if its holder
// still runs.
const staleAfter = 30 * time.Minute

// LockInfo describes the holder of a data directory lock.
type LockInfo struct {
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	Holder    string    `json:"holder"` // command holding the lock, e.g. "edit"
	Timestamp time.Time `json:"timestamp"`
}

func (i LockInfo) String() string {
	return fmt.Sprintf("%s (PID %d on %s, %v ago)", i.Holder, i.PID, i.Hostname, time.Since(i.Timestamp).Round(time.Second))
}

// FileLock is an exclusive flock guarding a data directory against
// concurrent edits.
type FileLock struct {
	path   string
	holder string
	file   *os.File
}

// NewFileLock creates a lock at path on behalf of holder.
func NewFileLock(path, holder string) *FileLock {
	return &FileLock{path: path, holder: holder}
}

// Acquire takes the lock without blocking. A lock left behind by a dead
// process, or older than staleAfter, is taken over once.
func (l *FileLock) Acquire() error {
	err := l.tryAcquire()
	if !errors.Is(err, ErrLocked) {
		return err
	}
	info, readErr := Inspect(l.path)
	if readErr != nil {
		return err
	}
	if !isStale(info) {
		return fmt.Errorf("%w by %s", ErrLocked, info)
	}
	if rmErr := os.Remove(l.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		return fmt.Errorf("remove stale lock: %w", rmErr)
	}
	return l.tryAcquire()
}

func (l *FileLock) tryAcquire() error {
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()
		return fmt.Errorf("%w: %v", ErrLocked, err)
	}

	hostname, _ := os.Hostname()
	data, err := json.MarshalIndent(LockInfo{
		PID:       os.Getpid(),
		Hostname:  hostname,
		Holder:    l.holder,
		Timestamp: time.Now(),
	}, "", "  ")
	if err == nil {
		err = file.Truncate(0)
	}
	if err == nil {
		_, err = file.WriteAt(data, 0)
	}
	if err != nil {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		_ = file.Close()
		return fmt.Errorf("write lock metadata: %w", err)
	}
	l.file = file
	return nil
}

// Release unlocks and removes the lock file. Releasing an unheld lock is a
// no-op.
func (l *FileLock) Release() error {
	if l.file == nil {
		return nil
	}
	file := l.file
	l.file = nil

	var errs []error
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_UN); err != nil {
		errs = append(errs, fmt.Errorf("unlock: %w", err))
	}
	if err := file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close lock file: %w", err))
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, fmt.Errorf("remove lock file: %w", err))
	}
	return errors.Join(errs...)
}

// Inspect reads the holder metadata of the lock file at path.
func Inspect(path string) (*LockInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse lock file: %w", err)
	}
	return &info, nil
}

func isStale(info *LockInfo) bool {
	process, err := os.FindProcess(info.PID)
	if err != nil {
		return true
	}
	// FindProcess always succeeds on Unix; signal 0 probes liveness.
	if err := process.Signal(syscall.Signal(0)); err != nil {
		return true
	}
	return time.Since(info.Timestamp) > staleAfter
}
