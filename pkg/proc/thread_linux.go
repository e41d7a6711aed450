//go:build linux

package proc

import (
	"fmt"
	"os"
)

// Thread wraps operations on a single thread. Values come from
// Process.Threads or NewThread; there is no global thread registry.
type Thread struct {
	Tid int
}

// NewThread validates that tid exists and returns a Thread for it.
func NewThread(tid int) (*Thread, error) {
	if _, err := os.Stat(fmt.Sprintf("/proc/%d/stat", tid)); err != nil {
		return nil, fmt.Errorf("failed to open thread %d: %w", tid, err)
	}
	return &Thread{Tid: tid}, nil
}

// Close releases the Thread. It exists for parity with platforms that
// hold a kernel handle.
func (t *Thread) Close() error {
	return nil
}

// ID returns the numeric thread id.
func (t *Thread) ID() (int, error) {
	return t.Tid, nil
}

// Active reports whether the thread is currently runnable, from its
// scheduler state in procfs. Any thread parked in a syscall or sleeping
// is reported inactive.
func (t *Thread) Active() (bool, error) {
	state, _, err := parseStat(t.Tid)
	if err != nil {
		return false, fmt.Errorf("failed to read state of thread %d: %w", t.Tid, err)
	}
	return state == "R", nil
}

// Lock suspends this single thread and returns a guard that resumes it.
func (t *Thread) Lock() (*ThreadLock, error) {
	return newThreadLock(t.Tid)
}
