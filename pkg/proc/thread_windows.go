//go:build windows

package proc

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Thread wraps an open handle to a single thread. Values come from
// Process.Threads or NewThread; there is no global thread registry.
type Thread struct {
	handle *handle
}

// NewThread opens a thread by id with full access rights.
func NewThread(tid int) (*Thread, error) {
	h, err := windows.OpenThread(_THREAD_ALL_ACCESS, false, uint32(tid))
	if err != nil {
		return nil, fmt.Errorf("failed to open thread %d: %w", tid, err)
	}
	return &Thread{handle: newHandle(h)}, nil
}

// Close releases this owner's reference to the thread handle.
func (t *Thread) Close() error {
	return t.handle.close()
}

// ID returns the numeric thread id for the open handle.
func (t *Thread) ID() (int, error) {
	id, err := getThreadID(t.handle.raw)
	if err != nil {
		return 0, fmt.Errorf("failed to get thread id: %w", err)
	}
	return int(id), nil
}

// Active reports a best-effort liveness heuristic: the thread's
// last-system-call information is queried, and a failed query means the
// thread is not parked in a syscall, i.e. it is running. A successful
// query reports the thread as idle regardless of which syscall it is
// blocked in.
func (t *Thread) Active() (bool, error) {
	var info threadLastSyscallInformation
	status := ntQueryInformationThread(t.handle.raw, _ThreadLastSystemCall,
		unsafe.Pointer(&info), uint32(unsafe.Sizeof(info)), nil)
	if status != 0 {
		return true, nil
	}
	return false, nil
}

// Lock suspends this single thread and returns a guard that resumes it.
func (t *Thread) Lock() (*ThreadLock, error) {
	return newThreadLock(t.handle.clone())
}
