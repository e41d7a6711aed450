//go:build windows

package proc

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// Lock keeps a process suspended for as long as it is held. It is
// created by Process.Lock and must be released on every exit path.
type Lock struct {
	process  *handle
	released bool
}

func newLock(process *handle) (*Lock, error) {
	if status := ntSuspendProcess(process.raw); status != 0 {
		process.close()
		return nil, fmt.Errorf("failed to suspend process: %w", statusError(status))
	}
	return &Lock{process: process}, nil
}

// Release resumes the process and drops the guard's handle reference.
// A failed resume would leave the target suspended forever, a
// silent-hang outcome worse than aborting the controller, so it panics
// instead of returning an error. Releasing twice is a no-op.
func (l *Lock) Release() {
	if l.released {
		return
	}
	l.released = true
	status := ntResumeProcess(l.process.raw)
	l.process.close()
	if status != 0 {
		panic(fmt.Sprintf("failed to resume process: %v", statusError(status)))
	}
}

// ThreadLock keeps a single thread suspended for as long as it is held.
// It is created by Thread.Lock.
type ThreadLock struct {
	thread   *handle
	released bool
}

func newThreadLock(thread *handle) (*ThreadLock, error) {
	if _, err := windows.SuspendThread(thread.raw); err != nil {
		thread.close()
		return nil, fmt.Errorf("failed to suspend thread: %w", err)
	}
	return &ThreadLock{thread: thread}, nil
}

// Release resumes the thread. Like Lock.Release, a failed resume is
// fatal. Releasing twice is a no-op.
func (l *ThreadLock) Release() {
	if l.released {
		return
	}
	l.released = true
	_, err := windows.ResumeThread(l.thread.raw)
	l.thread.close()
	if err != nil {
		panic(fmt.Sprintf("failed to resume thread: %v", err))
	}
}
