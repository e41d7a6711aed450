//go:build linux

package proc

import (
	"fmt"
	"runtime"
	"sync"
	"syscall"
)

// ptrace(2) expects every command after PTRACE_ATTACH to come from the
// thread that attached, so all ptrace work is funneled through a single
// locked OS thread.
var (
	ptraceChan     chan func()
	ptraceDoneChan chan struct{}
	ptraceOnce     sync.Once
)

func execPtraceFunc(fn func()) {
	ptraceOnce.Do(func() {
		ptraceChan = make(chan func())
		ptraceDoneChan = make(chan struct{})
		go handlePtraceFuncs()
	})
	ptraceChan <- fn
	<-ptraceDoneChan
}

func handlePtraceFuncs() {
	runtime.LockOSThread()
	for fn := range ptraceChan {
		fn()
		ptraceDoneChan <- struct{}{}
	}
}

// ThreadLock keeps a single thread stopped for as long as it is held.
// It is created by Thread.Lock.
type ThreadLock struct {
	tid      int
	released bool
}

func newThreadLock(tid int) (*ThreadLock, error) {
	var err error
	execPtraceFunc(func() {
		if err = syscall.PtraceAttach(tid); err != nil {
			err = fmt.Errorf("failed to attach to thread %d: %w", tid, err)
			return
		}
		var status syscall.WaitStatus
		if _, werr := syscall.Wait4(tid, &status, syscall.WALL, nil); werr != nil {
			syscall.PtraceDetach(tid)
			err = fmt.Errorf("failed to wait for thread %d to stop: %w", tid, werr)
		}
	})
	if err != nil {
		return nil, err
	}
	return &ThreadLock{tid: tid}, nil
}

// Release detaches from the thread, letting it run again. A failed
// detach would leave the target stopped forever, so it panics instead
// of returning an error. Releasing twice is a no-op.
func (l *ThreadLock) Release() {
	if l.released {
		return
	}
	l.released = true
	var err error
	execPtraceFunc(func() { err = syscall.PtraceDetach(l.tid) })
	if err != nil {
		panic(fmt.Sprintf("failed to resume thread %d: %v", l.tid, err))
	}
}

// Lock keeps a whole process stopped for as long as it is held: one
// ThreadLock per thread the process had when the lock was taken. It is
// created by Process.Lock. Unlike platforms with a counting
// process-suspend primitive, a second Lock on an already-locked process
// fails here, because a thread cannot be ptrace-attached twice.
type Lock struct {
	locks []*ThreadLock
}

func newLock(p *Process) (*Lock, error) {
	threads, err := p.Threads()
	if err != nil {
		return nil, err
	}
	locks := make([]*ThreadLock, 0, len(threads))
	for _, t := range threads {
		tl, err := t.Lock()
		if err != nil {
			for _, held := range locks {
				held.Release()
			}
			return nil, err
		}
		locks = append(locks, tl)
	}
	return &Lock{locks: locks}, nil
}

// Release resumes every thread stopped by this guard. Releasing twice
// is a no-op.
func (l *Lock) Release() {
	for _, tl := range l.locks {
		tl.Release()
	}
}
