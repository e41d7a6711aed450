//go:build windows

package proc

import (
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func TestProcessMetadataSelf(t *testing.T) {
	p, err := New(os.Getpid())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	exe, err := p.Exe()
	if err != nil {
		t.Fatal(err)
	}
	self, err := os.Executable()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.EqualFold(exe, self) {
		t.Errorf("exe = %q, want %q", exe, self)
	}
	if _, err := os.Stat(exe); err != nil {
		t.Errorf("exe path %q does not exist: %v", exe, err)
	}

	cmdline, err := p.Cmdline()
	if err != nil {
		t.Fatal(err)
	}
	if len(cmdline) != 1 {
		t.Fatalf("cmdline has %d elements, want exactly 1", len(cmdline))
	}
	if cmdline[0] == "" {
		t.Error("cmdline is empty")
	}

	if _, err := p.Cwd(); !errors.Is(err, ErrCwdUnsupported) {
		t.Errorf("Cwd error = %v, want ErrCwdUnsupported", err)
	}
}

func TestThreadsSelf(t *testing.T) {
	p, err := New(os.Getpid())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	threads, err := p.Threads()
	if err != nil {
		t.Fatal(err)
	}
	if len(threads) == 0 {
		t.Fatal("expected at least one thread for a live process")
	}
	for _, th := range threads {
		tid, err := th.ID()
		if err != nil {
			t.Fatal(err)
		}
		if tid <= 0 {
			t.Errorf("thread id = %d, want > 0", tid)
		}
		if _, err := th.Active(); err != nil {
			t.Errorf("Active failed for tid %d: %v", tid, err)
		}
		th.Close()
	}
}

func TestNewThreadRoundTrip(t *testing.T) {
	p, err := New(os.Getpid())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	threads, err := p.Threads()
	if err != nil {
		t.Fatal(err)
	}
	if len(threads) == 0 {
		t.Fatal("no threads")
	}
	defer func() {
		for _, th := range threads {
			th.Close()
		}
	}()

	tid, err := threads[0].ID()
	if err != nil {
		t.Fatal(err)
	}
	th, err := NewThread(tid)
	if err != nil {
		t.Fatal(err)
	}
	defer th.Close()
	got, err := th.ID()
	if err != nil {
		t.Fatal(err)
	}
	if got != tid {
		t.Errorf("reopened thread id = %d, want %d", got, tid)
	}
}

func TestNewMissingProcess(t *testing.T) {
	// Pids are multiples of 4 on Windows; this one cannot exist.
	if _, err := New(0x7ffffffb); err == nil {
		t.Fatal("expected error opening a nonexistent pid")
	}
}

func spawnPing(t *testing.T) *exec.Cmd {
	t.Helper()
	cmd := exec.Command("ping", "-n", "60", "127.0.0.1")
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start ping: %v", err)
	}
	t.Cleanup(func() {
		cmd.Process.Kill()
		cmd.Wait()
	})
	return cmd
}

func TestLockRoundTrip(t *testing.T) {
	cmd := spawnPing(t)

	p, err := New(cmd.Process.Pid)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	lock, err := p.Lock()
	if err != nil {
		t.Fatal(err)
	}
	lock.Release()
	lock.Release() // second release is a no-op

	// The target must be schedulable again: it still answers a kill.
	if err := cmd.Process.Kill(); err != nil {
		t.Fatalf("target not killable after resume: %v", err)
	}
}

func TestNestedLocks(t *testing.T) {
	cmd := spawnPing(t)

	p, err := New(cmd.Process.Pid)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	// The kernel counts suspends: both guards must release before the
	// target runs again, and releasing in either order is fine.
	l1, err := p.Lock()
	if err != nil {
		t.Fatal(err)
	}
	l2, err := p.Lock()
	if err != nil {
		l1.Release()
		t.Fatal(err)
	}
	l1.Release()
	l2.Release()
}

func TestLockReleasedOnEveryExitPath(t *testing.T) {
	cmd := spawnPing(t)

	p, err := New(cmd.Process.Pid)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	func() {
		lock, err := p.Lock()
		if err != nil {
			t.Fatal(err)
		}
		defer lock.Release()
		if true {
			return
		}
		t.Fatal("unreachable")
	}()

	func() {
		defer func() { recover() }()
		lock, err := p.Lock()
		if err != nil {
			t.Fatal(err)
		}
		defer lock.Release()
		panic("unwind")
	}()

	// A fresh suspend still works, so the counter is balanced.
	lock, err := p.Lock()
	if err != nil {
		t.Fatal(err)
	}
	lock.Release()
}

func TestThreadLockSelfOtherThread(t *testing.T) {
	cmd := spawnPing(t)

	p, err := New(cmd.Process.Pid)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	threads, err := p.Threads()
	if err != nil {
		t.Fatal(err)
	}
	if len(threads) == 0 {
		t.Fatal("no threads")
	}
	defer func() {
		for _, th := range threads {
			th.Close()
		}
	}()

	lock, err := threads[0].Lock()
	if err != nil {
		t.Fatal(err)
	}
	lock.Release()
}

func TestChildProcessesWindows(t *testing.T) {
	// cmd /C spawns ping as its child.
	shell := exec.Command("cmd", "/C", "ping -n 60 127.0.0.1 > NUL")
	if err := shell.Start(); err != nil {
		t.Fatalf("failed to start cmd: %v", err)
	}
	t.Cleanup(func() {
		shell.Process.Kill()
		shell.Wait()
	})

	p, err := New(shell.Process.Pid)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		edges, err := p.ChildProcesses()
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range edges {
			if e.Ppid == shell.Process.Pid {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatal("never observed the spawned child in the process tree")
}

func TestReadAtUnmapped(t *testing.T) {
	p, err := New(os.Getpid())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	buf := make([]byte, 16)
	if _, err := p.ReadAt(buf, 0x1); err == nil {
		t.Error("expected error reading an unmapped address")
	}
	if n, err := p.ReadAt(nil, 0x1); n != 0 || err != nil {
		t.Errorf("zero-length read = (%d, %v), want (0, nil)", n, err)
	}
}
