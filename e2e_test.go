//go:build linux

package main

import (
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/acj/remoteprocess/pkg/proc"
)

func assert(t *testing.T, a interface{}, b interface{}) {
	t.Helper()
	if a != b {
		t.Logf("%v != %v", a, b)
		t.Fail()
	}
}

// TestWorkflow drives the whole layer against a real child tree the way
// the CLI does: open, metadata, threads, descendants, suspend/resume.
func TestWorkflow(t *testing.T) {
	cmd := exec.Command("sh", "-c", "sleep 120 & sleep 120 & wait")
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	defer func() {
		cmd.Process.Kill()
		cmd.Wait()
	}()

	p, err := proc.New(cmd.Process.Pid)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	exe, err := p.Exe()
	if err != nil {
		t.Fatal(err)
	}
	assert(t, filepath.Base(exe) != "", true)

	cmdline, err := p.Cmdline()
	if err != nil {
		t.Fatal(err)
	}
	assert(t, len(cmdline), 3)
	assert(t, cmdline[1], "-c")

	threads, err := p.Threads()
	if err != nil {
		t.Fatal(err)
	}
	assert(t, len(threads) >= 1, true)

	deadline := time.Now().Add(5 * time.Second)
	children := 0
	for time.Now().Before(deadline) {
		edges, err := p.ChildProcesses()
		if err != nil {
			t.Fatal(err)
		}
		children = len(edges)
		if children == 2 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	assert(t, children, 2)

	lock, err := p.Lock()
	if err != nil {
		t.Fatal(err)
	}
	lock.Release()

	if err := cmd.Process.Kill(); err != nil {
		t.Fatal("target not killable after resume:", err)
	}
}
