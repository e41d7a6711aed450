//go:build linux

package proc

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/acj/remoteprocess/pkg/pidtree"
)

// Process wraps operations on another process on the system.
type Process struct {
	Pid int
}

var _ ProcessMemory = (*Process)(nil)

// New validates that pid exists and returns a Process for it. On Linux
// there is no long-lived kernel handle; each operation goes back to
// procfs or a pid-targeted syscall.
func New(pid int) (*Process, error) {
	if _, err := os.Stat(fmt.Sprintf("/proc/%d", pid)); err != nil {
		return nil, fmt.Errorf("failed to open process %d: %w", pid, err)
	}
	return &Process{Pid: pid}, nil
}

// Close releases the Process. It exists for parity with platforms that
// hold a kernel handle.
func (p *Process) Close() error {
	return nil
}

// Exe returns the full path of the process's executable image.
func (p *Process) Exe() (string, error) {
	path, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", p.Pid))
	if err != nil {
		return "", fmt.Errorf("failed to read exe of process %d: %w", p.Pid, err)
	}
	return path, nil
}

// Cmdline returns the process's argument vector as recorded by the
// kernel, one element per NUL-separated argument.
func (p *Process) Cmdline() ([]string, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", p.Pid))
	if err != nil {
		return nil, fmt.Errorf("failed to read cmdline of process %d: %w", p.Pid, err)
	}
	args := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	if len(args) == 1 && args[0] == "" {
		return []string{}, nil
	}
	return args, nil
}

// Cwd always fails with ErrCwdUnsupported.
func (p *Process) Cwd() (string, error) {
	return "", ErrCwdUnsupported
}

// Threads returns a snapshot of the process's threads from the task
// directory, in directory order. Threads created after enumeration
// begins may or may not appear.
func (p *Process) Threads() ([]*Thread, error) {
	entries, err := os.ReadDir(fmt.Sprintf("/proc/%d/task", p.Pid))
	if err != nil {
		return nil, fmt.Errorf("failed to list threads of process %d: %w", p.Pid, err)
	}
	threads := make([]*Thread, 0, len(entries))
	for _, e := range entries {
		tid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		threads = append(threads, &Thread{Tid: tid})
	}
	return threads, nil
}

// ChildProcesses returns the (pid, ppid) pairs of every process
// reachable from this one, built by walking all of /proc and filtering
// the resulting pid→ppid table. Entries that disappear mid-walk are
// skipped. Pid recycling can make a reconstructed chain wrong; see
// pidtree.Descendants.
func (p *Process) ChildProcesses() ([]pidtree.Edge, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}
	parents := make(map[int]int)
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		_, ppid, err := parseStat(pid)
		if err != nil {
			continue
		}
		parents[pid] = ppid
	}
	return pidtree.Descendants(p.Pid, parents), nil
}

// Lock suspends every thread of the process and returns a guard that
// resumes them. Release the guard on every exit path, typically with
// defer.
func (p *Process) Lock() (*Lock, error) {
	return newLock(p)
}

// ReadAt copies len(buf) bytes from address off in the target's address
// space via process_vm_readv, satisfying io.ReaderAt. Short reads
// return an error.
func (p *Process) ReadAt(buf []byte, off int64) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	local := []unix.Iovec{{Base: &buf[0], Len: uint64(len(buf))}}
	remote := []unix.RemoteIovec{{Base: uintptr(off), Len: len(buf)}}
	n, err := unix.ProcessVMReadv(p.Pid, local, remote, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to read %d bytes at %#x from process %d: %w",
			len(buf), off, p.Pid, err)
	}
	if n < len(buf) {
		return n, io.ErrUnexpectedEOF
	}
	return n, nil
}

// parseStat reads /proc/<tid>/stat and returns the state character and
// parent pid. The comm field may contain spaces and parentheses, so
// parsing starts after the last ')'.
func parseStat(tid int) (state string, ppid int, err error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", tid))
	if err != nil {
		return "", 0, err
	}
	i := strings.LastIndexByte(string(data), ')')
	if i < 0 {
		return "", 0, fmt.Errorf("malformed stat for %d", tid)
	}
	fields := strings.Fields(string(data[i+1:]))
	if len(fields) < 2 {
		return "", 0, fmt.Errorf("malformed stat for %d", tid)
	}
	ppid, err = strconv.Atoi(fields[1])
	if err != nil {
		return "", 0, fmt.Errorf("malformed ppid for %d: %w", tid, err)
	}
	return fields[0], ppid, nil
}
