//go:build windows

package proc

import (
	"fmt"
	"io"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/acj/remoteprocess/pkg/pidtree"
)

// Process wraps an open handle to another process on the system.
type Process struct {
	Pid    int
	handle *handle
}

var _ ProcessMemory = (*Process)(nil)

// New opens pid with the superset of access rights needed by every
// other method: memory reads, suspend/resume, information queries and
// thread context access.
func New(pid int) (*Process, error) {
	h, err := windows.OpenProcess(
		_PROCESS_VM_READ|_PROCESS_SUSPEND_RESUME|_PROCESS_QUERY_INFORMATION|
			_THREAD_QUERY_INFORMATION|_THREAD_GET_CONTEXT,
		false, uint32(pid))
	if err != nil {
		return nil, fmt.Errorf("failed to open process %d: %w", pid, err)
	}
	return &Process{Pid: pid, handle: newHandle(h)}, nil
}

// Handle exposes the raw process handle for collaborators that need it,
// such as unwinder or symbolicator constructors. The handle stays owned
// by the Process and is only valid until Close.
func (p *Process) Handle() windows.Handle {
	return p.handle.raw
}

// Close releases this owner's reference to the process handle. The
// kernel object is closed once every Thread, Lock and ThreadLock
// sharing it has been released too.
func (p *Process) Close() error {
	return p.handle.close()
}

// Exe returns the full path of the process's executable image.
func (p *Process) Exe() (string, error) {
	var buf [windows.MAX_PATH]uint16
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(p.handle.raw, 0, &buf[0], &size); err != nil {
		return "", fmt.Errorf("failed to query image name of process %d: %w", p.Pid, err)
	}
	return string(utf16.Decode(buf[:size])), nil
}

// Cmdline returns the raw command line as a single string, exactly as
// stored by the OS. It is not tokenized into argv; callers that need
// argument splitting must apply Windows quoting rules themselves.
func (p *Process) Cmdline() ([]string, error) {
	buf, err := querySized(
		func() uint32 {
			// This probe call always fails (the command length is
			// deliberately wrong); it still reports the size needed.
			var size uint32
			ntQueryInformationProcess(p.handle.raw, _ProcessCommandLineInformation, nil, 0, &size)
			return size
		},
		func(buf []byte) error {
			size := uint32(len(buf))
			status := ntQueryInformationProcess(p.handle.raw, _ProcessCommandLineInformation,
				unsafe.Pointer(&buf[0]), size, &size)
			if status != 0 {
				return fmt.Errorf("failed to query command line of process %d: %w",
					p.Pid, statusError(status))
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	// The result starts with a UNICODE_STRING descriptor whose buffer
	// points back into the same allocation. Decode exactly the reported
	// character count, lossily, never the whole buffer.
	us := (*windows.NTUnicodeString)(unsafe.Pointer(&buf[0]))
	chars := unsafe.Slice(us.Buffer, int(us.Length)/2)
	return []string{string(utf16.Decode(chars))}, nil
}

// Cwd always fails with ErrCwdUnsupported. Recovering the working
// directory would require locating ProcessParameters inside the target
// PEB and reading the structure out of remote memory; this is left
// unimplemented.
func (p *Process) Cwd() (string, error) {
	return "", ErrCwdUnsupported
}

// Threads returns a snapshot of the process's threads, in whatever
// order the kernel walks them. Threads created after enumeration
// begins may or may not appear.
func (p *Process) Threads() ([]*Thread, error) {
	var threads []*Thread
	var thread windows.Handle
	for ntGetNextThread(p.handle.raw, thread, _MAXIMUM_ALLOWED, 0, 0, &thread) == 0 {
		threads = append(threads, &Thread{handle: newHandle(thread)})
	}
	return threads, nil
}

// ChildProcesses returns the (pid, ppid) pairs of every process
// reachable from this one in the process tree.
//
// The kernel cannot be asked for children directly: NtGetNextProcess
// walks the global process list, and each entry's parent comes from a
// second basic-information query. Entries whose query fails are
// skipped. Because pids are recycled, a chain reconstructed this way
// can be wrong if an intermediate pid was reused after the original
// child exited; that is a limitation of the underlying facility.
func (p *Process) ChildProcesses() ([]pidtree.Edge, error) {
	parents := make(map[int]int)
	cur := p.handle.raw
	for {
		var next windows.Handle
		status := ntGetNextProcess(cur, _MAXIMUM_ALLOWED, 0, 0, &next)
		if cur != p.handle.raw {
			windows.CloseHandle(cur)
		}
		if status != 0 {
			break
		}
		cur = next

		var info processBasicInformation
		var retLen uint32
		if ntQueryInformationProcess(cur, _ProcessBasicInformation,
			unsafe.Pointer(&info), uint32(unsafe.Sizeof(info)), &retLen) == 0 {
			parents[int(info.UniqueProcessID)] = int(info.InheritedFromUniqueProcessID)
		}
	}
	return pidtree.Descendants(p.Pid, parents), nil
}

// Lock suspends the whole process and returns a guard that resumes it.
// Release the guard on every exit path, typically with defer. Locking
// an already-locked process issues a second kernel suspend; the target
// resumes only after both guards release (the kernel keeps the count).
func (p *Process) Lock() (*Lock, error) {
	return newLock(p.handle.clone())
}

// ReadAt copies len(buf) bytes from address off in the target's address
// space, satisfying io.ReaderAt. Short reads return an error.
func (p *Process) ReadAt(buf []byte, off int64) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	var read uintptr
	err := windows.ReadProcessMemory(p.handle.raw, uintptr(off), &buf[0], uintptr(len(buf)), &read)
	if err != nil {
		return 0, fmt.Errorf("failed to read %d bytes at %#x from process %d: %w",
			len(buf), off, p.Pid, err)
	}
	if int(read) < len(buf) {
		return int(read), io.ErrUnexpectedEOF
	}
	return int(read), nil
}
