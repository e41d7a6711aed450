// Package proc opens privileged handles to other processes and exposes
// metadata queries, thread enumeration, child-process discovery, memory
// reads and whole-process suspend/resume over them.
//
// All calls are synchronous and may block for the duration of the
// underlying system call. The package adds no mutual exclusion across
// Process values targeting the same pid; the kernel's own per-object
// synchronization is the only guarantee.
package proc

import (
	"errors"
	"io"
)

// ErrCwdUnsupported is returned by Process.Cwd on every platform.
// Recovering the working directory requires parsing process-internal
// structures that this package does not implement.
var ErrCwdUnsupported = errors.New("cwd retrieval is not supported")

// ProcessMemory is the read side of a remote address space. Process
// satisfies it; offsets are absolute addresses in the target.
type ProcessMemory interface {
	io.ReaderAt
}
