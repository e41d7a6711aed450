//go:build windows

package proc

import (
	"sync/atomic"

	"golang.org/x/sys/windows"
)

// handle is a shared, reference-counted kernel handle. Process, Thread,
// Lock and ThreadLock values referencing the same kernel object hold
// clones of one handle; CloseHandle is issued exactly once, when the
// last owner releases its clone. The raw value never leaves this
// package except through Process.Handle.
type handle struct {
	raw  windows.Handle
	refs *atomic.Int32
}

func newHandle(raw windows.Handle) *handle {
	refs := new(atomic.Int32)
	refs.Store(1)
	return &handle{raw: raw, refs: refs}
}

func (h *handle) clone() *handle {
	h.refs.Add(1)
	return &handle{raw: h.raw, refs: h.refs}
}

func (h *handle) close() error {
	if h.refs.Add(-1) > 0 {
		return nil
	}
	return windows.CloseHandle(h.raw)
}
