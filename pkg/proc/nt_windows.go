//go:build windows

package proc

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Thin bindings to the ntdll entry points this package depends on.
// Suspending/resuming a whole process and walking the global
// thread/process lists have no documented equivalents, so everything
// undocumented is declared here and nowhere else; a future OS-version
// shim only has to replace this file.
// https://j00ru.vexillium.org/2009/08/suspending-processes-in-windows/
var (
	modntdll    = windows.NewLazySystemDLL("ntdll.dll")
	modkernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procNtSuspendProcess          = modntdll.NewProc("NtSuspendProcess")
	procNtResumeProcess           = modntdll.NewProc("NtResumeProcess")
	procNtQueryInformationProcess = modntdll.NewProc("NtQueryInformationProcess")
	procNtQueryInformationThread  = modntdll.NewProc("NtQueryInformationThread")
	procNtGetNextThread           = modntdll.NewProc("NtGetNextThread")
	procNtGetNextProcess          = modntdll.NewProc("NtGetNextProcess")
	procRtlNtStatusToDosError     = modntdll.NewProc("RtlNtStatusToDosError")

	procGetThreadId = modkernel32.NewProc("GetThreadId")
)

// Access masks and information classes, from the Windows SDK headers.
const (
	_PROCESS_VM_READ           = 0x0010
	_PROCESS_SUSPEND_RESUME    = 0x0800
	_PROCESS_QUERY_INFORMATION = 0x0400
	_THREAD_QUERY_INFORMATION  = 0x0040
	_THREAD_GET_CONTEXT        = 0x0008
	_THREAD_ALL_ACCESS         = 0x1fffff
	_MAXIMUM_ALLOWED           = 0x02000000

	_ProcessBasicInformation       = 0
	_ProcessCommandLineInformation = 60
	_ThreadLastSystemCall          = 21
)

type processBasicInformation struct {
	ExitStatus                   uintptr
	PebBaseAddress               uintptr
	AffinityMask                 uintptr
	BasePriority                 uintptr
	UniqueProcessID              uintptr
	InheritedFromUniqueProcessID uintptr
}

type threadLastSyscallInformation struct {
	FirstArgument    uintptr
	SystemCallNumber uint16
	_                uint16
	_                uint32
}

func ntSuspendProcess(process windows.Handle) uintptr {
	status, _, _ := procNtSuspendProcess.Call(uintptr(process))
	return status
}

func ntResumeProcess(process windows.Handle) uintptr {
	status, _, _ := procNtResumeProcess.Call(uintptr(process))
	return status
}

func ntQueryInformationProcess(process windows.Handle, infoClass uint32, info unsafe.Pointer, infoLen uint32, retLen *uint32) uintptr {
	status, _, _ := procNtQueryInformationProcess.Call(
		uintptr(process),
		uintptr(infoClass),
		uintptr(info),
		uintptr(infoLen),
		uintptr(unsafe.Pointer(retLen)))
	return status
}

func ntQueryInformationThread(thread windows.Handle, infoClass uint32, info unsafe.Pointer, infoLen uint32, retLen *uint32) uintptr {
	status, _, _ := procNtQueryInformationThread.Call(
		uintptr(thread),
		uintptr(infoClass),
		uintptr(info),
		uintptr(infoLen),
		uintptr(unsafe.Pointer(retLen)))
	return status
}

func ntGetNextThread(process, thread windows.Handle, access, attributes, flags uint32, newThread *windows.Handle) uintptr {
	status, _, _ := procNtGetNextThread.Call(
		uintptr(process),
		uintptr(thread),
		uintptr(access),
		uintptr(attributes),
		uintptr(flags),
		uintptr(unsafe.Pointer(newThread)))
	return status
}

func ntGetNextProcess(process windows.Handle, access, attributes, flags uint32, newProcess *windows.Handle) uintptr {
	status, _, _ := procNtGetNextProcess.Call(
		uintptr(process),
		uintptr(access),
		uintptr(attributes),
		uintptr(flags),
		uintptr(unsafe.Pointer(newProcess)))
	return status
}

func getThreadID(thread windows.Handle) (uint32, error) {
	id, _, err := procGetThreadId.Call(uintptr(thread))
	if id == 0 {
		return 0, err
	}
	return uint32(id), nil
}

// statusError translates an NTSTATUS into the Win32 error space before
// surfacing it, so callers see the same error kinds as documented calls.
func statusError(status uintptr) error {
	code, _, _ := procRtlNtStatusToDosError.Call(status)
	return syscall.Errno(code)
}
