//go:build windows

package cpu

import (
	"runtime"
	"syscall"
)

var (
	kernel32              = syscall.NewLazyDLL("kernel32.dll")
	setThreadAffinityMask = kernel32.NewProc("SetThreadAffinityMask")
	getCurrentThread      = kernel32.NewProc("GetCurrentThread")
)

// PinWorker locks the calling goroutine to an OS thread and pins that thread
// to one CPU core via SetThreadAffinityMask. The returned function undoes
// the thread lock and should be deferred.
func PinWorker(workerID int) func() {
	runtime.LockOSThread()

	core := workerID % runtime.NumCPU()
	if core < 0 {
		core += runtime.NumCPU()
	}

	handle, _, _ := getCurrentThread.Call()
	// Bit N of the mask selects CPU N.
	_, _, _ = setThreadAffinityMask.Call(handle, uintptr(1)<<core)

	return runtime.UnlockOSThread
}

// NumCores returns the number of logical CPUs available.
func NumCores() int {
	return runtime.NumCPU()
}
