//go:build linux

package cpu

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// PinWorker locks the calling goroutine to an OS thread and pins that thread
// to one CPU core, chosen by worker id modulo the core count. The returned
// function undoes the thread lock and should be deferred.
func PinWorker(workerID int) func() {
	runtime.LockOSThread()

	core := workerID % runtime.NumCPU()
	if core < 0 {
		core += runtime.NumCPU()
	}

	var mask unix.CPUSet
	mask.Zero()
	mask.Set(core)
	// Thread id 0 means the current thread. A failure leaves the thread
	// unpinned, which only costs benchmark stability.
	_ = unix.SchedSetaffinity(0, &mask)

	return runtime.UnlockOSThread
}

// NumCores returns the number of logical CPUs available.
func NumCores() int {
	return runtime.NumCPU()
}
