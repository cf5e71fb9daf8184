//go:build darwin

package cpu

import (
	"runtime"
)

// PinWorker locks the calling goroutine to an OS thread. macOS has no public
// thread-to-core affinity API, so the thread lock is all we get.
func PinWorker(workerID int) func() {
	runtime.LockOSThread()
	return runtime.UnlockOSThread
}

// NumCores returns the number of logical CPUs available.
func NumCores() int {
	return runtime.NumCPU()
}
