// Default worker pool size, one goroutine per CPU available to this process

//go:build linux

package libparcinternal

import (
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

// DefaultSchedulerPoolSize is what a Scheduler's pool size resolves to when
// SchedulerConfig.PoolSize is left at its zero value: the CPU affinity mask
// on linux, w/ a fallback on runtime.NumCPU, so a container capped below the
// host's CPU count doesn't oversubscribe its worker pool.
func DefaultSchedulerPoolSize() int {
	cpuSet := unix.CPUSet{}
	err := unix.SchedGetaffinity(os.Getpid(), &cpuSet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unix.SchedGetaffinity: %v", err)
		return runtime.NumCPU()
	}
	count := 0
	for _, cpuMask := range cpuSet {
		for cpuMask != 0 {
			count++
			cpuMask &= (cpuMask - 1)
		}
	}
	if count > runtime.NumCPU() {
		count = runtime.NumCPU()
	}
	return count
}
