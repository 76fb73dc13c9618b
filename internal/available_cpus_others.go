// Default worker pool size, one goroutine per CPU available to this process

//go:build !linux

package libparcinternal

import (
	"runtime"
)

// DefaultSchedulerPoolSize is what a Scheduler's pool size resolves to when
// SchedulerConfig.PoolSize is left at its zero value. Affinity masks aren't
// portable outside linux, so this falls straight back to runtime.NumCPU.
func DefaultSchedulerPoolSize() int {
	return runtime.NumCPU()
}
